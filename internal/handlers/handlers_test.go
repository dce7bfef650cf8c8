package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskManager/internal/handlers"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskService - мок сервиса
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) CreateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) GetTaskByID(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ListTasks(ctx context.Context, page, pageSize int) ([]*task.Task, int, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*task.Task), args.Int(1), args.Error(2)
}

func (m *MockTaskService) GetAllTasks(ctx context.Context) ([]*task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) SearchTasks(ctx context.Context, query string) ([]*task.Task, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ handlers.Service = (*MockTaskService)(nil)

func sampleTask(id int64) *task.Task {
	return &task.Task{
		ID:       id,
		Title:    "Buy milk",
		Priority: task.PriorityLow,
		Status:   task.StatusPending,
		Category: task.CategoryPersonal,
	}
}

func sampleTasks(n int) []*task.Task {
	tasks := make([]*task.Task, n)
	for i := range tasks {
		tasks[i] = sampleTask(int64(i + 1))
	}
	return tasks
}

// withPathID подставляет параметр {id} в контекст маршрутизатора chi
func withPathID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// TestTaskHandler_GetTasks тестирует страничный список
func TestTaskHandler_GetTasks(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		setupMock      func(*MockTaskService)
		expectedStatus int
		check          func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "success - default pagination",
			url:  "/api/task",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, 1, 10).Return(sampleTasks(3), 3, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response dto.TaskListResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, 3, response.TotalCount)
				assert.Equal(t, 1, response.Page)
				assert.Equal(t, 10, response.PageSize)
				assert.Len(t, response.Items, 3)
			},
		},
		{
			name: "success - explicit page and pageSize",
			url:  "/api/task?page=2&pageSize=5",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, 2, 5).Return(sampleTasks(5), 12, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response dto.TaskListResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, 12, response.TotalCount)
				assert.Equal(t, 2, response.Page)
				assert.Len(t, response.Items, 5)
			},
		},
		{
			name: "success - page and pageSize clamped to 1",
			url:  "/api/task?page=0&pageSize=-3",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, 1, 1).Return(sampleTasks(1), 12, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "success - empty store is 200 with empty items",
			url:  "/api/task",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, 1, 10).Return([]*task.Task{}, 0, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var response dto.TaskListResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, 0, response.TotalCount)
				assert.Len(t, response.Items, 0)
			},
		},
		{
			name:           "error - non-numeric page",
			url:            "/api/task?page=abc",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "error - store error",
			url:  "/api/task",
			setupMock: func(m *MockTaskService) {
				m.On("ListTasks", mock.Anything, 1, 10).Return(nil, 0, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)

			req := httptest.NewRequest("GET", tt.url, nil)
			w := httptest.NewRecorder()

			handler.GetTasks(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.check != nil {
				tt.check(t, w)
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_GetAllTasks тестирует простой список без пагинации
func TestTaskHandler_GetAllTasks(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - all tasks",
			setupMock: func(m *MockTaskService) {
				m.On("GetAllTasks", mock.Anything).Return(sampleTasks(2), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - empty store is 404",
			setupMock: func(m *MockTaskService) {
				m.On("GetAllTasks", mock.Anything).Return([]*task.Task{}, nil)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "error - store error",
			setupMock: func(m *MockTaskService) {
				m.On("GetAllTasks", mock.Anything).Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)

			req := httptest.NewRequest("GET", "/api/task/all", nil)
			w := httptest.NewRecorder()

			handler.GetAllTasks(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_GetTaskByID тестирует получение задачи по id
func TestTaskHandler_GetTaskByID(t *testing.T) {
	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success - get task",
			taskID: "7",
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, int64(7)).Return(sampleTask(7), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid id",
			taskID:         "abc",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - task not found",
			taskID: "7",
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, int64(7)).
					Return(nil, fmt.Errorf("задача 7: %w", repo.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "error - store error",
			taskID: "7",
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, int64(7)).Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)

			req := httptest.NewRequest("GET", "/api/task/"+tt.taskID, nil)
			req = withPathID(req, tt.taskID)
			w := httptest.NewRecorder()

			handler.GetTaskByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, int64(7), response.ID)
				assert.Equal(t, "Buy milk", response.Title)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_PostTask тестирует создание задачи
func TestTaskHandler_PostTask(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
		check          func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "success - create task",
			requestBody: `{"title":"Buy milk","priority":"Low","status":"Pending","category":"Personal"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).Return(sampleTask(1), nil)
			},
			expectedStatus: http.StatusCreated,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, "/api/task/1", w.Header().Get("Location"))

				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.GreaterOrEqual(t, response.ID, int64(1))
				assert.Equal(t, "Buy milk", response.Title)
				assert.Equal(t, "Low", response.Priority)
				assert.Equal(t, "Pending", response.Status)
				assert.Equal(t, "Personal", response.Category)
			},
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - missing title",
			requestBody:    `{"priority":"Low","status":"Pending","category":"Personal"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - missing priority",
			requestBody:    `{"title":"Buy milk","status":"Pending","category":"Personal"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - unknown priority value",
			requestBody:    `{"title":"Buy milk","priority":"Urgent","status":"Pending","category":"Personal"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "error - title too long",
			requestBody: fmt.Sprintf(`{"title":%q,"priority":"Low","status":"Pending","category":"Personal"}`,
				strings.Repeat("a", 101)),
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - store error",
			requestBody: `{"title":"Buy milk","priority":"Low","status":"Pending","category":"Personal"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)

			req := httptest.NewRequest("POST", "/api/task", bytes.NewBufferString(tt.requestBody))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			handler.PostTask(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.check != nil {
				tt.check(t, w)
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_UpdateTask тестирует обновление задачи
func TestTaskHandler_UpdateTask(t *testing.T) {
	validBody := `{"id":5,"title":"Updated","priority":"High","status":"Completed","category":"Work"}`

	tests := []struct {
		name           string
		taskID         string
		requestBody    string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success - update task",
			taskID:      "5",
			requestBody: validBody,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, mock.Anything).
					Return(&task.Task{
						ID:       5,
						Title:    "Updated",
						Priority: task.PriorityHigh,
						Status:   task.StatusCompleted,
						Category: task.CategoryWork,
					}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid content type",
			taskID:         "5",
			requestBody:    validBody,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid id",
			taskID:         "abc",
			requestBody:    validBody,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - invalid JSON",
			taskID:         "5",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - id mismatch, store untouched",
			taskID:         "6",
			requestBody:    validBody,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - validation failure",
			taskID:         "5",
			requestBody:    `{"id":5,"title":"","priority":"Low","status":"Pending","category":"Work"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - task not found",
			taskID:      "5",
			requestBody: validBody,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("задача 5: %w", repo.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "error - unresolved version conflict is fatal",
			taskID:      "5",
			requestBody: validBody,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("обновление задачи 5: %w", repo.ErrVersionConflict))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)

			req := httptest.NewRequest("PUT", "/api/task/"+tt.taskID, bytes.NewBufferString(tt.requestBody))
			req.Header.Set("Content-Type", tt.contentType)
			req = withPathID(req, tt.taskID)
			w := httptest.NewRecorder()

			handler.UpdateTask(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_UpdateTask_QueryID тестирует вариант PUT /api/task?id=
func TestTaskHandler_UpdateTask_QueryID(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("UpdateTask", mock.Anything, mock.Anything).Return(sampleTask(5), nil)

	handler := handlers.NewTaskHandler(mockService)

	body := `{"id":5,"title":"Buy milk","priority":"Low","status":"Pending","category":"Personal"}`
	req := httptest.NewRequest("PUT", "/api/task?id=5", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.UpdateTask(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

// TestTaskHandler_DeleteTask тестирует удаление задачи
func TestTaskHandler_DeleteTask(t *testing.T) {
	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success - delete task",
			taskID: "5",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, int64(5)).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid id",
			taskID:         "abc",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - task not found",
			taskID: "5",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, int64(5)).
					Return(fmt.Errorf("задача 5: %w", repo.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "error - store error",
			taskID: "5",
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, int64(5)).Return(errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)

			req := httptest.NewRequest("DELETE", "/api/task/"+tt.taskID, nil)
			req = withPathID(req, tt.taskID)
			w := httptest.NewRecorder()

			handler.DeleteTask(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				// подтверждение в plain text с упоминанием id
				assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
				assert.Contains(t, w.Body.String(), "5")
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_SearchTasks тестирует поиск по подстроке
func TestTaskHandler_SearchTasks(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedCount  int
	}{
		{
			name: "success - matching tasks",
			url:  "/api/task/search?query=milk",
			setupMock: func(m *MockTaskService) {
				m.On("SearchTasks", mock.Anything, "milk").Return(sampleTasks(1), nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  1,
		},
		{
			name: "success - no matches is still 200",
			url:  "/api/task/search?query=nothing",
			setupMock: func(m *MockTaskService) {
				m.On("SearchTasks", mock.Anything, "nothing").Return([]*task.Task{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  0,
		},
		{
			name:           "error - missing query, store untouched",
			url:            "/api/task/search",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - whitespace query, store untouched",
			url:            "/api/task/search?query=%20%20",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "error - store error",
			url:  "/api/task/search?query=milk",
			setupMock: func(m *MockTaskService) {
				m.On("SearchTasks", mock.Anything, "milk").Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)

			req := httptest.NewRequest("GET", tt.url, nil)
			w := httptest.NewRecorder()

			handler.SearchTasks(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var response []dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Len(t, response, tt.expectedCount)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_HealthCheck тестирует health check
func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - unhealthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db down"))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)

			req := httptest.NewRequest("GET", "/health", nil)
			w := httptest.NewRecorder()

			handler.HealthCheck(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), "task-manager")

			mockService.AssertExpectations(t)
		})
	}
}
