package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const defaultPage = 1
const defaultPageSize = 10

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

// GetTasks возвращает страницу задач в конверте
// {totalCount, page, pageSize, items}. Пустое хранилище - это 200
// с пустым items, в отличие от простого варианта GetAllTasks.
func (s *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	page, err := queryIntParam(r, "page", defaultPage)
	if err != nil {
		logger.Warn("HTTP: Неверное значение параметра",
			zap.String("query", "page"),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "не удалось получить значение page: "+err.Error())
		return
	}

	pageSize, err := queryIntParam(r, "pageSize", defaultPageSize)
	if err != nil {
		logger.Warn("HTTP: Неверное значение параметра",
			zap.String("query", "pageSize"),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "не удалось получить значение pageSize: "+err.Error())
		return
	}

	// оба параметра зажимаются снизу единицей
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	tasks, total, err := s.TaskService.ListTasks(r.Context(), page, pageSize)
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Int("total", total),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.TaskListResponse{
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		Items:      dto.FromTaskList(tasks),
	})
}

// GetAllTasks - простой вариант списка без пагинации.
// Пустое хранилище здесь отвечает 404, поведение сохранено намеренно.
func (s *TaskHandler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	tasks, err := s.TaskService.GetAllTasks(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "get_all_tasks")
		return
	}

	if len(tasks) == 0 {
		logger.Info("HTTP_OUT: Задач нет", zap.Int("http_status", http.StatusNotFound))
		responseWithError(w, http.StatusNotFound, "задачи не найдены")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := pathID(r)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "не удалось получить id: "+err.Error())
		return
	}

	t, err := s.TaskService.GetTaskByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.Int64("task_id", t.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	taskToCreate := request.ToTask()
	if violations := taskToCreate.Validate(); len(violations) > 0 {
		logger.Warn("HTTP: Ошибка валидации",
			zap.Int("violations", len(violations)),
			zap.String("client_ip", r.RemoteAddr))
		responseWithViolations(w, violations)
		return
	}

	created, err := s.TaskService.CreateTask(r.Context(), taskToCreate)
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	w.Header().Set("Location", fmt.Sprintf("/api/task/%d", created.ID))
	responseWithJSON(w, http.StatusCreated, dto.FromTask(created))
}

func (s *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	// id берётся из пути или, как в исходном API, из строки запроса
	idParam := chi.URLParam(r, "id")
	if idParam == "" {
		idParam = r.URL.Query().Get("id")
	}
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "не удалось получить id: "+err.Error())
		return
	}

	var request dto.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	if request.ID != id {
		logger.Warn("HTTP: Несовпадение id",
			zap.Int64("route_id", id),
			zap.Int64("body_id", request.ID),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "id в маршруте не совпадает с id в теле")
		return
	}

	taskToUpdate := request.ToTask()
	if violations := taskToUpdate.Validate(); len(violations) > 0 {
		logger.Warn("HTTP: Ошибка валидации",
			zap.Int("violations", len(violations)),
			zap.String("client_ip", r.RemoteAddr))
		responseWithViolations(w, violations)
		return
	}

	updated, err := s.TaskService.UpdateTask(r.Context(), taskToUpdate)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.Int64("task_id", updated.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTask(updated))
}

func (s *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := pathID(r)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "не удалось получить id: "+err.Error())
		return
	}

	if err := s.TaskService.DeleteTask(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithText(w, http.StatusOK, fmt.Sprintf("Задача с id %d успешно удалена.", id))
}

// SearchTasks ищет подстроку в названии и описании. Пустой или пробельный
// запрос отклоняется до обращения к хранилищу.
func (s *TaskHandler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		logger.Warn("HTTP: Пустой поисковый запрос",
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "поисковый запрос не может быть пустым")
		return
	}

	tasks, err := s.TaskService.SearchTasks(r.Context(), query)
	if err != nil {
		handleServiceError(w, r, err, "search_tasks")
		return
	}

	logger.Info("HTTP_OUT: Поиск выполнен",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		responseWithJSON(w, http.StatusServiceUnavailable, map[string]any{
			"service": "task-manager",
			"status":  "unavailable",
		})
		return
	}

	responseWithJSON(w, http.StatusOK, map[string]any{
		"service": "task-manager",
		"status":  "ok",
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func queryIntParam(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}
