package dto

import (
	"time"

	"taskManager/internal/models/task"
)

// TaskRequest - тело запроса create/update. Поле id используется только
// при обновлении и должно совпадать с id из маршрута.
type TaskRequest struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Category    string     `json:"category"`
}

func (r *TaskRequest) ToTask() *task.Task {
	return &task.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Priority:    task.Priority(r.Priority),
		Status:      task.Status(r.Status),
		Category:    task.Category(r.Category),
	}
}

type TaskResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Category    string     `json:"category"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Category:    string(t.Category),
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

// TaskListResponse - конверт страничного списка.
type TaskListResponse struct {
	TotalCount int            `json:"totalCount"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	Items      []TaskResponse `json:"items"`
}
