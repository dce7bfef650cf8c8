package handlers

import (
	"context"

	"taskManager/internal/models/task"
)

// Service - контракт бизнес-слоя, который требуется обработчикам.
type Service interface {
	HealthCheck(ctx context.Context) error
	CreateTask(ctx context.Context, t *task.Task) (*task.Task, error)
	GetTaskByID(ctx context.Context, id int64) (*task.Task, error)
	ListTasks(ctx context.Context, page, pageSize int) ([]*task.Task, int, error)
	GetAllTasks(ctx context.Context) ([]*task.Task, error)
	SearchTasks(ctx context.Context, query string) ([]*task.Task, error)
	UpdateTask(ctx context.Context, t *task.Task) (*task.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}
