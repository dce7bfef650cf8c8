package service

import (
	"context"

	"taskManager/internal/models/task"
)

// TaskRepository - контракт хранилища, который требуется сервису.
// Реализации: postgres и inmemory.
type TaskRepository interface {
	Create(ctx context.Context, t *task.Task) error
	GetByID(ctx context.Context, id int64) (*task.Task, error)
	GetAllWithLimit(ctx context.Context, page, limit int) ([]*task.Task, int, error)
	GetAll(ctx context.Context) ([]*task.Task, error)
	Search(ctx context.Context, query string) ([]*task.Task, error)
	Update(ctx context.Context, t *task.Task) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	HealthCheck(ctx context.Context) error
}
