package service

import (
	"context"
	"errors"
	"fmt"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"

	"go.uber.org/zap"
)

type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repository TaskRepository) TaskService {
	return TaskService{
		repo: repository,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

// CreateTask сохраняет задачу, хранилище назначает id и версию.
func (s *TaskService) CreateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	t.ID = 0
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана", zap.Int64("task_id", t.ID))
	return t, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("task_id", id))
			return nil, err
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *TaskService) ListTasks(ctx context.Context, page, pageSize int) ([]*task.Task, int, error) {
	tasks, total, err := s.repo.GetAllWithLimit(ctx, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, total, nil
}

func (s *TaskService) GetAllTasks(ctx context.Context) ([]*task.Task, error) {
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) SearchTasks(ctx context.Context, query string) ([]*task.Task, error) {
	tasks, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("поиск задач: %w", err)
	}
	return tasks, nil
}

// UpdateTask заменяет все поля существующей задачи, кроме id.
// Конфликт версий при записи понижается до "не найдена", если строка
// исчезла между чтением и записью, иначе уходит наверх как фатальный.
func (s *TaskService) UpdateTask(ctx context.Context, updated *task.Task) (*task.Task, error) {
	existing, err := s.repo.GetByID(ctx, updated.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("task_id", updated.ID))
			return nil, err
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	existing.Title = updated.Title
	existing.Description = updated.Description
	existing.DueDate = updated.DueDate
	existing.Priority = updated.Priority
	existing.Status = updated.Status
	existing.Category = updated.Category

	err = s.repo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			ok, existsErr := s.repo.Exists(ctx, updated.ID)
			if existsErr != nil {
				return nil, fmt.Errorf("проверка существования задачи: %w", existsErr)
			}
			if !ok {
				logger.Info("Service: Задача исчезла во время обновления", zap.Int64("task_id", updated.ID))
				return nil, fmt.Errorf("задача %d: %w", updated.ID, repo.ErrNotFound)
			}
			// строка жива, но изменилась - без политики merge/retry это фатально
			logger.Warn("Service: Конфликт версий при обновлении", zap.Int64("task_id", updated.ID))
			return nil, err
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	return existing, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("task_id", id))
			return err
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена", zap.Int64("task_id", id))
	return nil
}
