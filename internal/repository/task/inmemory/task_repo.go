package inmemory

import (
	"context"
	"strings"
	"sync"

	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
)

// TaskStorage хранит задачи в памяти. Порядок вставки сохраняется в ids,
// чтобы пагинация была стабильной, как ORDER BY id в PostgreSQL.
type TaskStorage struct {
	storage map[int64]*task.Task
	mtx     *sync.RWMutex
	ids     []int64
	nextID  int64
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[int64]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []int64{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.nextID++
	taskToCreate.ID = s.nextID
	taskToCreate.Version = 1

	s.storage[taskToCreate.ID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	// копия, чтобы мутации у вызывающего не меняли хранилище
	return taskToGet.Clone(), nil
}

func (s *TaskStorage) GetAllWithLimit(ctx context.Context, page, limit int) ([]*task.Task, int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}

	// произведение может переполниться при огромном limit,
	// отрицательное смещение означает страницу за пределами данных
	offset := (page - 1) * limit
	if offset < 0 || offset >= len(s.ids) {
		return res, len(s.ids), nil
	}

	for i := offset; i < len(s.ids); i++ {
		if len(res) >= limit {
			break
		}
		res = append(res, s.storage[s.ids[i]].Clone())
	}

	return res, len(s.ids), nil
}

func (s *TaskStorage) GetAll(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		res = append(res, s.storage[id].Clone())
	}
	return res, nil
}

func (s *TaskStorage) Search(ctx context.Context, query string) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		if strings.Contains(t.Title, query) || strings.Contains(t.Description, query) {
			res = append(res, t.Clone())
		}
	}
	return res, nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[taskToUpdate.ID]
	if !ok {
		return repo.ErrNotFound
	}

	// оптимистическая блокировка: версия должна совпадать с прочитанной
	if existing.Version != taskToUpdate.Version {
		return repo.ErrVersionConflict
	}

	taskToUpdate.Version++
	s.storage[taskToUpdate.ID] = taskToUpdate.Clone()
	return nil
}

func (s *TaskStorage) Delete(ctx context.Context, id int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

func (s *TaskStorage) Exists(ctx context.Context, id int64) (bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	_, ok := s.storage[id]
	return ok, nil
}
