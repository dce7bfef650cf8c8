package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Config struct {
	ConnString  string
	MaxConns    int32
	MinConns    int32
	IdleTimeout time.Duration
}

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		logger.Error("Repository: Ошибка разбора строки подключения", err)
		return nil, fmt.Errorf("разбор строки подключения: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное подключение к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(title, description, due_date, priority, status, category)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id, version`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.DueDate,
		taskToCreate.Priority,
		taskToCreate.Status,
		taskToCreate.Category,
	).Scan(&taskToCreate.ID, &taskToCreate.Version)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	start := time.Now()

	query := `SELECT
				id,
				title,
				description,
				due_date,
				priority,
				status,
				category,
				version
				FROM tasks
				WHERE id = $1`

	t := &task.Task{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.Priority,
		&t.Status,
		&t.Category,
		&t.Version,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("задача %d: %w", id, repo.ErrNotFound)
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return t, nil
}

func (s *Storage) GetAllWithLimit(ctx context.Context, page, limit int) ([]*task.Task, int, error) {
	start := time.Now()

	total := 0
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&total); err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err)
		return nil, 0, fmt.Errorf("подсчёт задач: %w", err)
	}

	// произведение может переполниться при огромном limit,
	// отрицательное смещение означает страницу за пределами данных
	offset := (page - 1) * limit
	if offset < 0 || offset >= total {
		return []*task.Task{}, total, nil
	}

	query := `SELECT
				id,
				title,
				description,
				due_date,
				priority,
				status,
				category,
				version
				FROM tasks
				ORDER BY id
				LIMIT $1 OFFSET $2`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, 0, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, 0, err
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(limit) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, total, nil
}

func (s *Storage) GetAll(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT
				id,
				title,
				description,
				due_date,
				priority,
				status,
				category,
				version
				FROM tasks
				ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// likeEscaper экранирует метасимволы шаблона LIKE, чтобы запрос
// сравнивался как буквальная подстрока, а не как шаблон.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search ищет подстроку в названии и описании. LIKE без ILIKE - поиск
// регистрозависимый, так же как Contains у исходного хранилища.
func (s *Storage) Search(ctx context.Context, searchQuery string) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT
				id,
				title,
				description,
				due_date,
				priority,
				status,
				category,
				version
				FROM tasks
				WHERE title LIKE '%' || $1 || '%' ESCAPE '\'
				   OR description LIKE '%' || $1 || '%' ESCAPE '\'
				ORDER BY id`

	rows, err := s.pool.Query(ctx, query, likeEscaper.Replace(searchQuery))
	if err != nil {
		logger.Error("Repository: Не удалось выполнить поиск", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("поиск задач: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				due_date = $3,
				priority = $4,
				status = $5,
				category = $6,
				version = version + 1
			WHERE id = $7 AND version = $8
			RETURNING version`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.DueDate,
		taskToUpdate.Priority,
		taskToUpdate.Status,
		taskToUpdate.Category,
		taskToUpdate.ID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("Repository: Конфликт версий при обновлении",
				zap.Int64("task_id", taskToUpdate.ID),
				zap.Int("expected_version", taskToUpdate.Version))
			return fmt.Errorf("обновление задачи %d: %w", taskToUpdate.ID, repo.ErrVersionConflict)
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, id int64) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("задача %d: %w", id, repo.ErrNotFound)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Exists(ctx context.Context, id int64) (bool, error) {
	exists := false
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		logger.Error("Repository: Не удалось проверить существование задачи", err)
		return false, fmt.Errorf("проверка существования: %w", err)
	}
	return exists, nil
}

func scanTasks(rows pgx.Rows) ([]*task.Task, error) {
	tasks := []*task.Task{}

	for rows.Next() {
		t := &task.Task{}
		err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Description,
			&t.DueDate,
			&t.Priority,
			&t.Status,
			&t.Category,
			&t.Version,
		)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return tasks, nil
}
