package app

import (
	"context"
	"fmt"
	"net/http"

	"taskManager/internal/config"
	"taskManager/internal/handlers"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/repository/task/inmemory"
	"taskManager/internal/repository/task/postgres"
	"taskManager/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type App struct {
	config    *config.Config
	server    *http.Server
	shutdowns []func() // функции для graceful shutdown, выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	repo, err := a.initRepository(ctx)
	if err != nil {
		return err
	}

	taskService := service.NewTaskService(repo)
	taskHandler := handlers.NewTaskHandler(&taskService)

	a.server = &http.Server{
		Addr:    a.config.ServerAddr(),
		Handler: a.buildRouter(&taskHandler),
	}

	return nil
}

func (a *App) initRepository(ctx context.Context) (service.TaskRepository, error) {
	switch a.config.Repository.Type {
	case "postgres":
		if err := postgres.Migrate(a.config.Database.URL); err != nil {
			return nil, fmt.Errorf("миграции: %w", err)
		}

		storage, err := postgres.New(ctx, postgres.Config{
			ConnString:  a.config.Database.URL,
			MaxConns:    a.config.Database.MaxConnections,
			MinConns:    a.config.Database.MinConnections,
			IdleTimeout: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("подключение к PostgreSQL: %w", err)
		}

		a.shutdowns = append(a.shutdowns, storage.Close)
		return storage, nil

	case "inmemory":
		logger.Info("Repository: Используется хранилище в памяти")
		return inmemory.NewTaskStorage(), nil

	default:
		return nil, fmt.Errorf("неизвестный тип хранилища: %q", a.config.Repository.Type)
	}
}

func (a *App) buildRouter(taskHandler *handlers.TaskHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
	r.Use(middleware.RateLimit(a.config.Server.RateLimitPerMin))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	r.Route("/api/task", func(r chi.Router) {
		r.Get("/", taskHandler.GetTasks)    // GET /api/task?page=&pageSize=
		r.Post("/", taskHandler.PostTask)   // POST /api/task
		r.Put("/", taskHandler.UpdateTask)  // PUT /api/task?id=

		r.Get("/all", taskHandler.GetAllTasks)    // GET /api/task/all
		r.Get("/search", taskHandler.SearchTasks) // GET /api/task/search?query=

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", taskHandler.GetTaskByID)   // GET /api/task/{id}
			r.Put("/", taskHandler.UpdateTask)    // PUT /api/task/{id}
			r.Delete("/", taskHandler.DeleteTask) // DELETE /api/task/{id}
		})
	})

	r.Get("/health", taskHandler.HealthCheck)

	return r
}

func (a *App) Run() error {
	logger.Info("Сервер запущен: " + a.server.Addr)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http сервер: %w", err)
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) {
	logger.Info("Остановка сервера...")

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			logger.Error("Ошибка остановки http сервера", err)
		}
	}

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}
