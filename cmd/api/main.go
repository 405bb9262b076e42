package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/attachment"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		userRepo   repository.UserRepository
		ticketRepo repository.TicketRepository
		noteRepo   repository.NoteRepository
		resetRepo  repository.PasswordResetRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		userRepo = repository.NewUserRepository(pool)
		ticketRepo = repository.NewTicketRepository(pool)
		noteRepo = repository.NewNoteRepository(pool)
		resetRepo = repository.NewPasswordResetRepository(pool)
	} else {
		userRepo = repository.NewMemoryUserRepository()
		ticketRepo = repository.NewMemoryTicketRepository()
		noteRepo = repository.NewMemoryNoteRepository()
		resetRepo = repository.NewMemoryPasswordResetRepository()
	}

	statsCache := repository.NewStatsCache(redis.Client, cfg.Stats.CacheTTL())
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	attachments, err := attachment.NewDiskStore(cfg.Uploads.Dir, cfg.Uploads.MaxSizeBytes)
	if err != nil {
		logger.Fatal("failed to init attachment store", zap.Error(err))
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
	})
	lifecycle := service.NewTicketLifecycle(service.LifecycleDependencies{
		TicketRepo: ticketRepo,
		NoteRepo:   noteRepo,
		UserRepo:   userRepo,
		StatsCache: statsCache,
		Dispatcher: dispatcher,
	})
	thread := service.NewNoteThread(service.ThreadDependencies{
		TicketRepo: ticketRepo,
		NoteRepo:   noteRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	directory := service.NewDirectoryService(userRepo)
	notifications := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notifications)

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Uploads.MaxSizeBytes),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Customers:      handlers.NewCustomersHandler(directory),
		Tickets:        handlers.NewTicketsHandler(lifecycle, thread, attachments),
		AuthMiddleware: authMiddleware,
		UploadsDir:     cfg.Uploads.Dir,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
