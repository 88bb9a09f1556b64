package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"

	"github.com/tracklite/ticket-tracker/internal/auth"
	"github.com/tracklite/ticket-tracker/internal/config"
	"github.com/tracklite/ticket-tracker/internal/events"
	"github.com/tracklite/ticket-tracker/internal/observability"
	"github.com/tracklite/ticket-tracker/internal/persistence"
	"github.com/tracklite/ticket-tracker/internal/repository"
	"github.com/tracklite/ticket-tracker/internal/service"
	"github.com/tracklite/ticket-tracker/internal/web"
	"github.com/tracklite/ticket-tracker/internal/web/handlers"
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	ticketEventRepo := repository.NewTicketEventRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	auditService := service.NewAuditService(dispatcher, ticketEventRepo, logger)
	auditService.RegisterHandlers()

	notificationService := service.NewNotificationService(dispatcher, redis, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:      ticketRepo,
		ProfileRepo:     profileRepo,
		TicketEventRepo: ticketEventRepo,
		Dispatcher:      dispatcher,
	})
	accountService := service.NewAccountService(cfg.Auth, service.AccountDependencies{
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		Dispatcher:  dispatcher,
	})

	sessionStorage := persistence.NewSessionStorage(redis, "session:")
	csrfStorage := persistence.NewSessionStorage(redis, "csrf:")
	sessions := auth.NewSessionManager(cfg.Session, sessionStorage)
	authMiddleware := auth.NewMiddleware(sessions, userRepo, profileRepo)

	engine := html.New(cfg.App.ViewsDir, ".html")
	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
		Views:   engine,
	})

	metrics := observability.NewMetrics()
	web.RegisterMiddlewares(app, logger, metrics, csrfStorage, *cfg)

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	ticketsHandler := handlers.NewTicketsHandler(ticketService)
	accountsHandler := handlers.NewAccountsHandler(accountService, sessions, cfg.Auth.MinPasswordLength)

	web.RegisterRoutes(app, web.RouteConfig{
		Tickets:        ticketsHandler,
		Accounts:       accountsHandler,
		Health:         healthHandler,
		AuthMiddleware: authMiddleware,
		TicketRepo:     ticketRepo,
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
