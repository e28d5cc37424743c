package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/helpdesk-kit/tickets/internal/api/http"
	"github.com/helpdesk-kit/tickets/internal/api/http/handlers"
	"github.com/helpdesk-kit/tickets/internal/auth"
	"github.com/helpdesk-kit/tickets/internal/events"
	"github.com/helpdesk-kit/tickets/internal/observability"
	"github.com/helpdesk-kit/tickets/internal/persistence"
	"github.com/helpdesk-kit/tickets/internal/repository"
	"github.com/helpdesk-kit/tickets/internal/service"
	"github.com/helpdesk-kit/tickets/internal/session"
	"github.com/helpdesk-kit/tickets/internal/view"
	"github.com/helpdesk-kit/tickets/internal/worker"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	env, err := openRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer env.Close()
	cfg, logger := env.cfg, env.logger

	redisConn := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redisConn.Close()

	metrics := observability.NewMetrics()

	db := env.db
	userRepo := repository.NewUserRepository(db.DB)
	ticketRepo := repository.NewTicketRepository(db.DB)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: userRepo,
		Logger:   logger,
	})
	tokens := authService.TokenManager()

	policy, err := service.NewAssignmentPolicy(cfg.Tickets.AssignmentPolicy)
	if err != nil {
		return err
	}

	dispatcher := events.NewInMemoryDispatcher()
	ticketService := service.NewTicketService(cfg.Tickets, service.TicketDependencies{
		DB:         db,
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Policy:     policy,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	historyService := service.NewHistoryService(repository.NewTicketHistoryRepository(db.DB), logger)
	historyService.RegisterHandlers(dispatcher)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification, metrics)
	var publisher *events.RedisPublisher
	var redisClient *goredis.Client
	if redisConn.Enabled() {
		redisClient = redisConn.Client
		if cfg.Notification.EventsChannel != "" {
			publisher = events.NewRedisPublisher(redisClient, cfg.Notification.EventsChannel, logger)
		}
	}
	worker.StartNotificationWorker(notificationService, dispatcher, publisher)

	store, err := session.NewStore(cfg.Session, redisClient)
	if err != nil {
		return err
	}
	sessions := session.NewManager(store, tokens, userRepo, cfg.Session, logger)
	logger.Info("session store ready", zap.String("store", cfg.Session.Store))

	engine, err := view.NewEngine(cfg.App.Env == "development")
	if err != nil {
		return fmt.Errorf("init views: %w", err)
	}
	if err := engine.Load(); err != nil {
		return fmt.Errorf("load views: %w", err)
	}

	app := httptransport.NewApp(httptransport.ServerConfig{
		App:     cfg.App,
		Session: cfg.Session,
		Views:   engine,
		Logger:  logger,
		Metrics: metrics,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, db, redisConn),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, historyService),
		WebAuth:        handlers.NewWebAuthHandler(authService, sessions, logger),
		WebTickets:     handlers.NewWebTicketsHandler(ticketService, userRepo),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, userRepo, sessions),
		Metrics:        metrics.Handler(),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("fiber listen: %w", err)
	case sig := <-shutdownSignal():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("shutting down", zap.Error(ctx.Err()))
	}

	return app.Shutdown()
}

func shutdownSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
