package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/worker"
)

type stores struct {
	tickets   repository.TicketRepository
	comments  repository.CommentRepository
	users     repository.UserRepository
	reference repository.ReferenceRepository
	audit     repository.AuditRepository
}

func main() {
	var envFiles []string
	pflag.StringSliceVar(&envFiles, "env-file", nil, "env file(s) to load before reading the environment")
	pflag.Parse()

	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		pg    *persistence.Postgres
		redis *persistence.Redis
		repos stores
	)
	if cfg.InMemory() {
		logger.Warn("POSTGRES_DSN not provided; using in-memory store")
		db := memory.NewDB()
		db.SeedDemoUsers()
		for _, user := range memory.DemoUsers {
			logger.Info("demo user", zap.String("id", user.ID), zap.Any("roles", user.Roles.Slice()))
		}
		repos = stores{
			tickets:   db.Tickets(),
			comments:  db.Comments(),
			users:     db.Users(),
			reference: db.Reference(),
			audit:     db.Audit(),
		}
	} else {
		pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		redis = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()

		pool := pg.PoolHandle()
		repos = stores{
			tickets:   repository.NewTicketRepository(pool),
			comments:  repository.NewCommentRepository(pool),
			users:     repository.NewUserRepository(pool),
			reference: repository.NewReferenceRepository(pool),
			audit:     repository.NewAuditRepository(redis.Client, cfg.Redis.AuditStream, cfg.Redis.AuditStreamMaxLen),
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, repos.audit, logger.Named("audit")))

	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		TicketRepo:    repos.tickets,
		CommentRepo:   repos.comments,
		UserRepo:      repos.users,
		ReferenceRepo: repos.reference,
		Dispatcher:    dispatcher,
		Logger:        logger.Named("lifecycle"),
	})
	queries := service.NewQueryService(service.QueryDependencies{
		TicketRepo:          repos.tickets,
		CommentRepo:         repos.comments,
		UserRepo:            repos.users,
		ReferenceRepo:       repos.reference,
		Logger:              logger.Named("query"),
		ConcealInaccessible: cfg.Tickets.ConcealInaccessible,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, repos.users)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Tickets:        handlers.NewTicketsHandler(lifecycle, queries),
		Reference:      handlers.NewReferenceHandler(queries),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.Bool("in_memory", cfg.InMemory()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
