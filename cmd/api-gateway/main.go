package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-realtime-api/api/swagger"
	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/handler"
	"github.com/noah-isme/sma-realtime-api/internal/outbox"
	"github.com/noah-isme/sma-realtime-api/internal/realtime"
	"github.com/noah-isme/sma-realtime-api/internal/repository"
	"github.com/noah-isme/sma-realtime-api/internal/server"
	"github.com/noah-isme/sma-realtime-api/internal/service"
	"github.com/noah-isme/sma-realtime-api/internal/tasks"
	"github.com/noah-isme/sma-realtime-api/pkg/cache"
	"github.com/noah-isme/sma-realtime-api/pkg/config"
	"github.com/noah-isme/sma-realtime-api/pkg/database"
	"github.com/noah-isme/sma-realtime-api/pkg/logger"
)

// @title SMA Realtime API
// @version 1.0.0
// @description Role-scoped school API with websocket notifications
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	hub := realtime.NewHub(metrics, logr.Named("realtime"))
	ready := map[string]server.ReadinessCheck{"postgres": db.PingContext}

	var gw realtime.Gateway = hub
	if cfg.Realtime.RelayEnabled {
		rdb, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		ready["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		gw = realtime.NewRedisRelay(hub, rdb, cfg.Realtime.RelayChannel, logr.Named("relay"))
	}
	if err := gw.Start(ctx); err != nil {
		return fmt.Errorf("start realtime gateway: %w", err)
	}

	txManager := repository.NewTxManager(db, outbox.NewDispatcher(gw, logr.Named("outbox")), logr)

	relations := repository.NewRelationRepository(db)
	users := repository.NewUserRepository(db)
	students := repository.NewStudentRepository(db)
	events := repository.NewEventRepository(db)
	announcements := repository.NewAnnouncementRepository(db)

	resolver := authz.NewResolver(relations, nil, logr.Named("authz"))
	guard := authz.NewGuard(resolver, metrics, logr.Named("guard"))
	validate := validator.New()

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	handlers := server.Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		Students: handler.NewStudentHandler(service.NewStudentService(students, resolver, logr)),
		Classes:  handler.NewClassHandler(service.NewClassService(repository.NewClassRepository(db), resolver)),
		Assignments: handler.NewAssignmentHandler(
			service.NewAssignmentService(repository.NewAssignmentRepository(db), resolver, validate, logr),
		),
		Attendance: handler.NewAttendanceHandler(
			service.NewAttendanceService(repository.NewAttendanceRepository(db), students, relations, txManager, resolver, validate, logr),
		),
		Grades: handler.NewGradeHandler(
			service.NewGradeService(repository.NewGradeRepository(db), students, resolver, validate, logr),
		),
		Events: handler.NewEventHandler(
			service.NewEventService(events, txManager, resolver, validate, logr),
		),
		Announcements: handler.NewAnnouncementHandler(
			service.NewAnnouncementService(announcements, txManager, resolver, validate, logr),
		),
		Realtime: realtime.NewHandler(hub, authSvc, resolver, realtime.HandlerConfig{
			HandshakeTimeout: cfg.Realtime.HandshakeTimeout,
			WriteTimeout:     cfg.Realtime.WriteTimeout,
			SendBuffer:       cfg.Realtime.SendBuffer,
			OriginPatterns:   cfg.Realtime.AllowedOrigins,
		}, logr.Named("ws")),
	}

	var runner *tasks.Runner
	if cfg.Tasks.Enabled {
		runner = tasks.NewRunner(txManager, events, announcements, tasks.Config{
			Interval:     cfg.Tasks.Interval,
			TickTimeout:  cfg.Tasks.TickTimeout,
			ArchiveAfter: cfg.Tasks.AnnouncementArchiveAfter,
			DeleteAfter:  cfg.Tasks.AnnouncementDeleteAfter,
		}, metrics, logr.Named("tasks"))
		if err := runner.Start(ctx); err != nil {
			return fmt.Errorf("start scheduled tasks: %w", err)
		}
	}

	router := server.NewRouter(server.Options{
		Config:   cfg,
		Logger:   logr,
		Tokens:   authSvc,
		Guard:    guard,
		Metrics:  metrics,
		Ready:    ready,
		Handlers: handlers,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logr.Info("shutting down")
	if runner != nil {
		runner.Stop()
	}
	if err := gw.Close(); err != nil {
		logr.Warn("close realtime gateway", zap.Error(err))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
