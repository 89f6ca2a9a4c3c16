package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/scantrak/internal/config"
	"github.com/mamadbah2/scantrak/internal/identity"
	"github.com/mamadbah2/scantrak/internal/repository/memory"
	"github.com/mamadbah2/scantrak/internal/repository/mongodb"
	"github.com/mamadbah2/scantrak/internal/repository/sheets"
	"github.com/mamadbah2/scantrak/internal/scheduler"
	"github.com/mamadbah2/scantrak/internal/server/handlers"
	"github.com/mamadbah2/scantrak/internal/server/router"
	reportingsvc "github.com/mamadbah2/scantrak/internal/service/reporting"
	sessionsvc "github.com/mamadbah2/scantrak/internal/service/session"
	"github.com/mamadbah2/scantrak/pkg/clients/notify"
	"github.com/mamadbah2/scantrak/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	if err := cfg.ValidateServer(); err != nil {
		baseLogger.Fatal("invalid configuration", zap.Error(err))
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	var store sheets.Store
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB, cfg.App.Path, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		store = mongoRepo
	} else {
		baseLogger.Warn("MONGODB_URI not set, records are kept in memory only")
		store = memory.NewStore()
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		mirror := sheets.NewMirror(store, sheetsRepo, cfg.App.Path, loc, baseLogger.Named("repo.mirror"))
		if err := mirror.EnsureHeader(context.Background()); err != nil {
			baseLogger.Warn("failed to prepare sheet header", zap.Error(err))
		}
		store = mirror
		baseLogger.Info("sheets mirror enabled", zap.String("tab", cfg.App.Path))
	}

	issuer, err := identity.NewIssuer(cfg.Session.Secret, cfg.App.Path, cfg.Session.TokenTTL)
	if err != nil {
		baseLogger.Fatal("failed to init identity issuer", zap.Error(err))
	}

	registry := sessionsvc.NewRegistry(issuer, store, cfg.Session.IdleTTL, cfg.Session.NoticeTTL, baseLogger.Named("svc.session"))
	defer registry.CloseAll()

	reportingSvc := reportingsvc.NewService(store, loc, baseLogger.Named("svc.reporting"))

	var notifier notify.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookClient(cfg.Notify.WebhookURL)
	}

	sched := scheduler.NewScheduler(registry, reportingSvc, notifier, cfg.Reporting.CronSchedule, cfg.App.Path, loc, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	engine := router.New(router.Handlers{
		Sessions: handlers.NewSessionHandler(registry, baseLogger.Named("handlers.session")),
		Workflow: handlers.NewWorkflowHandler(baseLogger.Named("handlers.workflow")),
		Admin:    handlers.NewAdminHandler(15*time.Second, baseLogger.Named("handlers.admin")),
	}, baseLogger.Named("router"))

	// No write timeout: the admin stream stays open for as long as the client listens.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("app_path", cfg.App.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	// Closing sessions ends open admin streams so Shutdown does not wait on them.
	registry.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
