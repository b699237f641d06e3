package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/aquafarm/internal/config"
	"github.com/mamadbah2/aquafarm/internal/repository"
	"github.com/mamadbah2/aquafarm/internal/repository/memory"
	"github.com/mamadbah2/aquafarm/internal/repository/mongodb"
	"github.com/mamadbah2/aquafarm/internal/repository/sheets"
	"github.com/mamadbah2/aquafarm/internal/scheduler"
	"github.com/mamadbah2/aquafarm/internal/server/handlers"
	"github.com/mamadbah2/aquafarm/internal/server/router"
	alertssvc "github.com/mamadbah2/aquafarm/internal/service/alerts"
	"github.com/mamadbah2/aquafarm/internal/service/dosing"
	feedingsvc "github.com/mamadbah2/aquafarm/internal/service/feeding"
	ledgersvc "github.com/mamadbah2/aquafarm/internal/service/ledger"
	livestocksvc "github.com/mamadbah2/aquafarm/internal/service/livestock"
	reportingsvc "github.com/mamadbah2/aquafarm/internal/service/reporting"
	"github.com/mamadbah2/aquafarm/pkg/clients/webhook"
	"github.com/mamadbah2/aquafarm/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var store repository.Store
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
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
		baseLogger.Warn("MONGODB_URI not set, using in-memory store; data will not survive restarts")
		store = memory.NewStore()
	}

	var exporter sheets.Repository
	if cfg.Sheets.CredentialsPath != "" {
		exporter, err = sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		baseLogger.Info("google sheets export enabled")
	} else {
		baseLogger.Warn("sheets credentials missing, report export disabled")
	}

	var alertClient webhook.Client
	if cfg.Alerts.WebhookURL != "" {
		alertClient = webhook.NewClient(cfg.Alerts.WebhookURL)
		baseLogger.Info("low-stock webhook alerts enabled")
	} else {
		baseLogger.Warn("alert webhook url missing, low-stock notifications disabled")
	}

	ledgerSvc := ledgersvc.NewService(store, cfg.Ledger.MaxRetries, baseLogger.Named("svc.ledger"))
	livestockSvc := livestocksvc.NewService(store, cfg.Ledger.MaxRetries, baseLogger.Named("svc.livestock"))
	engine := dosing.NewEngine(cfg.Dosing.MealsPerDay)
	feedingSvc := feedingsvc.NewService(ledgerSvc, livestockSvc, engine, store, baseLogger.Named("svc.feeding"))
	alertsSvc := alertssvc.NewService(store, alertClient, cfg.Alerts.LowStockThreshold, baseLogger.Named("svc.alerts"))
	reportingSvc := reportingsvc.NewService(store, exporter, cfg.Alerts.LowStockThreshold, baseLogger.Named("svc.reporting"))

	stockHandler := handlers.NewStockHandler(store, ledgerSvc, baseLogger.Named("handlers.stock"))
	livestockHandler := handlers.NewLivestockHandler(livestockSvc, baseLogger.Named("handlers.livestock"))
	feedingHandler := handlers.NewFeedingHandler(feedingSvc, baseLogger.Named("handlers.feeding"))
	ginEngine := router.New(stockHandler, livestockHandler, feedingHandler, baseLogger.Named("router"))

	// Initialize Scheduler
	sched := scheduler.NewScheduler(*cfg, reportingSvc, alertsSvc, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      ginEngine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
