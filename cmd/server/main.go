package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fournil/internal/config"
	"github.com/mamadbah2/fournil/internal/repository/mongodb"
	"github.com/mamadbah2/fournil/internal/repository/sheets"
	"github.com/mamadbah2/fournil/internal/scheduler"
	"github.com/mamadbah2/fournil/internal/server/handlers"
	"github.com/mamadbah2/fournil/internal/server/router"
	batchsvc "github.com/mamadbah2/fournil/internal/service/batches"
	ordersvc "github.com/mamadbah2/fournil/internal/service/orders"
	productionsvc "github.com/mamadbah2/fournil/internal/service/production"
	progresssvc "github.com/mamadbah2/fournil/internal/service/progress"
	reportingsvc "github.com/mamadbah2/fournil/internal/service/reporting"
	stepsvc "github.com/mamadbah2/fournil/internal/service/steps"
	whatsappsvc "github.com/mamadbah2/fournil/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/fournil/pkg/clients/whatsapp"
	"github.com/mamadbah2/fournil/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
	if err != nil {
		baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
	}

	mongoRepo, err := mongodb.NewRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	orderSvc := ordersvc.NewService(mongoRepo, baseLogger.Named("svc.orders"))
	stepSvc := stepsvc.NewService(mongoRepo, baseLogger.Named("svc.steps"))
	batchSvc := batchsvc.NewService(mongoRepo, stepSvc, baseLogger.Named("svc.batches"))
	progressSvc := progresssvc.NewService(orderSvc, stepSvc, batchSvc, baseLogger.Named("svc.progress"))

	whatsClient := whatsappclient.NewClient(cfg.WhatsApp)

	engine := productionsvc.NewService(
		orderSvc, stepSvc, batchSvc, progressSvc,
		sheetsRepo, sheetsRepo, nil,
		cfg.WhatsApp.SupervisorID,
		baseLogger.Named("svc.production"))

	messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, engine, baseLogger.Named("svc.whatsapp"))
	engine.SetNotifier(messagingSvc)

	reportingSvc := reportingsvc.NewService(engine, mongoRepo, sheetsRepo, baseLogger.Named("svc.reporting"))

	prodHandler := handlers.NewProductionHandler(engine, baseLogger.Named("handlers.production"))
	webhookHandler := handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
	ginEngine := router.New(prodHandler, webhookHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, reportingSvc, messagingSvc, baseLogger.Named("scheduler"))
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
