package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/api"
	"finboard/internal/cli"
	"finboard/internal/core"
	"finboard/internal/extract"
	apphttp "finboard/internal/http"
	"finboard/internal/services"
	"finboard/internal/state"
	"finboard/internal/upload"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting finboard")

	cfg := cli.LoadAndValidateConfig(logger)

	apiClient := api.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.APITimeout)
	dashboard := services.NewDashboardService(apiClient)

	store := state.New(core.Preferences{
		Currency: cfg.DefaultCurrency,
		Language: cfg.DefaultLanguage,
	})

	// Backend preferences override the configured defaults when reachable.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if prefs, err := dashboard.GetPreferences(startupCtx); err != nil {
		logger.Warn("Could not load preferences, using defaults", "error", err)
	} else {
		store.Dispatch(state.SetCurrency{Currency: prefs.Currency})
		store.Dispatch(state.SetLanguage{Language: prefs.Language})
	}

	var categories []core.Category
	if cfg.ExtractBackend == "gemini" {
		var err error
		categories, err = dashboard.GetCategories(startupCtx, true)
		if err != nil {
			logger.Warn("Could not load categories for extraction", "error", err)
		}
	}
	startupCancel()

	extractor, err := extract.New(context.Background(), extract.Config{
		Type:        extract.BackendType(cfg.ExtractBackend),
		APIClient:   apiClient,
		GeminiModel: cfg.GeminiModel,
		Categories:  categories,
	})
	if err != nil {
		logger.Error("Failed to initialize extractor", "error", err, "backend", cfg.ExtractBackend)
		os.Exit(1)
	}

	uploads := upload.NewProcessor(extractor,
		func(ctx context.Context, tx core.Transaction) error {
			_, _, err := dashboard.AddExpense(ctx, tx)
			return err
		},
		func(ctx context.Context, category string, amount float64) error {
			_, err := dashboard.BumpBudgetSpent(ctx, category, amount)
			return err
		})

	// Offline capture is optional: without AMQP, expenses go straight to
	// the backend only.
	var capture *services.CaptureService
	if cfg.AMQPURL != "" {
		repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		defer repo.Close()

		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, capture notifications disabled", "error", err)
			capture = services.NewCaptureService(repo, nil)
		} else {
			defer amqpClient.Close()
			capture = services.NewCaptureService(repo, amqpClient)
		}
		logger.Info("Offline capture enabled", "db_path", cfg.SQLiteDBPath)
	} else {
		logger.Info("Offline capture disabled - no AMQP_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Dashboard: dashboard,
		Capture:   capture,
		Uploads:   uploads,
		State:     store,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting finboard server", "port", cfg.Port, "api_base_url", cfg.APIBaseURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
