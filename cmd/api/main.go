package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mfigueiredo/ledgerhawk/internal/config"
	"github.com/mfigueiredo/ledgerhawk/internal/database"
	ledgerHttp "github.com/mfigueiredo/ledgerhawk/internal/http"
	importHandler "github.com/mfigueiredo/ledgerhawk/internal/http/importcsv"
	reportHandler "github.com/mfigueiredo/ledgerhawk/internal/http/report"
	scanHandler "github.com/mfigueiredo/ledgerhawk/internal/http/scan"
	txHandler "github.com/mfigueiredo/ledgerhawk/internal/http/transaction"
	"github.com/mfigueiredo/ledgerhawk/internal/importer"
	"github.com/mfigueiredo/ledgerhawk/internal/inference"
	"github.com/mfigueiredo/ledgerhawk/internal/report"
	reportStore "github.com/mfigueiredo/ledgerhawk/internal/report/store"
	"github.com/mfigueiredo/ledgerhawk/internal/scan"
	"github.com/mfigueiredo/ledgerhawk/internal/transaction"
	txStore "github.com/mfigueiredo/ledgerhawk/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.EnsureSchema(context.Background(), db); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	var assessor inference.Assessor = inference.NewClient(
		cfg.Inference.BaseURL,
		cfg.Inference.Model,
		cfg.Inference.APIKey,
		inference.WithHTTPClient(&http.Client{Timeout: cfg.Inference.Timeout}),
	)
	if cfg.Inference.MaxRetries > 0 {
		assessor = inference.WithRetry(assessor, cfg.Inference.MaxRetries, time.Second)
	}

	var (
		transactionService = transaction.NewService(txStore.New(db))
		reportService      = report.NewService(reportStore.New(db))
		importService      = importer.NewService()
		scanService        = scan.NewService(
			transactionService,
			reportService,
			assessor,
			scan.WithBatchSize(cfg.Scan.BatchSize),
			scan.WithSeedLedger(cfg.Scan.SeedPath, importService),
		)
	)

	var (
		scanH        = scanHandler.NewHandler(scanService)
		reportH      = reportHandler.NewHandler(reportService)
		transactionH = txHandler.NewHandler(transactionService)
		importH      = importHandler.NewHandler(importService, transactionService)
	)

	router := ledgerHttp.New(scanH, reportH, transactionH, importH, ledgerHttp.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AuthSecret:     cfg.Server.AuthSecret,
	})

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "addr", addr)

	// A scan request stays open for the full provider round trip, so the
	// write timeout must outlast the inference timeout.
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Inference.Timeout + cfg.Server.Timeout,
	}

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
