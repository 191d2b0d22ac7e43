package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/mfigueiredo/ledgerhawk/cmd/tui/internal/view"
	"github.com/mfigueiredo/ledgerhawk/internal/config"
	"github.com/mfigueiredo/ledgerhawk/internal/database"
	"github.com/mfigueiredo/ledgerhawk/internal/importer"
	"github.com/mfigueiredo/ledgerhawk/internal/inference"
	"github.com/mfigueiredo/ledgerhawk/internal/report"
	reportStore "github.com/mfigueiredo/ledgerhawk/internal/report/store"
	"github.com/mfigueiredo/ledgerhawk/internal/scan"
	"github.com/mfigueiredo/ledgerhawk/internal/transaction"
	txStore "github.com/mfigueiredo/ledgerhawk/internal/transaction/store"
)

type model struct {
	txService     *transaction.Service
	reportService *report.Service
	scanService   *scan.Service

	currentView View

	scanView         view.ScanModel
	reportsView      view.ReportsModel
	transactionsView view.TransactionsModel
}

type View int

const (
	ViewMenu         View = 0
	ViewScan         View = 1
	ViewReports      View = 2
	ViewTransactions View = 3
)

func initialModel() model {
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

	var assessor inference.Assessor = inference.NewClient(
		cfg.Inference.BaseURL,
		cfg.Inference.Model,
		cfg.Inference.APIKey,
		inference.WithHTTPClient(&http.Client{Timeout: cfg.Inference.Timeout}),
	)
	if cfg.Inference.MaxRetries > 0 {
		assessor = inference.WithRetry(assessor, cfg.Inference.MaxRetries, time.Second)
	}

	txSvc := transaction.NewService(txStore.New(db))
	repSvc := report.NewService(reportStore.New(db))
	scanSvc := scan.NewService(
		txSvc,
		repSvc,
		assessor,
		scan.WithBatchSize(cfg.Scan.BatchSize),
		scan.WithSeedLedger(cfg.Scan.SeedPath, importer.NewService()),
	)

	return model{
		txService:        txSvc,
		reportService:    repSvc,
		scanService:      scanSvc,
		currentView:      ViewMenu,
		scanView:         view.NewScanModel(scanSvc),
		reportsView:      view.NewReportsModel(repSvc),
		transactionsView: view.NewTransactionsModel(txSvc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewScan
				m.scanView = view.NewScanModel(m.scanService)

				return m, m.scanView.Init()
			case "2":
				m.currentView = ViewReports
				m.reportsView = view.NewReportsModel(m.reportService)

				return m, m.reportsView.Init()
			case "3":
				m.currentView = ViewTransactions
				m.transactionsView = view.NewTransactionsModel(m.txService)

				return m, m.transactionsView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewScan:
		var newModel tea.Model
		newModel, cmd = m.scanView.Update(msg)
		m.scanView = newModel.(view.ScanModel)
	case ViewReports:
		var newModel tea.Model
		newModel, cmd = m.reportsView.Update(msg)
		m.reportsView = newModel.(view.ReportsModel)
	case ViewTransactions:
		var newModel tea.Model
		newModel, cmd = m.transactionsView.Update(msg)
		m.transactionsView = newModel.(view.TransactionsModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"LedgerHawk TUI\n\n" +
				"1. Run Anomaly Scan\n" +
				"2. Risk Reports\n" +
				"3. Browse Ledger\n\n" +
				"q. Quit",
		)
	case ViewScan:
		return m.scanView.View()
	case ViewReports:
		return m.reportsView.View()
	case ViewTransactions:
		return m.transactionsView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
