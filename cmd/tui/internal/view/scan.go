package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mfigueiredo/ledgerhawk/internal/scan"
)

type scanState int

const (
	scanStateIdle scanState = iota
	scanStateRunning
	scanStateResult
)

type ScanModel struct {
	CommonModel
	scanService *scan.Service

	state   scanState
	spinner spinner.Model
	result  *scan.ScanResult
	err     error
}

func NewScanModel(svc *scan.Service) ScanModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ScanModel{
		scanService: svc,
		spinner:     s,
	}
}

func (m ScanModel) Title() string { return "Run Anomaly Scan" }

func (m ScanModel) ShortHelp() string {
	switch m.state {
	case scanStateRunning:
		return "Scanning..."
	case scanStateResult:
		return "Enter: scan next batch | Esc: back"
	}
	return "Enter: start scan | Esc: back"
}

func (m ScanModel) Init() tea.Cmd {
	return nil
}

func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case scanResultMsg:
		m.state = scanStateResult
		m.result = msg.result
		m.err = msg.err

		return m, nil

	case tea.KeyMsg:
		if m.state == scanStateRunning {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyEsc:
			return m, Back
		case tea.KeyEnter:
			m.state = scanStateRunning
			m.err = nil

			return m, tea.Batch(m.spinner.Tick, m.runScanCmd())
		}

		return m, nil
	}

	if m.state == scanStateRunning {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m ScanModel) View() string {
	switch m.state {
	case scanStateRunning:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Submitting batch to the inference provider...", m.spinner.View()),
		)

	case scanStateResult:
		return m.viewResult()
	}

	return lipgloss.NewStyle().Padding(1).Render(
		"Scan the next unanalyzed batch of the ledger.\n\nPress Enter to start.",
	)
}

func (m ScanModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(
			lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("Error: %v", m.err)),
		)
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Scan Complete")

	body := fmt.Sprintf(
		"%s\n\nAnalyzed this run: %d\nReports written:   %d\nProgress:          %d / %d",
		m.result.Message,
		m.result.TransactionsAnalyzed,
		m.result.ReportsCreated,
		m.result.TotalAnalyzed,
		m.result.TotalTransactions,
	)

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", body),
	)
}

type scanResultMsg struct {
	result *scan.ScanResult
	err    error
}

const scanTimeout = 3 * time.Minute

func (m ScanModel) runScanCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
		defer cancel()

		result, err := m.scanService.RunScan(ctx)
		return scanResultMsg{result: result, err: err}
	}
}
