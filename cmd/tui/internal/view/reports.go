package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mfigueiredo/ledgerhawk/internal/report"
)

type reportsState int

const (
	reportsStateBrowse reportsState = iota
	reportsStateConfirm
)

type ReportsModel struct {
	CommonModel
	reportService *report.Service

	state   reportsState
	table   table.Model
	reports []*report.Report
	form    *huh.Form

	confirmResolve bool

	loading bool
	err     error
	status  string
}

func NewReportsModel(svc *report.Service) ReportsModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Transaction", Width: 12},
		{Title: "Risk", Width: 8},
		{Title: "Anomaly", Width: 22},
		{Title: "Summary", Width: 50},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ReportsModel{
		reportService: svc,
		table:         t,
	}
}

func (m ReportsModel) Title() string { return "Risk Reports" }

func (m ReportsModel) ShortHelp() string {
	if m.state == reportsStateConfirm {
		return "Confirm | Esc: cancel"
	}
	return "Esc: back | x: resolve | r: refresh"
}

func (m ReportsModel) Init() tea.Cmd {
	return m.loadReportsCmd()
}

func (m ReportsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadReportsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.reports = msg.reports
		m.refreshTable()

		return m, nil

	case resolveMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error resolving: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Report %d resolved", msg.id)
		}

		m.state = reportsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadReportsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case reportsStateBrowse:
		return m.updateBrowse(msg)
	case reportsStateConfirm:
		return m.updateConfirm(msg)
	}

	return m, nil
}

func (m ReportsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadReportsCmd()
		case "x":
			return m.enterConfirmMode()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ReportsModel) enterConfirmMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.reports) {
		return m, nil
	}

	rep := m.reports[idx]
	m.confirmResolve = false

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("resolve").
				Title(fmt.Sprintf("Resolve report %d for %s?", rep.ID, rep.TransactionID)).
				Description("The report is deleted; the transaction stays in the ledger.").
				Value(&m.confirmResolve),
		),
	).WithWidth(55).WithShowHelp(false)

	m.state = reportsStateConfirm
	m.table.Blur()

	return m, m.form.Init()
}

func (m ReportsModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = reportsStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !m.confirmResolve {
		m.state = reportsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	return m, m.resolveCmd()
}

func (m ReportsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading reports...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	if len(m.reports) == 0 {
		return lipgloss.NewStyle().Padding(2).Render("No open risk reports.")
	}

	content := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	if m.state == reportsStateConfirm && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(58).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ReportsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.reports))
	for _, rep := range m.reports {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", rep.ID),
			rep.TransactionID,
			string(rep.Level),
			rep.Anomaly,
			rep.Summary,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadReportsMsg struct {
	reports []*report.Report
	err     error
}

func (m ReportsModel) loadReportsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		reports, err := m.reportService.List(ctx)
		return loadReportsMsg{reports: reports, err: err}
	}
}

type resolveMsg struct {
	id  int64
	err error
}

func (m ReportsModel) resolveCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.reports) {
		return nil
	}

	id := m.reports[idx].ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return resolveMsg{id: id, err: m.reportService.Resolve(ctx, id)}
	}
}
