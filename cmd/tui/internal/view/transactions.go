package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mfigueiredo/ledgerhawk/internal/transaction"
)

const transactionsPageSize = 50

type TransactionsModel struct {
	CommonModel
	txService *transaction.Service

	table  table.Model
	txs    []*transaction.Transaction
	offset int
	total  int

	loading bool
	err     error
}

func NewTransactionsModel(txSvc *transaction.Service) TransactionsModel {
	columns := []table.Column{
		{Title: "ID", Width: 11},
		{Title: "Account", Width: 9},
		{Title: "Amount", Width: 11},
		{Title: "Merchant", Width: 20},
		{Title: "Category", Width: 14},
		{Title: "Timestamp", Width: 20},
		{Title: "Location", Width: 24},
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

	return TransactionsModel{
		txService: txSvc,
		table:     t,
	}
}

func (m TransactionsModel) Title() string { return "Ledger" }

func (m TransactionsModel) ShortHelp() string {
	return "Esc: back | n: next page | p: previous page | r: refresh"
}

func (m TransactionsModel) Init() tea.Cmd {
	return m.loadPageCmd(m.offset)
}

func (m TransactionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadPageMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.txs = msg.txs
		m.offset = msg.offset
		m.total = msg.total
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadPageCmd(m.offset)
		case "n":
			if m.offset+transactionsPageSize < m.total {
				m.loading = true
				return m, m.loadPageCmd(m.offset + transactionsPageSize)
			}

			return m, nil
		case "p":
			if m.offset > 0 {
				m.loading = true
				return m, m.loadPageCmd(max(0, m.offset-transactionsPageSize))
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m TransactionsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	header := fmt.Sprintf("Showing %d-%d of %d", m.offset+1, m.offset+len(m.txs), m.total)
	if m.total == 0 {
		header = "The ledger is empty."
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().PaddingBottom(1).Render(header),
			tableView,
		),
	)
}

func (m *TransactionsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			tx.ID,
			tx.AccountID,
			FormatAmount(tx.Amount),
			tx.Merchant,
			tx.Category,
			FormatTime(tx.Timestamp),
			tx.Location,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadPageMsg struct {
	txs    []*transaction.Transaction
	offset int
	total  int
	err    error
}

func (m TransactionsModel) loadPageCmd(offset int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.txService.Page(ctx, offset, transactionsPageSize)
		if err != nil {
			return loadPageMsg{err: err}
		}

		total, err := m.txService.Count(ctx)
		if err != nil {
			return loadPageMsg{err: err}
		}

		return loadPageMsg{txs: txs, offset: offset, total: total}
	}
}
