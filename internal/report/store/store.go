package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mfigueiredo/ledgerhawk/internal/report"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, transaction_id, risk_level, anomaly, mitigation, reasoning, summary, created_at, updated_at
func scanReport(s scanner) (*report.Report, error) {
	var r report.Report

	var levelStr string

	if err := s.Scan(
		&r.ID, &r.TransactionID, &levelStr, &r.Anomaly,
		&r.Mitigation, &r.Reasoning, &r.Summary,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	r.Level = report.Level(levelStr)

	return &r, nil
}

const selectReportColumns = `
	id, transaction_id, risk_level, anomaly, mitigation, reasoning, summary, created_at, updated_at
`

const findByTransactionQuery = `SELECT ` + selectReportColumns + `
	FROM risk_reports
	WHERE transaction_id = $1
	ORDER BY id ASC
	LIMIT 1`

func findByTransactionID(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, txID string,
) (*report.Report, error) {
	r, err := scanReport(q.QueryRowContext(ctx, findByTransactionQuery, txID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, report.ErrNotFound
		}

		return nil, fmt.Errorf("finding report by transaction: %w", err)
	}

	return r, nil
}

func (s *Store) FindByTransactionID(ctx context.Context, txID string) (*report.Report, error) {
	return findByTransactionID(ctx, s.db, txID)
}

func (s *Store) FlaggedTransactionIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT transaction_id FROM risk_reports")
	if err != nil {
		return nil, fmt.Errorf("listing flagged transaction ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning flagged transaction id: %w", err)
		}

		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating flagged transaction ids: %w", err)
	}

	return ids, nil
}

func (s *Store) ListReports(ctx context.Context) ([]*report.Report, error) {
	query := `SELECT ` + selectReportColumns + `
		FROM risk_reports
		ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var reports []*report.Report

	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}

		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reports: %w", err)
	}

	return reports, nil
}

func (s *Store) GetReport(ctx context.Context, id int64) (*report.Report, error) {
	query := `SELECT ` + selectReportColumns + ` FROM risk_reports WHERE id = $1`

	r, err := scanReport(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, report.ErrNotFound
		}

		return nil, fmt.Errorf("getting report: %w", err)
	}

	return r, nil
}

func (s *Store) DeleteReport(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM risk_reports WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}

	if affected == 0 {
		return report.ErrNotFound
	}

	return nil
}

func (s *Store) Watermark(ctx context.Context) (int, bool, error) {
	var watermark int

	err := s.db.QueryRowContext(ctx,
		"SELECT watermark FROM scan_progress WHERE id = 1",
	).Scan(&watermark)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("reading watermark: %w", err)
	}

	return watermark, true, nil
}

type mergeTx struct {
	tx *sql.Tx
}

func (s *Store) BeginMerge(ctx context.Context) (report.MergeTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning merge tx: %w", err)
	}

	return &mergeTx{tx: dbTx}, nil
}

func (m *mergeTx) Commit() error   { return m.tx.Commit() }
func (m *mergeTx) Rollback() error { return m.tx.Rollback() }

// FindByTransactionID reads through the merge transaction so the existence
// check sees an operator's concurrent resolve, not a stale snapshot taken
// before the merge started.
func (m *mergeTx) FindByTransactionID(ctx context.Context, txID string) (*report.Report, error) {
	return findByTransactionID(ctx, m.tx, txID)
}

func (m *mergeTx) Insert(ctx context.Context, r *report.Report) error {
	query := `
		INSERT INTO risk_reports (transaction_id, risk_level, anomaly, mitigation, reasoning, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`

	err := m.tx.QueryRowContext(ctx, query,
		r.TransactionID,
		r.Level,
		r.Anomaly,
		r.Mitigation,
		r.Reasoning,
		r.Summary,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting report for %s: %w", r.TransactionID, err)
	}

	return nil
}

func (m *mergeTx) Update(ctx context.Context, r *report.Report) error {
	query := `
		UPDATE risk_reports
		SET risk_level = $1, anomaly = $2, mitigation = $3, reasoning = $4, summary = $5, updated_at = NOW()
		WHERE id = $6
	`

	if _, err := m.tx.ExecContext(ctx, query,
		r.Level,
		r.Anomaly,
		r.Mitigation,
		r.Reasoning,
		r.Summary,
		r.ID,
	); err != nil {
		return fmt.Errorf("updating report %d: %w", r.ID, err)
	}

	return nil
}

func (m *mergeTx) SetWatermark(ctx context.Context, watermark int) error {
	query := `
		INSERT INTO scan_progress (id, watermark, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET watermark = EXCLUDED.watermark, updated_at = NOW()
	`

	if _, err := m.tx.ExecContext(ctx, query, watermark); err != nil {
		return fmt.Errorf("setting watermark: %w", err)
	}

	return nil
}
