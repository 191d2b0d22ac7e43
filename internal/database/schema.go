package database

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    amount NUMERIC(14,2) NOT NULL,
    merchant TEXT NOT NULL,
    category TEXT NOT NULL,
    timestamp TIMESTAMPTZ NOT NULL,
    location TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_timestamp ON transactions(timestamp);
`

const schemaRiskReports = `
CREATE TABLE IF NOT EXISTS risk_reports (
    id BIGSERIAL PRIMARY KEY,
    transaction_id TEXT NOT NULL REFERENCES transactions(id),
    risk_level TEXT NOT NULL,
    anomaly TEXT NOT NULL,
    mitigation TEXT NOT NULL DEFAULT '',
    reasoning TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_risk_reports_transaction ON risk_reports(transaction_id);
`

const schemaScanProgress = `
CREATE TABLE IF NOT EXISTS scan_progress (
    id SMALLINT PRIMARY KEY DEFAULT 1,
    watermark INTEGER NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT scan_progress_single_row CHECK (id = 1)
);
`

// EnsureSchema creates the tables the engine needs if they do not exist yet.
// Statements are idempotent, so running it on every boot is safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range []string{schemaTransactions, schemaRiskReports, schemaScanProgress} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	return nil
}
