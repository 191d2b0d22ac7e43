package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mfigueiredo/ledgerhawk/internal/encoding"
	"github.com/mfigueiredo/ledgerhawk/internal/transaction"
)

const (
	colID        = "TransactionID"
	colAccount   = "AccountID"
	colAmount    = "Amount"
	colMerchant  = "Merchant"
	colCategory  = "Category"
	colTimestamp = "Timestamp"
	colLocation  = "Location"
)

const timestampLayout = "2006-01-02 15:04:05"

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Parse reads a ledger CSV into create params. The input encoding is
// detected and normalized to UTF-8 first. Rows with an unparsable amount
// or timestamp are skipped with a diagnostic; one bad row never fails the
// whole import.
func (s *Service) Parse(r io.Reader) ([]transaction.CreateParams, error) {
	decoded, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detecting encoding: %w", err)
	}

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("csv has no rows")
	}

	// Column indices, resolved from the header row.
	idx := map[string]int{}
	for i, col := range rows[0] {
		idx[strings.TrimSpace(col)] = i
	}

	for _, required := range []string{colID, colAccount, colAmount, colTimestamp} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("csv is missing the %s column", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}

		return strings.TrimSpace(row[i])
	}

	var params []transaction.CreateParams

	for n, row := range rows[1:] {
		id := field(row, colID)
		if id == "" {
			continue
		}

		amount, err := decimal.NewFromString(field(row, colAmount))
		if err != nil {
			slog.Warn("skipping ledger row with bad amount", "row", n+2, "id", id, "error", err)
			continue
		}

		ts, err := time.Parse(timestampLayout, field(row, colTimestamp))
		if err != nil {
			slog.Warn("skipping ledger row with bad timestamp", "row", n+2, "id", id, "error", err)
			continue
		}

		params = append(params, transaction.CreateParams{
			ID:        id,
			AccountID: field(row, colAccount),
			Amount:    amount,
			Merchant:  field(row, colMerchant),
			Category:  field(row, colCategory),
			Timestamp: ts.UTC(),
			Location:  field(row, colLocation),
		})
	}

	return params, nil
}
