package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("transaction not found")

// Transaction is one imported ledger entry. Rows are immutable once
// imported: the scan engine only ever reads them, keyed and ordered by ID.
type Transaction struct {
	ID        string
	AccountID string
	Amount    decimal.Decimal
	Merchant  string
	Category  string
	Timestamp time.Time
	Location  string
	CreatedAt time.Time
}
