package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	Count(ctx context.Context) (int, error)
	ListIDs(ctx context.Context) ([]string, error)
	Page(ctx context.Context, offset, limit int) ([]*Transaction, error)
	Exists(ctx context.Context, id string) (bool, error)
	GetTransaction(ctx context.Context, id string) (*Transaction, error)

	CreateTransactions(ctx context.Context, txs []*Transaction) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	ID        string
	AccountID string
	Amount    decimal.Decimal
	Merchant  string
	Category  string
	Timestamp time.Time
	Location  string
}

// Count returns the number of transactions in the ledger.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// IDs returns every transaction identifier in ascending ID order. This is
// the total order the scan engine batches over.
func (s *Service) IDs(ctx context.Context) ([]string, error) {
	return s.repo.ListIDs(ctx)
}

// Page returns a contiguous slice of transactions in ID order.
func (s *Service) Page(ctx context.Context, offset, limit int) ([]*Transaction, error) {
	if offset < 0 || limit <= 0 {
		return nil, fmt.Errorf("invalid page offset=%d limit=%d", offset, limit)
	}

	return s.repo.Page(ctx, offset, limit)
}

func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// ImportBatch inserts ledger rows, skipping IDs that already exist so a
// re-import of the same file is a no-op. Returns the number of rows inserted.
func (s *Service) ImportBatch(ctx context.Context, params []CreateParams) (int, error) {
	if len(params) == 0 {
		return 0, nil
	}

	txs := make([]*Transaction, len(params))
	for i, p := range params {
		txs[i] = &Transaction{
			ID:        p.ID,
			AccountID: p.AccountID,
			Amount:    p.Amount,
			Merchant:  p.Merchant,
			Category:  p.Category,
			Timestamp: p.Timestamp,
			Location:  p.Location,
		}
	}

	inserted, err := s.repo.CreateTransactions(ctx, txs)
	if err != nil {
		return 0, fmt.Errorf("create transactions: %w", err)
	}

	return inserted, nil
}
