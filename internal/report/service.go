package report

import (
	"context"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=report
type Repository interface {
	FindByTransactionID(ctx context.Context, txID string) (*Report, error)
	FlaggedTransactionIDs(ctx context.Context) (map[string]struct{}, error)
	ListReports(ctx context.Context) ([]*Report, error)
	GetReport(ctx context.Context, id int64) (*Report, error)
	DeleteReport(ctx context.Context, id int64) error

	// Watermark reports how many transactions have been scanned so far.
	// The second return is false when progress has never been recorded.
	Watermark(ctx context.Context) (int, bool, error)

	BeginMerge(ctx context.Context) (MergeTx, error)
}

// MergeTx stages report writes for one scan batch. Everything applied
// through it, including the watermark advance, commits as a single unit.
type MergeTx interface {
	FindByTransactionID(ctx context.Context, txID string) (*Report, error)
	Insert(ctx context.Context, r *Report) error
	Update(ctx context.Context, r *Report) error
	SetWatermark(ctx context.Context, watermark int) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]*Report, error) {
	return s.repo.ListReports(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Report, error) {
	return s.repo.GetReport(ctx, id)
}

// Resolve deletes the report, marking the finding as handled by an operator.
// Returns ErrNotFound when no such report exists; nothing is mutated then.
func (s *Service) Resolve(ctx context.Context, id int64) error {
	return s.repo.DeleteReport(ctx, id)
}

func (s *Service) FindByTransactionID(ctx context.Context, txID string) (*Report, error) {
	return s.repo.FindByTransactionID(ctx, txID)
}

// FlaggedTransactionIDs returns the set of transaction IDs that currently
// have a persisted report.
func (s *Service) FlaggedTransactionIDs(ctx context.Context) (map[string]struct{}, error) {
	return s.repo.FlaggedTransactionIDs(ctx)
}

func (s *Service) Watermark(ctx context.Context) (int, bool, error) {
	return s.repo.Watermark(ctx)
}

func (s *Service) BeginMerge(ctx context.Context) (MergeTx, error) {
	return s.repo.BeginMerge(ctx)
}
