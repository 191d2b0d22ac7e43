package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/mfigueiredo/ledgerhawk/internal/importer"
	"github.com/mfigueiredo/ledgerhawk/internal/inference"
	"github.com/mfigueiredo/ledgerhawk/internal/report"
	"github.com/mfigueiredo/ledgerhawk/internal/transaction"
)

const DefaultBatchSize = 50

// Service runs the anomaly scan: it resolves the next batch of the ledger,
// submits it to the inference provider, and merges the returned
// assessments into risk reports.
type Service struct {
	transactions *transaction.Service
	reports      *report.Service
	assessor     inference.Assessor
	importer     *importer.Service

	batchSize int
	seedPath  string

	// Scans are strictly sequential: the cursor derives from state each
	// merge mutates, and parallel invocations would just pay the provider
	// twice for the same batch.
	mu sync.Mutex
}

type ServiceOption func(*Service)

func WithBatchSize(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithSeedLedger imports the CSV at path on the first scan against an
// empty transaction store.
func WithSeedLedger(path string, imp *importer.Service) ServiceOption {
	return func(s *Service) {
		s.seedPath = path
		s.importer = imp
	}
}

func NewService(txs *transaction.Service, reports *report.Service, assessor inference.Assessor, opts ...ServiceOption) *Service {
	s := &Service{
		transactions: txs,
		reports:      reports,
		assessor:     assessor,
		batchSize:    DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ScanResult is the outcome of one scan invocation.
type ScanResult struct {
	ScanID               uuid.UUID `json:"scan_id"`
	Message              string    `json:"message"`
	ReportsCreated       int       `json:"reports_created"`
	TransactionsAnalyzed int       `json:"transactions_analyzed"`
	TotalAnalyzed        int       `json:"total_analyzed"`
	TotalTransactions    int       `json:"total_transactions"`
}

// RunScan processes the next unscanned batch of the ledger. When every
// transaction has already been analyzed it reports success with zero work
// done and the provider is not called.
func (s *Service) RunScan(ctx context.Context) (*ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scanID := uuid.New()
	log := slog.With("scan_id", scanID)

	total, err := s.transactions.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting transactions: %w", err)
	}

	if total == 0 && s.seedPath != "" {
		imported, err := s.importSeed(ctx)
		if err != nil {
			return nil, fmt.Errorf("importing seed ledger: %w", err)
		}

		log.Info("seeded empty transaction store", "path", s.seedPath, "imported", imported)

		total = imported
	}

	cur, err := s.resolveNextBatch(ctx, total)
	if err != nil {
		return nil, fmt.Errorf("resolving next batch: %w", err)
	}

	if cur.Done {
		log.Info("ledger fully analyzed", "total", cur.Total)

		return &ScanResult{
			ScanID:            scanID,
			Message:           "All transactions have been analyzed.",
			TotalAnalyzed:     cur.Total,
			TotalTransactions: cur.Total,
		}, nil
	}

	batch, err := s.transactions.Page(ctx, cur.Offset, cur.Size)
	if err != nil {
		return nil, fmt.Errorf("loading batch at offset %d: %w", cur.Offset, err)
	}

	log.Info("submitting batch", "offset", cur.Offset, "size", len(batch))

	assessments, err := s.assessor.Assess(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("assessing batch at offset %d: %w", cur.Offset, err)
	}

	applied, err := s.merge(ctx, assessments, cur.Offset+len(batch))
	if err != nil {
		return nil, fmt.Errorf("merging assessments: %w", err)
	}

	log.Info("scan batch complete",
		"offset", cur.Offset, "analyzed", len(batch), "reports", applied)

	return &ScanResult{
		ScanID:               scanID,
		Message:              fmt.Sprintf("Analyzed %d transactions, flagged %d.", len(batch), applied),
		ReportsCreated:       applied,
		TransactionsAnalyzed: len(batch),
		TotalAnalyzed:        cur.Offset + len(batch),
		TotalTransactions:    cur.Total,
	}, nil
}

// Resolve deletes a report, marking it handled by an operator.
func (s *Service) Resolve(ctx context.Context, reportID int64) error {
	return s.reports.Resolve(ctx, reportID)
}

// resolveNextBatch prefers the persisted watermark. Databases written
// before progress tracking existed have no watermark row, so progress is
// reconstructed from the reports themselves.
func (s *Service) resolveNextBatch(ctx context.Context, total int) (Cursor, error) {
	watermark, ok, err := s.reports.Watermark(ctx)
	if err != nil {
		return Cursor{}, fmt.Errorf("reading watermark: %w", err)
	}

	if ok {
		return NextFromWatermark(watermark, total, s.batchSize), nil
	}

	ids, err := s.transactions.IDs(ctx)
	if err != nil {
		return Cursor{}, fmt.Errorf("listing transaction ids: %w", err)
	}

	flagged, err := s.reports.FlaggedTransactionIDs(ctx)
	if err != nil {
		return Cursor{}, fmt.Errorf("listing flagged ids: %w", err)
	}

	return NextFromReports(ids, flagged, s.batchSize), nil
}

// merge applies the assessments with create-or-update semantics and
// advances the watermark, all in one database transaction. An assessment
// referencing an unknown transaction is skipped with a diagnostic; the
// batch is never rolled back for it.
func (s *Service) merge(ctx context.Context, assessments []report.Assessment, watermark int) (int, error) {
	mtx, err := s.reports.BeginMerge(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin merge: %w", err)
	}
	defer mtx.Rollback()

	applied := 0

	for _, a := range assessments {
		exists, err := s.transactions.Exists(ctx, a.TransactionID)
		if err != nil {
			return 0, fmt.Errorf("checking transaction %s: %w", a.TransactionID, err)
		}

		if !exists {
			slog.Warn("assessment references unknown transaction, skipping", "id", a.TransactionID)
			continue
		}

		// Existence is re-checked inside the merge transaction on every
		// scan: an operator may have resolved the previous report since
		// the batch was dispatched.
		existing, err := mtx.FindByTransactionID(ctx, a.TransactionID)
		if err != nil && !errors.Is(err, report.ErrNotFound) {
			return 0, fmt.Errorf("looking up report for %s: %w", a.TransactionID, err)
		}

		if existing != nil {
			existing.Level = a.Level
			existing.Anomaly = report.AnomalyLabel(a.Level)
			existing.Mitigation = a.Mitigation
			existing.Reasoning = a.Reasoning
			existing.Summary = a.Summary

			if err := mtx.Update(ctx, existing); err != nil {
				return 0, err
			}
		} else {
			if err := mtx.Insert(ctx, &report.Report{
				TransactionID: a.TransactionID,
				Level:         a.Level,
				Anomaly:       report.AnomalyLabel(a.Level),
				Mitigation:    a.Mitigation,
				Reasoning:     a.Reasoning,
				Summary:       a.Summary,
			}); err != nil {
				return 0, err
			}
		}

		applied++
	}

	if err := mtx.SetWatermark(ctx, watermark); err != nil {
		return 0, err
	}

	if err := mtx.Commit(); err != nil {
		return 0, fmt.Errorf("committing merge: %w", err)
	}

	return applied, nil
}

func (s *Service) importSeed(ctx context.Context) (int, error) {
	f, err := os.Open(s.seedPath)
	if err != nil {
		return 0, fmt.Errorf("opening seed ledger: %w", err)
	}
	defer f.Close()

	params, err := s.importer.Parse(f)
	if err != nil {
		return 0, fmt.Errorf("parsing seed ledger: %w", err)
	}

	return s.transactions.ImportBatch(ctx, params)
}
