package scan_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mfigueiredo/ledgerhawk/internal/inference"
	"github.com/mfigueiredo/ledgerhawk/internal/report"
	"github.com/mfigueiredo/ledgerhawk/internal/scan"
	"github.com/mfigueiredo/ledgerhawk/internal/transaction"
)

type stubAssessor struct {
	assessFunc func(ctx context.Context, txs []*transaction.Transaction) ([]report.Assessment, error)
	calls      int
}

func (s *stubAssessor) Assess(ctx context.Context, txs []*transaction.Transaction) ([]report.Assessment, error) {
	s.calls++
	return s.assessFunc(ctx, txs)
}

func makeTransactions(offset, n int) []*transaction.Transaction {
	txs := make([]*transaction.Transaction, n)
	for i := range txs {
		txs[i] = &transaction.Transaction{ID: fmt.Sprintf("TXN%06d", offset+i+1)}
	}

	return txs
}

func TestService_RunScan_FirstScan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txRepo := transaction.NewMockRepository(ctrl)
	repRepo := report.NewMockRepository(ctrl)
	mergeTx := report.NewMockMergeTx(ctrl)

	txRepo.EXPECT().Count(gomock.Any()).Return(120, nil)
	repRepo.EXPECT().Watermark(gomock.Any()).Return(0, false, nil)
	txRepo.EXPECT().ListIDs(gomock.Any()).Return(makeIDs(120), nil)
	repRepo.EXPECT().FlaggedTransactionIDs(gomock.Any()).Return(map[string]struct{}{}, nil)
	txRepo.EXPECT().Page(gomock.Any(), 0, 50).Return(makeTransactions(0, 50), nil)

	suspicious := []report.Assessment{
		{TransactionID: "TXN000007", Level: report.LevelHigh, Summary: "huge amount"},
		{TransactionID: "TXN000021", Level: report.LevelMedium, Summary: "odd location"},
		{TransactionID: "TXN000033", Level: report.LevelHigh, Summary: "card testing"},
	}

	assessor := &stubAssessor{assessFunc: func(_ context.Context, txs []*transaction.Transaction) ([]report.Assessment, error) {
		require.Len(t, txs, 50)
		return suspicious, nil
	}}

	repRepo.EXPECT().BeginMerge(gomock.Any()).Return(mergeTx, nil)

	for _, a := range suspicious {
		txRepo.EXPECT().Exists(gomock.Any(), a.TransactionID).Return(true, nil)
		mergeTx.EXPECT().FindByTransactionID(gomock.Any(), a.TransactionID).Return(nil, report.ErrNotFound)
		mergeTx.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *report.Report) error {
			assert.Equal(t, report.AnomalyLabel(r.Level), r.Anomaly)
			return nil
		})
	}

	mergeTx.EXPECT().SetWatermark(gomock.Any(), 50).Return(nil)
	mergeTx.EXPECT().Commit().Return(nil)
	mergeTx.EXPECT().Rollback().Return(errors.New("already committed"))

	svc := scan.NewService(
		transaction.NewService(txRepo),
		report.NewService(repRepo),
		assessor,
	)

	result, err := svc.RunScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.ReportsCreated)
	assert.Equal(t, 50, result.TransactionsAnalyzed)
	assert.Equal(t, 50, result.TotalAnalyzed)
	assert.Equal(t, 120, result.TotalTransactions)
	assert.NotEmpty(t, result.ScanID)
}

func TestService_RunScan_ResumesFromWatermark(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txRepo := transaction.NewMockRepository(ctrl)
	repRepo := report.NewMockRepository(ctrl)
	mergeTx := report.NewMockMergeTx(ctrl)

	txRepo.EXPECT().Count(gomock.Any()).Return(120, nil)
	repRepo.EXPECT().Watermark(gomock.Any()).Return(50, true, nil)
	txRepo.EXPECT().Page(gomock.Any(), 50, 50).Return(makeTransactions(50, 50), nil)

	// A batch with zero anomalies still advances the watermark, so the
	// next scan moves on instead of re-submitting these transactions.
	assessor := &stubAssessor{assessFunc: func(context.Context, []*transaction.Transaction) ([]report.Assessment, error) {
		return nil, nil
	}}

	repRepo.EXPECT().BeginMerge(gomock.Any()).Return(mergeTx, nil)
	mergeTx.EXPECT().SetWatermark(gomock.Any(), 100).Return(nil)
	mergeTx.EXPECT().Commit().Return(nil)
	mergeTx.EXPECT().Rollback().Return(errors.New("already committed"))

	svc := scan.NewService(transaction.NewService(txRepo), report.NewService(repRepo), assessor)

	result, err := svc.RunScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.ReportsCreated)
	assert.Equal(t, 50, result.TransactionsAnalyzed)
	assert.Equal(t, 100, result.TotalAnalyzed)
}

func TestService_RunScan_AlreadyDone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txRepo := transaction.NewMockRepository(ctrl)
	repRepo := report.NewMockRepository(ctrl)

	txRepo.EXPECT().Count(gomock.Any()).Return(120, nil)
	repRepo.EXPECT().Watermark(gomock.Any()).Return(120, true, nil)

	assessor := &stubAssessor{assessFunc: func(context.Context, []*transaction.Transaction) ([]report.Assessment, error) {
		return nil, nil
	}}

	svc := scan.NewService(transaction.NewService(txRepo), report.NewService(repRepo), assessor)

	result, err := svc.RunScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.TransactionsAnalyzed)
	assert.Equal(t, 120, result.TotalAnalyzed)
	assert.Equal(t, 120, result.TotalTransactions)
	assert.Equal(t, 0, assessor.calls, "provider must not be called when the scan is complete")
}

func TestService_RunScan_MalformedResponseAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txRepo := transaction.NewMockRepository(ctrl)
	repRepo := report.NewMockRepository(ctrl)

	txRepo.EXPECT().Count(gomock.Any()).Return(120, nil)
	repRepo.EXPECT().Watermark(gomock.Any()).Return(0, true, nil)
	txRepo.EXPECT().Page(gomock.Any(), 0, 50).Return(makeTransactions(0, 50), nil)

	assessor := &stubAssessor{assessFunc: func(context.Context, []*transaction.Transaction) ([]report.Assessment, error) {
		return nil, &inference.MalformedResponseError{Raw: "not json"}
	}}

	// No BeginMerge expectation: the report store must stay untouched.
	svc := scan.NewService(transaction.NewService(txRepo), report.NewService(repRepo), assessor)

	_, err := svc.RunScan(context.Background())
	require.Error(t, err)

	var malformed *inference.MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
}

func TestService_RunScan_RescanUpdatesInPlace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txRepo := transaction.NewMockRepository(ctrl)
	repRepo := report.NewMockRepository(ctrl)
	mergeTx := report.NewMockMergeTx(ctrl)

	txRepo.EXPECT().Count(gomock.Any()).Return(50, nil)
	repRepo.EXPECT().Watermark(gomock.Any()).Return(0, true, nil)
	txRepo.EXPECT().Page(gomock.Any(), 0, 50).Return(makeTransactions(0, 50), nil)

	assessment := report.Assessment{
		TransactionID: "TXN000007",
		Level:         report.LevelHigh,
		Mitigation:    "Freeze the card",
	}

	assessor := &stubAssessor{assessFunc: func(context.Context, []*transaction.Transaction) ([]report.Assessment, error) {
		return []report.Assessment{assessment}, nil
	}}

	existing := &report.Report{
		ID:            41,
		TransactionID: "TXN000007",
		Level:         report.LevelMedium,
		Anomaly:       report.AnomalyLabel(report.LevelMedium),
	}

	repRepo.EXPECT().BeginMerge(gomock.Any()).Return(mergeTx, nil)
	txRepo.EXPECT().Exists(gomock.Any(), "TXN000007").Return(true, nil)
	mergeTx.EXPECT().FindByTransactionID(gomock.Any(), "TXN000007").Return(existing, nil)
	mergeTx.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *report.Report) error {
		assert.Equal(t, int64(41), r.ID, "update must preserve the report id")
		assert.Equal(t, report.LevelHigh, r.Level)
		assert.Equal(t, "High risk anomaly", r.Anomaly)
		assert.Equal(t, "Freeze the card", r.Mitigation)
		return nil
	})
	mergeTx.EXPECT().SetWatermark(gomock.Any(), 50).Return(nil)
	mergeTx.EXPECT().Commit().Return(nil)
	mergeTx.EXPECT().Rollback().Return(errors.New("already committed"))

	svc := scan.NewService(transaction.NewService(txRepo), report.NewService(repRepo), assessor)

	result, err := svc.RunScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReportsCreated)
}

func TestService_RunScan_SkipsUnknownTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txRepo := transaction.NewMockRepository(ctrl)
	repRepo := report.NewMockRepository(ctrl)
	mergeTx := report.NewMockMergeTx(ctrl)

	txRepo.EXPECT().Count(gomock.Any()).Return(50, nil)
	repRepo.EXPECT().Watermark(gomock.Any()).Return(0, true, nil)
	txRepo.EXPECT().Page(gomock.Any(), 0, 50).Return(makeTransactions(0, 50), nil)

	assessor := &stubAssessor{assessFunc: func(context.Context, []*transaction.Transaction) ([]report.Assessment, error) {
		return []report.Assessment{
			{TransactionID: "TXN999999", Level: report.LevelHigh},
			{TransactionID: "TXN000002", Level: report.LevelLow},
		}, nil
	}}

	repRepo.EXPECT().BeginMerge(gomock.Any()).Return(mergeTx, nil)
	txRepo.EXPECT().Exists(gomock.Any(), "TXN999999").Return(false, nil)
	txRepo.EXPECT().Exists(gomock.Any(), "TXN000002").Return(true, nil)
	mergeTx.EXPECT().FindByTransactionID(gomock.Any(), "TXN000002").Return(nil, report.ErrNotFound)
	mergeTx.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	mergeTx.EXPECT().SetWatermark(gomock.Any(), 50).Return(nil)
	mergeTx.EXPECT().Commit().Return(nil)
	mergeTx.EXPECT().Rollback().Return(errors.New("already committed"))

	svc := scan.NewService(transaction.NewService(txRepo), report.NewService(repRepo), assessor)

	result, err := svc.RunScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReportsCreated, "the unknown transaction is skipped, not fatal")
}

func TestService_RunScan_CommitFailureIsWholesale(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txRepo := transaction.NewMockRepository(ctrl)
	repRepo := report.NewMockRepository(ctrl)
	mergeTx := report.NewMockMergeTx(ctrl)

	txRepo.EXPECT().Count(gomock.Any()).Return(50, nil)
	repRepo.EXPECT().Watermark(gomock.Any()).Return(0, true, nil)
	txRepo.EXPECT().Page(gomock.Any(), 0, 50).Return(makeTransactions(0, 50), nil)

	assessor := &stubAssessor{assessFunc: func(context.Context, []*transaction.Transaction) ([]report.Assessment, error) {
		return []report.Assessment{{TransactionID: "TXN000001", Level: report.LevelHigh}}, nil
	}}

	repRepo.EXPECT().BeginMerge(gomock.Any()).Return(mergeTx, nil)
	txRepo.EXPECT().Exists(gomock.Any(), "TXN000001").Return(true, nil)
	mergeTx.EXPECT().FindByTransactionID(gomock.Any(), "TXN000001").Return(nil, report.ErrNotFound)
	mergeTx.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	mergeTx.EXPECT().SetWatermark(gomock.Any(), 50).Return(nil)
	mergeTx.EXPECT().Commit().Return(errors.New("connection reset"))
	mergeTx.EXPECT().Rollback().Return(nil)

	svc := scan.NewService(transaction.NewService(txRepo), report.NewService(repRepo), assessor)

	_, err := svc.RunScan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committing merge")
}

func TestService_Resolve_UnknownID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txRepo := transaction.NewMockRepository(ctrl)
	repRepo := report.NewMockRepository(ctrl)

	repRepo.EXPECT().DeleteReport(gomock.Any(), int64(999999)).Return(report.ErrNotFound)

	assessor := &stubAssessor{assessFunc: func(context.Context, []*transaction.Transaction) ([]report.Assessment, error) {
		return nil, nil
	}}

	svc := scan.NewService(transaction.NewService(txRepo), report.NewService(repRepo), assessor)

	err := svc.Resolve(context.Background(), 999999)
	assert.ErrorIs(t, err, report.ErrNotFound)
}
