package report_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mfigueiredo/ledgerhawk/internal/report"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   report.Level
		wantOK bool
	}{
		{"Low", report.LevelLow, true},
		{"low", report.LevelLow, true},
		{"MEDIUM", report.LevelMedium, true},
		{" high ", report.LevelHigh, true},
		{"HiGh", report.LevelHigh, true},
		{"critical", "", false},
		{"", "", false},
		{"none", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := report.ParseLevel(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnomalyLabel(t *testing.T) {
	assert.Equal(t, "High risk anomaly", report.AnomalyLabel(report.LevelHigh))
	assert.Equal(t, "Medium risk anomaly", report.AnomalyLabel(report.LevelMedium))
	assert.Equal(t, "Low risk anomaly", report.AnomalyLabel(report.LevelLow))
}

func TestService_Resolve(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := report.NewMockRepository(ctrl)
		repo.EXPECT().DeleteReport(gomock.Any(), int64(7)).Return(nil)

		svc := report.NewService(repo)
		require.NoError(t, svc.Resolve(context.Background(), 7))
	})

	t.Run("NotFound", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := report.NewMockRepository(ctrl)
		repo.EXPECT().DeleteReport(gomock.Any(), int64(999999)).Return(report.ErrNotFound)

		svc := report.NewService(repo)
		err := svc.Resolve(context.Background(), 999999)
		assert.ErrorIs(t, err, report.ErrNotFound)
	})
}

func TestService_FlaggedTransactionIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	flagged := map[string]struct{}{
		"TXN000007": {},
		"TXN000093": {},
	}

	repo := report.NewMockRepository(ctrl)
	repo.EXPECT().FlaggedTransactionIDs(gomock.Any()).Return(flagged, nil)

	svc := report.NewService(repo)

	got, err := svc.FlaggedTransactionIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, flagged, got)
}
