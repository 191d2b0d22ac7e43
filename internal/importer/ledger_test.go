package importer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfigueiredo/ledgerhawk/internal/importer"
)

const sampleLedger = `TransactionID,AccountID,Amount,Merchant,Category,Timestamp,Location
TXN000001,ACC0012,42.17,Starbucks,Restaurants,2023-01-05 09:12:44,Seattle, USA
TXN000002,ACC0003,18450.00,Best Buy,Electronics,2023-02-11 16:40:02,"Chicago, USA"
TXN000003,ACC0003,3.49,Netflix,Subscription,2023-02-12 00:01:10,"London, UK"
`

func TestService_Parse(t *testing.T) {
	svc := importer.NewService()

	params, err := svc.Parse(strings.NewReader(sampleLedger))
	require.NoError(t, err)
	require.Len(t, params, 3)

	first := params[0]
	assert.Equal(t, "TXN000001", first.ID)
	assert.Equal(t, "ACC0012", first.AccountID)
	assert.True(t, first.Amount.Equal(decimal.NewFromFloat(42.17)))
	assert.Equal(t, "Starbucks", first.Merchant)
	assert.Equal(t, "Restaurants", first.Category)
	assert.Equal(t, time.Date(2023, 1, 5, 9, 12, 44, 0, time.UTC), first.Timestamp)

	assert.Equal(t, "Chicago, USA", params[1].Location)
	assert.True(t, params[1].Amount.Equal(decimal.NewFromFloat(18450)))
}

func TestService_Parse_SkipsBadRows(t *testing.T) {
	csv := `TransactionID,AccountID,Amount,Merchant,Category,Timestamp,Location
TXN000001,ACC0001,abc,Shell,Gas,2023-01-01 10:00:00,"Houston, USA"
TXN000002,ACC0001,55.20,Shell,Gas,not-a-date,"Houston, USA"
TXN000003,ACC0001,55.20,Shell,Gas,2023-01-01 11:00:00,"Houston, USA"
,ACC0001,10.00,Shell,Gas,2023-01-01 12:00:00,"Houston, USA"
`

	svc := importer.NewService()

	params, err := svc.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "TXN000003", params[0].ID)
}

func TestService_Parse_MissingColumn(t *testing.T) {
	csv := `TransactionID,Amount,Timestamp
TXN000001,10.00,2023-01-01 10:00:00
`

	svc := importer.NewService()

	_, err := svc.Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccountID")
}

func TestService_Parse_UTF8BOM(t *testing.T) {
	svc := importer.NewService()

	params, err := svc.Parse(strings.NewReader("\xEF\xBB\xBF" + sampleLedger))
	require.NoError(t, err)
	require.Len(t, params, 3)
	assert.Equal(t, "TXN000001", params[0].ID)
}
