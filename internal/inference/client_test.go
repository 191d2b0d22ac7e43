package inference_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfigueiredo/ledgerhawk/internal/inference"
	"github.com/mfigueiredo/ledgerhawk/internal/report"
	"github.com/mfigueiredo/ledgerhawk/internal/transaction"
)

func sampleBatch() []*transaction.Transaction {
	return []*transaction.Transaction{
		{
			ID:        "TXN000001",
			AccountID: "ACC0001",
			Amount:    decimal.NewFromFloat(12.40),
			Merchant:  "Starbucks",
			Category:  "Restaurants",
			Timestamp: time.Date(2023, 5, 2, 8, 15, 0, 0, time.UTC),
			Location:  "Boston, USA",
		},
		{
			ID:        "TXN000002",
			AccountID: "ACC0002",
			Amount:    decimal.NewFromFloat(48231.07),
			Merchant:  "Best Buy",
			Category:  "Electronics",
			Timestamp: time.Date(2023, 5, 2, 8, 20, 0, 0, time.UTC),
			Location:  "Tokyo, Japan",
		},
	}
}

func completionBody(t *testing.T, content string) string {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)

	return string(body)
}

func TestClient_Assess(t *testing.T) {
	var gotRequest struct {
		auth string
		path string
		body map[string]any
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequest.auth = r.Header.Get("Authorization")
		gotRequest.path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest.body))

		content := `{"suspiciousTransactions":[{"TransactionID":"TXN000002","RiskLevel":"High",` +
			`"MitigationStrategy":"Contact the cardholder","Reasoning":"Observation: amount far above category norm.",` +
			`"tldr":"Outsized electronics purchase abroad."}]}`

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody(t, content)))
	}))
	defer ts.Close()

	client := inference.NewClient(ts.URL, "gpt-4o-mini", "test-key")

	assessments, err := client.Assess(context.Background(), sampleBatch())
	require.NoError(t, err)
	require.Len(t, assessments, 1)

	assert.Equal(t, "TXN000002", assessments[0].TransactionID)
	assert.Equal(t, report.LevelHigh, assessments[0].Level)
	assert.Equal(t, "Contact the cardholder", assessments[0].Mitigation)

	assert.Equal(t, "Bearer test-key", gotRequest.auth)
	assert.Equal(t, "/chat/completions", gotRequest.path)
	assert.Equal(t, "gpt-4o-mini", gotRequest.body["model"])

	// The batch serialization reaches the provider verbatim.
	messages := gotRequest.body["messages"].([]any)
	require.Len(t, messages, 2)
	userContent := messages[1].(map[string]any)["content"].(string)
	assert.Contains(t, userContent, "TXN000002 | ACC0002 | 48231.07 | Best Buy | Electronics | 2023-05-02 08:20:00 | Tokyo, Japan")
}

func TestClient_Assess_NotConfigured(t *testing.T) {
	called := false

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	client := inference.NewClient(ts.URL, "gpt-4o-mini", "")

	_, err := client.Assess(context.Background(), sampleBatch())
	assert.ErrorIs(t, err, inference.ErrNotConfigured)
	assert.False(t, called, "no network call should be attempted without a credential")
}

func TestClient_Assess_ErrorMapping(t *testing.T) {
	type testCase struct {
		name    string
		status  int
		body    string
		wantErr error
	}

	tests := []testCase{
		{
			name:    "RateLimited",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"message":"rate limit exceeded"}}`,
			wantErr: inference.ErrRateLimited,
		},
		{
			name:    "Unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"invalid api key"}}`,
			wantErr: inference.ErrUnauthorized,
		},
		{
			name:    "EmptyChoices",
			status:  http.StatusOK,
			body:    `{"choices":[]}`,
			wantErr: inference.ErrEmptyResponse,
		},
		{
			name:    "EmptyContent",
			status:  http.StatusOK,
			body:    `{"choices":[{"message":{"content":"  "}}]}`,
			wantErr: inference.ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			client := inference.NewClient(ts.URL, "gpt-4o-mini", "test-key")

			_, err := client.Assess(context.Background(), sampleBatch())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("ProviderError", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("upstream overloaded"))
		}))
		defer ts.Close()

		client := inference.NewClient(ts.URL, "gpt-4o-mini", "test-key")

		_, err := client.Assess(context.Background(), sampleBatch())

		var provider *inference.ProviderError
		require.ErrorAs(t, err, &provider)
		assert.Equal(t, http.StatusServiceUnavailable, provider.Status)
		assert.Contains(t, provider.Body, "upstream overloaded")
	})

	t.Run("MalformedContent", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(completionBody(t, "not json")))
		}))
		defer ts.Close()

		client := inference.NewClient(ts.URL, "gpt-4o-mini", "test-key")

		_, err := client.Assess(context.Background(), sampleBatch())

		var malformed *inference.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "not json", malformed.Raw)
	})
}

func TestClient_Assess_StrictPolicyOption(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := `{"suspiciousTransactions":[{"TransactionID":"TXN000001","RiskLevel":"Severe"}]}`
		w.Write([]byte(completionBody(t, content)))
	}))
	defer ts.Close()

	client := inference.NewClient(ts.URL, "gpt-4o-mini", "test-key",
		inference.WithLevelPolicy(inference.StrictLevels))

	_, err := client.Assess(context.Background(), sampleBatch())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Severe") ||
		strings.Contains(err.Error(), "malformed"), "got: %v", err)
}
