package inference_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfigueiredo/ledgerhawk/internal/inference"
	"github.com/mfigueiredo/ledgerhawk/internal/report"
)

func TestParse(t *testing.T) {
	type testCase struct {
		name    string
		raw     string
		policy  inference.LevelPolicy
		want    []report.Assessment
		wantErr bool
	}

	tests := []testCase{
		{
			name: "SingleAssessment",
			raw: `{"suspiciousTransactions":[{"TransactionID":"TXN000042","RiskLevel":"High",` +
				`"MitigationStrategy":"Freeze the card","Reasoning":"Observation: amount is 100x the account norm.",` +
				`"tldr":"Very large charge."}]}`,
			want: []report.Assessment{
				{
					TransactionID: "TXN000042",
					Level:         report.LevelHigh,
					Mitigation:    "Freeze the card",
					Reasoning:     "Observation: amount is 100x the account norm.",
					Summary:       "Very large charge.",
				},
			},
		},
		{
			name: "CaseInsensitiveFields",
			raw:  `{"SUSPICIOUSTRANSACTIONS":[{"transactionid":"TXN000001","risklevel":"low","TLDR":"minor"}]}`,
			want: []report.Assessment{
				{TransactionID: "TXN000001", Level: report.LevelLow, Summary: "minor"},
			},
		},
		{
			name: "AbsentArrayMeansNoAnomalies",
			raw:  `{}`,
			want: []report.Assessment{},
		},
		{
			name: "EmptyArray",
			raw:  `{"suspiciousTransactions":[]}`,
			want: []report.Assessment{},
		},
		{
			name: "CodeFencedJSON",
			raw: "```json\n" +
				`{"suspiciousTransactions":[{"TransactionID":"TXN000009","RiskLevel":"Medium"}]}` +
				"\n```",
			want: []report.Assessment{
				{TransactionID: "TXN000009", Level: report.LevelMedium},
			},
		},
		{
			name:    "NotJSON",
			raw:     "not json",
			wantErr: true,
		},
		{
			name:    "TopLevelArray",
			raw:     `[{"TransactionID":"TXN000001"}]`,
			wantErr: true,
		},
		{
			name: "MissingTransactionIDFailsWholeResponse",
			raw: `{"suspiciousTransactions":[` +
				`{"TransactionID":"TXN000001","RiskLevel":"High"},` +
				`{"RiskLevel":"High","tldr":"no id"}]}`,
			wantErr: true,
		},
		{
			name: "UnknownLevelCoercedToMedium",
			raw:  `{"suspiciousTransactions":[{"TransactionID":"TXN000003","RiskLevel":"Critical"}]}`,
			want: []report.Assessment{
				{TransactionID: "TXN000003", Level: report.LevelMedium},
			},
		},
		{
			name:    "UnknownLevelRejectedByStrictPolicy",
			raw:     `{"suspiciousTransactions":[{"TransactionID":"TXN000003","RiskLevel":"Critical"}]}`,
			policy:  inference.StrictLevels,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inference.Parse(tt.raw, tt.policy)

			if tt.wantErr {
				require.Error(t, err)

				var malformed *inference.MalformedResponseError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, tt.raw, malformed.Raw)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// A well-formed payload survives a parse and re-serialization with every
// field intact.
func TestParse_RoundTrip(t *testing.T) {
	raw := `{"suspiciousTransactions":[` +
		`{"TransactionID":"TXN000010","RiskLevel":"High","MitigationStrategy":"Block the merchant",` +
		`"Reasoning":"Observation: three identical charges. Context: new merchant. Risk: card testing.",` +
		`"tldr":"Probable card testing."},` +
		`{"TransactionID":"TXN000011","RiskLevel":"Medium","MitigationStrategy":"Verify with cardholder",` +
		`"Reasoning":"Observation: foreign location minutes after a domestic charge.","tldr":"Impossible travel."}]}`

	assessments, err := inference.Parse(raw, nil)
	require.NoError(t, err)
	require.Len(t, assessments, 2)

	reserialized, err := json.Marshal(struct {
		SuspiciousTransactions []report.Assessment `json:"suspiciousTransactions"`
	}{assessments})
	require.NoError(t, err)

	again, err := inference.Parse(string(reserialized), nil)
	require.NoError(t, err)
	assert.Equal(t, assessments, again)
}
