package inference

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mfigueiredo/ledgerhawk/internal/report"
)

// LevelPolicy decides what to do with a risk-level string the provider was
// not supposed to emit. Injected so tests can swap coercion for rejection
// without touching parse logic.
type LevelPolicy func(raw string) (report.Level, error)

// CoerceUnknownToMedium is the default policy: out-of-range levels become
// Medium with a diagnostic, since the contract with the provider is
// advisory rather than type-checked at its source.
func CoerceUnknownToMedium(raw string) (report.Level, error) {
	if lvl, ok := report.ParseLevel(raw); ok {
		return lvl, nil
	}

	slog.Warn("unrecognized risk level, coercing to Medium", "level", raw)

	return report.LevelMedium, nil
}

// StrictLevels rejects anything outside Low/Medium/High.
func StrictLevels(raw string) (report.Level, error) {
	lvl, ok := report.ParseLevel(raw)
	if !ok {
		return "", fmt.Errorf("risk level %q is not one of Low, Medium, High", raw)
	}

	return lvl, nil
}

type assessmentPayload struct {
	TransactionID      string `json:"TransactionID"`
	RiskLevel          string `json:"RiskLevel"`
	MitigationStrategy string `json:"MitigationStrategy"`
	Reasoning          string `json:"Reasoning"`
	TLDR               string `json:"tldr"`
}

type responsePayload struct {
	SuspiciousTransactions []assessmentPayload `json:"suspiciousTransactions"`
}

// Parse validates the provider's raw text against the expected shape.
// Field names match case-insensitively (encoding/json semantics), and an
// absent suspiciousTransactions array is a valid "no anomalies" outcome.
// Any entry without a transaction ID fails the whole response; partially
// valid lists are never emitted.
func Parse(raw string, policy LevelPolicy) ([]report.Assessment, error) {
	if policy == nil {
		policy = CoerceUnknownToMedium
	}

	clean := stripFences(raw)

	var payload responsePayload
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return nil, &MalformedResponseError{Raw: raw, cause: err}
	}

	assessments := make([]report.Assessment, 0, len(payload.SuspiciousTransactions))

	for i, entry := range payload.SuspiciousTransactions {
		if strings.TrimSpace(entry.TransactionID) == "" {
			return nil, &MalformedResponseError{
				Raw:   raw,
				cause: fmt.Errorf("entry %d has no transaction id", i),
			}
		}

		level, err := policy(entry.RiskLevel)
		if err != nil {
			return nil, &MalformedResponseError{Raw: raw, cause: err}
		}

		assessments = append(assessments, report.Assessment{
			TransactionID: entry.TransactionID,
			Level:         level,
			Mitigation:    entry.MitigationStrategy,
			Reasoning:     entry.Reasoning,
			Summary:       entry.TLDR,
		})
	}

	return assessments, nil
}

// stripFences removes Markdown code fences models wrap around JSON despite
// being told not to, then trims to the outermost braces.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}

		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}

		s = strings.TrimSpace(s)
	}

	// Trim surrounding prose down to the outermost object. A payload that
	// already starts with a JSON value is left alone, so a top-level array
	// still fails decoding instead of having an inner object extracted.
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		if start := strings.Index(s, "{"); start != -1 {
			if end := strings.LastIndex(s, "}"); end > start {
				s = s[start : end+1]
			}
		}
	}

	return s
}
