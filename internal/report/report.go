package report

import (
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("report not found")

// Level is the risk classification assigned by the inference provider.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// ParseLevel normalizes a provider-supplied risk level. The provider's
// casing is not guaranteed, so matching is case-insensitive.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return LevelLow, true
	case "medium":
		return LevelMedium, true
	case "high":
		return LevelHigh, true
	}

	return "", false
}

// AnomalyLabel derives the short anomaly description stored on a report.
// It is synthesized from the level, never taken from provider text.
func AnomalyLabel(l Level) string {
	return string(l) + " risk anomaly"
}

// Assessment is one entry of the provider's output, transient between
// parsing and merge.
type Assessment struct {
	TransactionID string `json:"TransactionID"`
	Level         Level  `json:"RiskLevel"`
	Mitigation    string `json:"MitigationStrategy"`
	Reasoning     string `json:"Reasoning"`
	Summary       string `json:"tldr"`
}

// Report is a persisted risk finding for a single transaction. A transaction
// has at most one current report; the merge path enforces that by updating
// in place rather than inserting a second row.
type Report struct {
	ID            int64
	TransactionID string
	Level         Level
	Anomaly       string
	Mitigation    string
	Reasoning     string
	Summary       string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
