package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means no API credential was supplied. Reported before
	// any network call is attempted; an operator has to fix the deployment.
	ErrNotConfigured = errors.New("inference credential not configured")

	// ErrRateLimited maps HTTP 429. Retryable after a delay.
	ErrRateLimited = errors.New("inference provider rate limited the request")

	// ErrUnauthorized maps HTTP 401. The credential was rejected; retrying
	// without operator intervention is pointless.
	ErrUnauthorized = errors.New("inference provider rejected the credential")

	// ErrEmptyResponse means the provider answered 2xx but returned no
	// usable completion. Retryable, since model output is non-deterministic.
	ErrEmptyResponse = errors.New("inference provider returned an empty completion")
)

// ProviderError is any other non-2xx outcome, carrying the raw status and
// body for diagnostics.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("inference provider returned status %d: %s", e.Status, e.Body)
}

// MalformedResponseError means the provider answered but the payload is not
// the JSON shape the contract asks for. Raw keeps the original text so the
// failure can be inspected.
type MalformedResponseError struct {
	Raw   string
	cause error
}

func (e *MalformedResponseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("malformed inference response: %v", e.cause)
	}

	return "malformed inference response"
}

func (e *MalformedResponseError) Unwrap() error { return e.cause }
