package inference

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mfigueiredo/ledgerhawk/internal/report"
	"github.com/mfigueiredo/ledgerhawk/internal/transaction"
)

// Retrying decorates an Assessor with a bounded backoff policy for the
// retryable failures (rate limiting and opaque provider errors). The
// wrapped client stays single-shot; everything about retries lives here.
type Retrying struct {
	next     Assessor
	attempts int
	backoff  time.Duration
	sleep    func(time.Duration)
}

// WithRetry wraps next so each Assess call is attempted up to attempts
// times, doubling the backoff between tries.
func WithRetry(next Assessor, attempts int, backoff time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}

	return &Retrying{
		next:     next,
		attempts: attempts,
		backoff:  backoff,
		sleep:    time.Sleep,
	}
}

func retryable(err error) bool {
	var provider *ProviderError

	return errors.Is(err, ErrRateLimited) || errors.As(err, &provider)
}

func (r *Retrying) Assess(ctx context.Context, txs []*transaction.Transaction) ([]report.Assessment, error) {
	wait := r.backoff

	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		assessments, err := r.next.Assess(ctx, txs)
		if err == nil {
			return assessments, nil
		}

		lastErr = err

		if !retryable(err) || attempt == r.attempts {
			break
		}

		slog.Warn("inference call failed, backing off",
			"attempt", attempt, "wait", wait, "error", err)

		r.sleep(wait)
		wait *= 2

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}
