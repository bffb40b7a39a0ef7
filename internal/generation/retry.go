package generation

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"relaybot.app/relay/common/llm"
	"relaybot.app/relay/common/logger"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

// RetryPolicy bounds how often one model is called for one prompt.
// The delay between attempts is fixed, not exponential.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration

	// OnRetry is called before each wait with the 1-based attempt that just
	// failed. Optional.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetryPolicy is three attempts, two seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultRetryDelay}
}

// WithRetry calls client until it succeeds or MaxAttempts calls have failed,
// waiting Delay between attempts. On exhaustion it returns the last error.
// A MaxAttempts of 1 or less means a single attempt.
func WithRetry(ctx context.Context, client llm.Client, prompt string, policy RetryPolicy) (string, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		text    string
		lastErr error
		attempt int
	)

	backoff := retry.WithMaxRetries(uint64(maxAttempts-1), constantBackoff(policy.Delay)) // #nosec G115 -- maxAttempts >= 1
	backoff = observe(backoff, func(wait time.Duration) {
		slog.WarnContext(ctx, "generation attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"wait_ms", wait.Milliseconds(),
			"error", logger.Truncate(lastErr.Error(), 300))
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, lastErr, wait)
		}
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		out, callErr := client.Generate(ctx, prompt)
		if callErr != nil {
			lastErr = callErr
			return retry.RetryableError(callErr)
		}
		text = out
		return nil
	})
	if err != nil {
		if lastErr != nil && ctx.Err() == nil {
			return "", lastErr
		}
		return "", err
	}

	return text, nil
}

func constantBackoff(delay time.Duration) retry.Backoff {
	if delay <= 0 {
		return retry.BackoffFunc(func() (time.Duration, bool) {
			return 0, false
		})
	}
	return retry.NewConstant(delay)
}

// observe calls fn with every wait the backoff hands out.
func observe(next retry.Backoff, fn func(time.Duration)) retry.Backoff {
	return retry.BackoffFunc(func() (time.Duration, bool) {
		wait, stop := next.Next()
		if !stop {
			fn(wait)
		}
		return wait, stop
	})
}
