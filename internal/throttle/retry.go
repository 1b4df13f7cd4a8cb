package throttle

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Default retry configuration values.
const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1 * time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMultiplier   = 2.0
)

var DefaultRetryableStatuses = []int{429, 500, 502, 503, 504}

type RetryOptions struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	Multiplier        float64
	RetryableStatuses []int
}

func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:        DefaultMaxRetries,
		InitialDelay:      DefaultInitialDelay,
		MaxDelay:          DefaultMaxDelay,
		Multiplier:        DefaultMultiplier,
		RetryableStatuses: DefaultRetryableStatuses,
	}
}

func (o RetryOptions) normalized() RetryOptions {
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = DefaultInitialDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.Multiplier < 1 {
		o.Multiplier = DefaultMultiplier
	}
	if o.RetryableStatuses == nil {
		o.RetryableStatuses = DefaultRetryableStatuses
	}
	return o
}

func (o RetryOptions) retryable(status int) bool {
	for _, s := range o.RetryableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// StatusCoder is implemented by upstream errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// StatusOf returns the upstream status carried by err, if any.
func StatusOf(err error) (int, bool) {
	var sc StatusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code > 0 {
			return code, true
		}
	}
	return 0, false
}

// WithRetry runs op up to MaxRetries+1 times with exponential backoff.
// Errors carrying a status outside RetryableStatuses stop immediately;
// errors without a status (network failures, timeouts) are always retried.
func WithRetry(ctx context.Context, opts RetryOptions, logger *zap.Logger, op func(context.Context) error) error {
	opts = opts.normalized()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = opts.InitialDelay
	eb.MaxInterval = opts.MaxDelay
	eb.Multiplier = opts.Multiplier
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(opts.MaxRetries)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if status, ok := StatusOf(err); ok && !opts.retryable(status) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		if logger == nil {
			return
		}
		status, _ := StatusOf(err)
		logger.Warn("retrying upstream call",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", opts.MaxRetries),
			zap.Duration("delay", delay),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	return backoff.RetryNotify(operation, policy, notify)
}
