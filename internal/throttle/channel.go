package throttle

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrChannelClosed = errors.New("request channel closed")

// Channel serializes calls to one upstream. A single worker executes submitted
// operations in order and keeps at most Quota calls per Window.
type Channel struct {
	name   string
	quota  int
	window time.Duration
	retry  RetryOptions
	logger *zap.Logger

	jobs      chan job
	done      chan struct{}
	closeOnce sync.Once

	// owned by the worker goroutine
	count       int
	windowStart time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

type job struct {
	ctx       context.Context
	op        func(context.Context) error
	retryable bool
	result    chan error
}

type Option func(*Channel)

func WithWindow(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.window = d
		}
	}
}

func WithRetryOptions(opts RetryOptions) Option {
	return func(c *Channel) {
		c.retry = opts
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Channel) {
		c.logger = logger
	}
}

// NewChannel starts the worker for one upstream. quota <= 0 disables the window limit.
func NewChannel(name string, quota int, opts ...Option) *Channel {
	c := &Channel{
		name:   name,
		quota:  quota,
		window: time.Minute,
		retry:  DefaultRetryOptions(),
		jobs:   make(chan job),
		done:   make(chan struct{}),
		now:    time.Now,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.run()
	return c
}

func (c *Channel) Name() string {
	return c.name
}

// Submit queues op and waits for its outcome. Retryable operations are wrapped
// in WithRetry; others are attempted once.
func (c *Channel) Submit(ctx context.Context, op func(context.Context) error, retryable bool) error {
	if c == nil {
		return ErrChannelClosed
	}
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}
	j := job{ctx: ctx, op: op, retryable: retryable, result: make(chan error, 1)}
	select {
	case c.jobs <- j:
	case <-c.done:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Channel) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Channel) run() {
	for {
		select {
		case <-c.done:
			return
		case j := <-c.jobs:
			j.result <- c.execute(j)
		}
	}
}

func (c *Channel) execute(j job) error {
	if err := j.ctx.Err(); err != nil {
		return err
	}
	if err := c.acquire(j.ctx); err != nil {
		return err
	}
	attempt := func(ctx context.Context) error {
		err := j.op(ctx)
		if status, ok := StatusOf(err); ok && status == 429 && c.logger != nil {
			c.logger.Warn("upstream rate limit hit", zap.String("source", c.name))
		}
		return err
	}
	if !j.retryable {
		return attempt(j.ctx)
	}
	return WithRetry(j.ctx, c.retry, c.logger, attempt)
}

// acquire counts one request against the current window, sleeping until the
// window boundary when the quota is exhausted.
func (c *Channel) acquire(ctx context.Context) error {
	if c.quota <= 0 {
		return nil
	}
	now := c.now()
	if c.windowStart.IsZero() || now.Sub(c.windowStart) >= c.window {
		c.windowStart = now
		c.count = 0
	}
	if c.count >= c.quota {
		wait := c.windowStart.Add(c.window).Sub(now)
		if c.logger != nil {
			c.logger.Warn("request quota reached, waiting for window",
				zap.String("source", c.name),
				zap.Int("quota", c.quota),
				zap.Duration("wait", wait),
			)
		}
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
		c.windowStart = c.now()
		c.count = 0
	}
	c.count++
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pause sleeps for d unless ctx ends first.
func Pause(ctx context.Context, d time.Duration) error {
	return sleepCtx(ctx, d)
}
