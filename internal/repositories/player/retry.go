package player

import (
	"context"
	"log/slog"
	"time"

	"github.com/dumblo/adventure-api/internal/errors"
)

// RetryConfig configures the retrying decorator.
type RetryConfig struct {
	Repository Repository
	Attempts   int
	Delay      time.Duration

	// Sleep is swappable for tests; nil uses a context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Validate ensures all required dependencies are provided
func (c *RetryConfig) Validate() error {
	if c.Repository == nil {
		return errors.InvalidArgument("repository is required")
	}
	if c.Attempts < 1 {
		return errors.InvalidArgument("attempts must be at least 1")
	}
	return nil
}

type retryRepository struct {
	inner    Repository
	attempts int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewRetryRepository wraps a repository with a fixed-delay retry policy for
// transient store failures. Non-transient errors (bad input, missing or
// duplicate records) pass through immediately.
func NewRetryRepository(cfg *RetryConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		}
	}

	return &retryRepository{
		inner:    cfg.Repository,
		attempts: cfg.Attempts,
		delay:    cfg.Delay,
		sleep:    sleep,
	}, nil
}

// Ensure retryRepository implements Repository
var _ Repository = (*retryRepository)(nil)

func retryable(err error) bool {
	switch errors.GetCode(err) {
	case errors.CodeInvalidArgument, errors.CodeNotFound, errors.CodeAlreadyExists:
		return false
	default:
		return true
	}
}

func (r *retryRepository) do(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = fn()
		if err == nil || !retryable(err) {
			return err
		}
		if attempt == r.attempts {
			break
		}
		slog.WarnContext(ctx, "player store operation failed, retrying",
			"op", op,
			"attempt", attempt,
			"error", err,
		)
		if sleepErr := r.sleep(ctx, r.delay); sleepErr != nil {
			return errors.Wrap(sleepErr, "retry interrupted")
		}
	}
	return err
}

// Get retrieves a player, retrying transient failures
func (r *retryRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	var out *GetOutput
	err := r.do(ctx, "get", func() error {
		var opErr error
		out, opErr = r.inner.Get(ctx, input)
		return opErr
	})
	return out, err
}

// Create stores a new player, retrying transient failures
func (r *retryRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	var out *CreateOutput
	err := r.do(ctx, "create", func() error {
		var opErr error
		out, opErr = r.inner.Create(ctx, input)
		return opErr
	})
	return out, err
}

// Update applies a partial update, retrying transient failures
func (r *retryRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	var out *UpdateOutput
	err := r.do(ctx, "update", func() error {
		var opErr error
		out, opErr = r.inner.Update(ctx, input)
		return opErr
	})
	return out, err
}

// SetInventory replaces inventory and gear, retrying transient failures
func (r *retryRepository) SetInventory(ctx context.Context, input SetInventoryInput) (*SetInventoryOutput, error) {
	var out *SetInventoryOutput
	err := r.do(ctx, "set_inventory", func() error {
		var opErr error
		out, opErr = r.inner.SetInventory(ctx, input)
		return opErr
	})
	return out, err
}
