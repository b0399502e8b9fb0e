package upstream

import (
	"context"
	"time"

	"github.com/Yates-Labs/gamebible/internal/config"
)

// State is a node of the per-call retry state machine.
type State int

const (
	StateAttempting State = iota
	StateWaitingModelLoad
	StateWaitingRateLimit
	StateBackingOff
	StateExhausted
	StateSucceeded
	StateFailedPermanent
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateWaitingModelLoad:
		return "waiting_model_load"
	case StateWaitingRateLimit:
		return "waiting_rate_limit"
	case StateBackingOff:
		return "backing_off"
	case StateExhausted:
		return "exhausted"
	case StateSucceeded:
		return "succeeded"
	case StateFailedPermanent:
		return "failed_permanent"
	}
	return "unknown"
}

// Terminal reports whether no further attempt follows s.
func (s State) Terminal() bool {
	return s == StateExhausted || s == StateSucceeded || s == StateFailedPermanent
}

// RetryPolicy holds the attempt budget and the wait for each retryable state.
type RetryPolicy struct {
	MaxAttempts      int
	ModelLoadingWait time.Duration
	RateLimitWait    time.Duration
	ConnectWait      time.Duration
	TimeoutWait      time.Duration

	// BackoffStep is multiplied by the attempt number for unclassified transport errors
	BackoffStep time.Duration
}

// PolicyFromConfig maps upstream settings onto a RetryPolicy.
func PolicyFromConfig(cfg config.UpstreamConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:      cfg.MaxRetries,
		ModelLoadingWait: cfg.ModelLoadingWait,
		RateLimitWait:    cfg.RateLimitWait,
		ConnectWait:      cfg.ConnectWait,
		TimeoutWait:      cfg.TimeoutWait,
		BackoffStep:      cfg.BackoffStep,
	}
}

// DefaultRetryPolicy returns the production waits.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:      3,
		ModelLoadingWait: 30 * time.Second,
		RateLimitWait:    60 * time.Second,
		ConnectWait:      10 * time.Second,
		TimeoutWait:      15 * time.Second,
		BackoffStep:      10 * time.Second,
	}
}

// Sleeper pauses between attempts. Implementations must return early with the
// context error when ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// ContextSleeper waits on a timer or the context, whichever finishes first.
var ContextSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
})

// Transition is one step taken by the state machine, reported to observers.
type Transition struct {
	Attempt int
	State   State
	Wait    time.Duration
	Err     error
}
