package tts

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Pacing modes accepted by NewPacer.
const (
	PaceRequests = "requests"
	PaceIndex    = "index"
	PaceToken    = "token"
)

// RateBudget is the provider's request allowance.
type RateBudget struct {
	Requests int
	Window   time.Duration
}

// DefaultRateBudget is 100 requests per minute.
var DefaultRateBudget = RateBudget{Requests: 100, Window: time.Minute}

// Interval is the spacing between requests that spreads Requests evenly
// over Window.
func (b RateBudget) Interval() time.Duration {
	if b.Requests <= 0 {
		return 0
	}
	return b.Window / time.Duration(b.Requests)
}

// Clock sleeps. Sleep returns ctx.Err() when ctx ends first.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock sleeps on wall time.
type RealClock struct{}

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pacer delays requests to stay within a RateBudget. chunkIndex is the
// position of the chunk in the conversion; requestIndex is the number of
// network requests already issued in it.
type Pacer interface {
	Wait(ctx context.Context, chunkIndex, requestIndex int) error
}

// IndexPacer paces on the chunk index: every Requests-th chunk waits a full
// Window, any other chunk after the first waits one Interval. Cached chunks
// still advance the index, so a run resumed from cache may pause before
// its first request.
type IndexPacer struct {
	Budget RateBudget
	Clock  Clock
}

func (p IndexPacer) Wait(ctx context.Context, chunkIndex, _ int) error {
	return p.Clock.Sleep(ctx, stepDelay(p.Budget, chunkIndex))
}

// RequestPacer applies the same schedule to the request index, so only
// real network calls count against the budget.
type RequestPacer struct {
	Budget RateBudget
	Clock  Clock
}

func (p RequestPacer) Wait(ctx context.Context, _, requestIndex int) error {
	return p.Clock.Sleep(ctx, stepDelay(p.Budget, requestIndex))
}

func stepDelay(b RateBudget, i int) time.Duration {
	switch {
	case i <= 0:
		return 0
	case b.Requests > 0 && i%b.Requests == 0:
		return b.Window
	default:
		return b.Interval()
	}
}

// TokenBucketPacer releases one request per Interval with a burst of one.
type TokenBucketPacer struct {
	limiter *rate.Limiter
}

// NewTokenBucketPacer creates a smooth limiter for budget.
func NewTokenBucketPacer(budget RateBudget) *TokenBucketPacer {
	limit := rate.Inf
	if iv := budget.Interval(); iv > 0 {
		limit = rate.Every(iv)
	}
	return &TokenBucketPacer{limiter: rate.NewLimiter(limit, 1)}
}

func (p *TokenBucketPacer) Wait(ctx context.Context, _, _ int) error {
	return p.limiter.Wait(ctx)
}

// NewPacer returns the pacer for mode. An empty mode selects PaceRequests.
// A nil clock uses RealClock.
func NewPacer(mode string, budget RateBudget, clock Clock) (Pacer, error) {
	if clock == nil {
		clock = RealClock{}
	}
	switch mode {
	case PaceRequests, "":
		return RequestPacer{Budget: budget, Clock: clock}, nil
	case PaceIndex:
		return IndexPacer{Budget: budget, Clock: clock}, nil
	case PaceToken:
		return NewTokenBucketPacer(budget), nil
	default:
		return nil, fmt.Errorf("unknown rate limit mode %q (want %s, %s or %s)",
			mode, PaceRequests, PaceIndex, PaceToken)
	}
}
