package pacing

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"NewsBalancer/internal/ports"
)

// Interval lets one operation through per interval. The first Wait returns
// immediately; later calls block until the interval since the previous one
// has elapsed.
type Interval struct {
	limiter *rate.Limiter
}

var _ ports.Pacer = (*Interval)(nil)

// NewInterval builds a pacer; a non-positive interval disables pacing.
func NewInterval(every time.Duration) *Interval {
	if every <= 0 {
		return &Interval{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Interval{limiter: rate.NewLimiter(rate.Every(every), 1)}
}

// Wait blocks until the next slot or until ctx is done.
func (i *Interval) Wait(ctx context.Context) error {
	if err := i.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacing: %w", err)
	}
	return nil
}

// None returns a pacer that never blocks.
func None() *Interval {
	return NewInterval(0)
}
