package signer

import (
	"context"
	"math/rand/v2"
	"time"
)

// Delayer pauses between forums.
// Wait returns ctx.Err() when the context ends before the pause does.
type Delayer interface {
	Wait(ctx context.Context) error
}

// RandomDelay waits a uniformly random duration in [Min, Max].
type RandomDelay struct {
	Min time.Duration
	Max time.Duration
}

// Wait implements Delayer.
func (d RandomDelay) Wait(ctx context.Context) error {
	return sleep(ctx, d.next())
}

func (d RandomDelay) next() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + rand.N(d.Max-d.Min+1)
}

// FixedDelay waits a constant duration.
type FixedDelay time.Duration

// Wait implements Delayer.
func (d FixedDelay) Wait(ctx context.Context) error {
	return sleep(ctx, time.Duration(d))
}

// NoDelay returns immediately unless the context is already done.
type NoDelay struct{}

// Wait implements Delayer.
func (NoDelay) Wait(ctx context.Context) error {
	return ctx.Err()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
