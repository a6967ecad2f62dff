package services

import (
	"context"
	"math/rand"
	"time"
)

// Rand is the randomness the simulated providers draw from. *rand.Rand
// satisfies it; tests inject a scripted source.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// globalRand uses the goroutine-safe top-level math/rand functions.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) Intn(n int) int   { return rand.Intn(n) }

func pickRand(r Rand) Rand {
	if r == nil {
		return globalRand{}
	}
	return r
}

// randBetween returns an integer in [lo, hi].
func randBetween(r Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

func choice(r Rand, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[r.Intn(len(items))]
}

// DelayFunc simulates provider latency. It returns early with ctx.Err()
// when ctx is done.
type DelayFunc func(ctx context.Context, d time.Duration) error

func sleepDelay(ctx context.Context, d time.Duration) error {
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

func pickDelay(d DelayFunc) DelayFunc {
	if d == nil {
		return sleepDelay
	}
	return d
}

// NoDelay skips simulated latency.
func NoDelay(ctx context.Context, _ time.Duration) error { return ctx.Err() }
