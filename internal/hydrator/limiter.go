package hydrator

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
)

// DefaultLimit caps concurrent elementary lookups.
const DefaultLimit = 6

// Limiter is a counted permit pool shared by every lookup that should count
// against the same upstream budget. It tracks current and peak usage.
type Limiter struct {
	sem      *semaphore.Weighted
	size     int64
	inFlight atomic.Int64
	peak     atomic.Int64
	gauge    prometheus.Gauge
}

// NewLimiter returns a limiter with size permits. gauge may be nil.
func NewLimiter(size int64, gauge prometheus.Gauge) *Limiter {
	if size <= 0 {
		size = DefaultLimit
	}
	return &Limiter{
		sem:   semaphore.NewWeighted(size),
		size:  size,
		gauge: gauge,
	}
}

// Acquire blocks until a permit is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	current := l.inFlight.Add(1)
	for {
		peak := l.peak.Load()
		if current <= peak || l.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	if l.gauge != nil {
		l.gauge.Inc()
	}
	return nil
}

// Release returns a permit taken by Acquire.
func (l *Limiter) Release() {
	l.inFlight.Add(-1)
	if l.gauge != nil {
		l.gauge.Dec()
	}
	l.sem.Release(1)
}

// Size is the number of permits.
func (l *Limiter) Size() int64 { return l.size }

// InFlight is the number of permits currently held.
func (l *Limiter) InFlight() int64 { return l.inFlight.Load() }

// Peak is the highest InFlight value observed.
func (l *Limiter) Peak() int64 { return l.peak.Load() }

// Do runs fn while holding one permit.
func Do[T any](ctx context.Context, l *Limiter, fn func(context.Context) (T, error)) (T, error) {
	if err := l.Acquire(ctx); err != nil {
		var zero T
		return zero, err
	}
	defer l.Release()
	return fn(ctx)
}
