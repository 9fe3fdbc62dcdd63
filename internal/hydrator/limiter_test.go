package hydrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_TracksPeak(t *testing.T) {
	t.Parallel()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "in_flight"})
	l := NewLimiter(3, gauge)

	release := make(chan struct{})
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Do(context.Background(), l, func(context.Context) (struct{}, error) {
				<-release
				return struct{}{}, nil
			})
		}()
	}

	require.Eventually(t, func() bool { return l.InFlight() == 3 }, time.Second, time.Millisecond)
	assert.InDelta(t, 3, testutil.ToFloat64(gauge), 0)

	close(release)
	wg.Wait()

	assert.EqualValues(t, 3, l.Peak())
	assert.Zero(t, l.InFlight())
	assert.InDelta(t, 0, testutil.ToFloat64(gauge), 0)
}

func TestLimiter_AcquireHonorsContext(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, nil)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, l.Acquire(ctx), context.DeadlineExceeded)
	assert.EqualValues(t, 1, l.InFlight())
}

func TestLimiter_DefaultSize(t *testing.T) {
	t.Parallel()

	assert.EqualValues(t, DefaultLimit, NewLimiter(0, nil).Size())
}

func TestQueue_FIFOAndClose(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	require.True(t, q.Push(Event{Kind: EventDraft}))
	require.True(t, q.Push(Event{Kind: EventFinal}))
	q.Close()
	assert.False(t, q.Push(Event{Kind: EventClose}))
	assert.Equal(t, 2, q.Len())

	ctx := context.Background()
	e, ok := q.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, EventDraft, e.Kind)
	e, ok = q.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, EventFinal, e.Kind)
	_, ok = q.Next(ctx)
	assert.False(t, ok)
}

func TestQueue_NextWakesOnPush(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	got := make(chan Event, 1)
	go func() {
		e, _ := q.Next(context.Background())
		got <- e
	}()

	time.Sleep(5 * time.Millisecond)
	q.Push(Event{Kind: EventAllDispatched})

	select {
	case e := <-got:
		assert.Equal(t, EventAllDispatched, e.Kind)
	case <-time.After(time.Second):
		t.Fatal("Next did not wake")
	}
}

func TestQueue_NextHonorsContext(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := q.Next(ctx)
	assert.False(t, ok)
}

func TestQueue_ManyProducers(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				q.Push(Event{Kind: EventPartial})
			}
		}()
	}
	wg.Wait()
	q.Close()

	assert.Len(t, drain(t, q), 800)
}
