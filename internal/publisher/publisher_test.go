package publisher

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PlantScout/internal/domain"
	"PlantScout/internal/hydrator"
)

func queueOf(events ...hydrator.Event) *hydrator.Queue {
	q := hydrator.NewQueue()
	for _, e := range events {
		q.Push(e)
	}
	q.Close()
	return q
}

func sessionEvents() []hydrator.Event {
	draft := domain.NewPlant("Asclepias tuberosa", "Butterfly Weed")

	partial := draft
	partial.Height = domain.StringPtr("1'-2'")

	final := partial
	final.DoneLoading = true

	return []hydrator.Event{
		{Kind: hydrator.EventDraft, Plant: draft},
		{Kind: hydrator.EventPartial, Plant: partial},
		{Kind: hydrator.EventAllDispatched},
		{Kind: hydrator.EventFinal, Plant: final},
		{Kind: hydrator.EventClose},
	}
}

func TestPublisher_WireFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, New(&buf, Options{}).Run(context.Background(), queueOf(sessionEvents()...)))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "session", buf.Bytes())
}

func TestPublisher_ErrorBeforeRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	q := queueOf(
		hydrator.Event{Kind: hydrator.EventError, Err: errors.New("bad json")},
		hydrator.Event{Kind: hydrator.EventClose},
	)
	require.NoError(t, New(&buf, Options{}).Run(context.Background(), q))

	assert.Equal(t, "event: error\ndata:\n\nevent: close\ndata:\n\n", buf.String())
}

func TestPublisher_CloseWrittenWhenQueueEndsWithoutClose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	q := queueOf(hydrator.Event{Kind: hydrator.EventAllDispatched})
	require.NoError(t, New(&buf, Options{}).Run(context.Background(), q))

	assert.Equal(t, "event: allPlantsLoaded\ndata:\n\nevent: close\ndata:\n\n", buf.String())
}

func TestPublisher_OnFinal(t *testing.T) {
	t.Parallel()

	var finals []domain.Plant
	opts := Options{OnFinal: func(_ context.Context, p domain.Plant) { finals = append(finals, p) }}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, opts).Run(context.Background(), queueOf(sessionEvents()...)))

	require.Len(t, finals, 1)
	assert.True(t, finals[0].DoneLoading)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestPublisher_DrainsAfterClientLeaves(t *testing.T) {
	t.Parallel()

	finals := 0
	opts := Options{OnFinal: func(context.Context, domain.Plant) { finals++ }}

	err := New(failingWriter{}, opts).Run(context.Background(), queueOf(sessionEvents()...))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
	assert.Equal(t, 1, finals)
}

func TestPublisher_FlushesHTTPResponses(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SetHeaders(rec)
	require.NoError(t, New(rec, Options{}).Run(context.Background(), queueOf(sessionEvents()...)))

	assert.True(t, rec.Flushed)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
	assert.Equal(t, 3, strings.Count(rec.Body.String(), "event: plant\n"))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPublisher_KeepAliveWhileIdle(t *testing.T) {
	t.Parallel()

	out := &syncBuffer{}
	q := hydrator.NewQueue()

	done := make(chan error, 1)
	go func() {
		done <- New(out, Options{KeepAlive: 5 * time.Millisecond}).Run(context.Background(), q)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), ": keep-alive\n\n")
	}, time.Second, time.Millisecond)

	q.Close()
	require.NoError(t, <-done)
	assert.True(t, strings.HasSuffix(out.String(), "event: close\ndata:\n\n"))
}
