// Package publisher writes a session's hydration events to a client as
// server-sent events.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"PlantScout/internal/domain"
	"PlantScout/internal/hydrator"
	"PlantScout/internal/metrics"
)

// SSE event names understood by the frontend.
const (
	EventPlant           = "plant"
	EventAllPlantsLoaded = "allPlantsLoaded"
	EventError           = "error"
	EventClose           = "close"
)

// DefaultKeepAlive is how often an idle stream gets a comment line.
const DefaultKeepAlive = time.Second

// Options configures a Publisher.
type Options struct {
	// KeepAlive <= 0 disables keep-alive comments.
	KeepAlive time.Duration
	// OnFinal receives every fully hydrated plant, even after the client has gone.
	OnFinal func(ctx context.Context, plant domain.Plant)
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Publisher serializes events onto one writer.
type Publisher struct {
	w         io.Writer
	flusher   http.Flusher
	keepAlive time.Duration
	onFinal   func(context.Context, domain.Plant)
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mu       sync.Mutex
	writeErr error
	closed   bool
}

// New wraps w. If w is an http.Flusher every event is flushed.
func New(w io.Writer, opts Options) *Publisher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	flusher, _ := w.(http.Flusher)

	return &Publisher{
		w:         w,
		flusher:   flusher,
		keepAlive: opts.KeepAlive,
		onFinal:   opts.OnFinal,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// SetHeaders prepares an HTTP response for streaming.
func SetHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// Run consumes q until it is closed and drained or ctx ends. After a write
// failure or a stream error it keeps draining so OnFinal still sees every
// final plant. It returns the first write error.
func (p *Publisher) Run(ctx context.Context, q *hydrator.Queue) error {
	stop := p.startKeepAlive()
	defer stop()

	for {
		e, ok := q.Next(ctx)
		if !ok {
			break
		}
		p.handle(ctx, e)
	}

	p.writeClose()
	return p.err()
}

func (p *Publisher) handle(ctx context.Context, e hydrator.Event) {
	switch e.Kind {
	case hydrator.EventDraft, hydrator.EventPartial:
		p.writePlant(e.Plant)
	case hydrator.EventFinal:
		p.writePlant(e.Plant)
		if p.onFinal != nil {
			p.onFinal(ctx, e.Plant)
		}
	case hydrator.EventAllDispatched:
		p.write(EventAllPlantsLoaded, "")
	case hydrator.EventError:
		p.logger.Warn("session failed", "error", e.Err)
		p.write(EventError, "")
		p.writeClose()
	case hydrator.EventClose:
		p.writeClose()
	}
}

func (p *Publisher) writePlant(plant domain.Plant) {
	data, err := json.Marshal(plant)
	if err != nil {
		p.logger.Error("marshal plant", "plant", plant.Scientific, "error", err)
		return
	}
	p.write(EventPlant, string(data))
}

func (p *Publisher) writeClose() {
	p.mu.Lock()
	already := p.closed
	p.mu.Unlock()
	if already {
		return
	}

	p.write(EventClose, "")

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// write emits one event unless the stream is already closed or broken.
func (p *Publisher) write(event, data string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.writeErr != nil {
		return
	}

	var err error
	if data == "" {
		_, err = fmt.Fprintf(p.w, "event: %s\ndata:\n\n", event)
	} else {
		_, err = fmt.Fprintf(p.w, "event: %s\ndata: %s\n\n", event, data)
	}
	if err != nil {
		p.writeErr = fmt.Errorf("write %s event: %w", event, err)
		p.logger.Info("client went away, draining session", "event", event, "error", err)
		return
	}
	if p.flusher != nil {
		p.flusher.Flush()
	}
	p.metrics.EventWritten(event)
}

func (p *Publisher) startKeepAlive() func() {
	if p.keepAlive <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(p.keepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p.comment("keep-alive")
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func (p *Publisher) comment(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.writeErr != nil {
		return
	}
	if _, err := fmt.Fprintf(p.w, ": %s\n\n", text); err != nil {
		p.writeErr = fmt.Errorf("write keep-alive: %w", err)
		return
	}
	if p.flusher != nil {
		p.flusher.Flush()
	}
}

func (p *Publisher) err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeErr
}
