// Package hydrator fills in optional plant fields from slow upstream lookups
// under a shared concurrency cap and reports progress as a stream of events.
package hydrator

import (
	"context"
	"iter"
	"log/slog"
	"sync"
	"time"

	"PlantScout/internal/domain"
	"PlantScout/internal/highlights"
	"PlantScout/internal/metrics"
	"PlantScout/internal/ports"
)

// Deps wires the lookup collaborators into the coordinator. Any collaborator
// may be nil, in which case its fields are left unset.
type Deps struct {
	Images    ports.ImageFinder
	Ratings   ports.RatingFetcher
	Details   ports.DetailFetcher
	Citations ports.CitationFinder
	Limiter   *Limiter
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Coordinator drives hydration for a stream of drafts.
type Coordinator struct {
	images    ports.ImageFinder
	ratings   ports.RatingFetcher
	details   ports.DetailFetcher
	citations ports.CitationFinder
	limiter   *Limiter
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewCoordinator constructs a coordinator. A nil limiter gets DefaultLimit permits.
func NewCoordinator(deps Deps) *Coordinator {
	limiter := deps.Limiter
	if limiter == nil {
		limiter = NewLimiter(DefaultLimit, deps.Metrics.InFlight())
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		images:    deps.Images,
		ratings:   deps.Ratings,
		details:   deps.Details,
		citations: deps.Citations,
		limiter:   limiter,
		metrics:   deps.Metrics,
		logger:    logger,
	}
}

// WithLimiter returns a copy of c that draws permits from l.
func (c *Coordinator) WithLimiter(l *Limiter) *Coordinator {
	clone := *c
	clone.limiter = l
	return &clone
}

// WithLogger returns a copy of c that logs to logger.
func (c *Coordinator) WithLogger(logger *slog.Logger) *Coordinator {
	clone := *c
	clone.logger = logger
	return &clone
}

// Limiter returns the permit pool used for lookups.
func (c *Coordinator) Limiter() *Limiter {
	return c.limiter
}

type groupResult struct {
	name   string
	plant  domain.Plant
	filled bool
}

// Run reads drafts until the sequence ends, dispatching every group of each
// draft before pulling the next. It pushes Draft, PartialUpdate and Final
// events per record, AllDispatched once the input is exhausted, and Close
// after every record is final. q is closed on return.
//
// A draft sequence error pushes Error and stops intake; records already
// dispatched still run to completion.
func (c *Coordinator) Run(ctx context.Context, drafts iter.Seq2[domain.Plant, error], q *Queue) {
	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		q.Push(Event{Kind: EventClose})
		q.Close()
	}()

	count := 0
	for draft, err := range drafts {
		if err != nil {
			c.logger.Error("candidate stream failed", "error", err, "records", count)
			q.Push(Event{Kind: EventError, Err: err})
			return
		}
		count++
		q.Push(Event{Kind: EventDraft, Plant: draft})
		c.dispatch(ctx, draft, q, &wg)
	}

	c.logger.Debug("all records dispatched", "records", count)
	q.Push(Event{Kind: EventAllDispatched})
}

// dispatch starts every needed group of one record without waiting on them.
func (c *Coordinator) dispatch(ctx context.Context, draft domain.Plant, q *Queue, wg *sync.WaitGroup) {
	groups := c.groups(draft)
	results := make(chan groupResult, len(groups))

	for _, g := range groups {
		go func() {
			results <- c.runGroup(ctx, draft, g)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		current := draft
		for range len(groups) {
			r := <-results
			if !r.filled {
				c.logger.Debug("group produced nothing", "group", r.name, "plant", draft.Scientific)
				continue
			}
			current = domain.Merge(current, r.plant)
			q.Push(Event{Kind: EventPartial, Plant: r.plant})
		}

		current.Highlights = highlights.Generate(current)
		current.DoneLoading = true
		q.Push(Event{Kind: EventFinal, Plant: current})
	}()
}

// runGroup fans out the group's lookups and merges whatever succeeded onto the
// record identity.
func (c *Coordinator) runGroup(ctx context.Context, draft domain.Plant, g group) groupResult {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		filled bool
	)
	partial := draft.Identity()

	for _, l := range g.lookups {
		wg.Add(1)
		go func() {
			defer wg.Done()
			apply, ok := c.runLookup(ctx, draft, l)
			if !ok {
				return
			}
			mu.Lock()
			apply(&partial)
			filled = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	return groupResult{name: g.name, plant: partial, filled: filled}
}

// runLookup holds one limiter permit for the duration of the collaborator call.
func (c *Coordinator) runLookup(ctx context.Context, draft domain.Plant, l lookup) (func(*domain.Plant), bool) {
	start := time.Now()
	apply, err := Do(ctx, c.limiter, l.fetch)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		c.metrics.ObserveLookup(l.name, metrics.OutcomeError, elapsed)
		c.logger.Warn("lookup failed", "lookup", l.name, "plant", draft.Scientific, "error", err)
		return nil, false
	case apply == nil:
		c.metrics.ObserveLookup(l.name, metrics.OutcomeEmpty, elapsed)
		c.logger.Debug("lookup found nothing", "lookup", l.name, "plant", draft.Scientific)
		return nil, false
	default:
		c.metrics.ObserveLookup(l.name, metrics.OutcomeOK, elapsed)
		return apply, true
	}
}
