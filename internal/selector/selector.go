// Package selector decides which plants a query starts from: cached answers
// first, then a fresh LLM list, deduplicated and optionally filtered by the
// growing conditions each plant tolerates.
package selector

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/cases"

	"PlantScout/internal/domain"
	"PlantScout/internal/hydrator"
	"PlantScout/internal/metrics"
	"PlantScout/internal/ports"
	"PlantScout/internal/recordparser"
)

// DefaultCachedQueryLimit is how many answers a query needs before the LLM is skipped.
const DefaultCachedQueryLimit = 3

// Deps wires the selector. Conditions may be nil, which disables filtering.
type Deps struct {
	Repository       ports.PlantRepository
	Streamer         ports.PlantStreamer
	Conditions       ports.ConditionsFetcher
	Limiter          *hydrator.Limiter
	CachedQueryLimit int
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
}

// Selector produces candidate plants for a query.
type Selector struct {
	repo       ports.PlantRepository
	streamer   ports.PlantStreamer
	conditions ports.ConditionsFetcher
	limiter    *hydrator.Limiter
	cacheLimit int
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New constructs a selector.
func New(deps Deps) *Selector {
	limit := deps.CachedQueryLimit
	if limit <= 0 {
		limit = DefaultCachedQueryLimit
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = hydrator.NewLimiter(hydrator.DefaultLimit, nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Selector{
		repo:       deps.Repository,
		streamer:   deps.Streamer,
		conditions: deps.Conditions,
		limiter:    limiter,
		cacheLimit: limit,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// WithLimiter returns a copy of s whose conditions lookups draw from l.
func (s *Selector) WithLimiter(l *hydrator.Limiter) *Selector {
	clone := *s
	clone.limiter = l
	return &clone
}

// WithLogger returns a copy of s that logs to logger.
func (s *Selector) WithLogger(logger *slog.Logger) *Selector {
	clone := *s
	clone.logger = logger
	return &clone
}

// Candidates yields cached plants for q, then plants streamed from the LLM.
// A stream failure is yielded once and ends the sequence.
func (s *Selector) Candidates(ctx context.Context, q domain.Query) iter.Seq2[domain.Plant, error] {
	seq := s.unfiltered(ctx, q)
	seq = dedupe(seq)
	seq = s.fromCache(ctx, seq)
	if s.conditions != nil {
		seq = s.tolerating(ctx, q, seq)
	}
	return seq
}

func (s *Selector) unfiltered(ctx context.Context, q domain.Query) iter.Seq2[domain.Plant, error] {
	return func(yield func(domain.Plant, error) bool) {
		cached := s.cachedResults(ctx, q)
		for _, plant := range cached {
			if !yield(plant, nil) {
				return
			}
		}

		if !s.shouldAskLLM(ctx, q) {
			return
		}
		if s.streamer == nil {
			return
		}

		region := s.regionName(ctx, q.Zip)
		for plant, err := range recordparser.Parse(s.streamer.StreamPlants(ctx, region, q.Shade, q.Moisture)) {
			if !yield(plant, err) || err != nil {
				return
			}
		}
	}
}

func (s *Selector) cachedResults(ctx context.Context, q domain.Query) []domain.Plant {
	if s.repo == nil {
		return nil
	}
	plants, err := s.repo.LookupQueryResults(ctx, q)
	if err != nil {
		s.logger.Warn("cached query lookup failed", "zip", q.Zip, "error", err)
		return nil
	}
	if len(plants) > 0 {
		s.metrics.CacheHit("query")
	}
	return plants
}

// shouldAskLLM is false once the query has been answered often enough, and for
// full shade with dry soil, which the LLM never has answers for.
func (s *Selector) shouldAskLLM(ctx context.Context, q domain.Query) bool {
	if q.Shade == domain.ShadeLots && q.Moisture == domain.MoistureNone {
		return false
	}
	if s.repo == nil {
		return true
	}
	count, err := s.repo.QueryCount(ctx, q)
	if err != nil {
		s.logger.Warn("query count lookup failed", "zip", q.Zip, "error", err)
		return true
	}
	return count < s.cacheLimit
}

func (s *Selector) regionName(ctx context.Context, zip string) string {
	if s.repo != nil {
		if name, err := s.repo.RegionName(ctx, zip); err == nil && name != "" {
			return name
		}
	}
	return fmt.Sprintf("US Zip Code %s", zip)
}

// dedupe drops plants whose common name was already seen. Names are compared
// case-folded with everything but letters removed.
func dedupe(seq iter.Seq2[domain.Plant, error]) iter.Seq2[domain.Plant, error] {
	return func(yield func(domain.Plant, error) bool) {
		seen := make(map[string]struct{})
		for plant, err := range seq {
			if err == nil {
				key := commonKey(plant.Common)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			if !yield(plant, err) {
				return
			}
		}
	}
}

func commonKey(common string) string {
	folded := cases.Fold().String(common)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, folded)
}

// fromCache swaps a fresh draft for the stored plant with the same scientific name.
func (s *Selector) fromCache(ctx context.Context, seq iter.Seq2[domain.Plant, error]) iter.Seq2[domain.Plant, error] {
	return func(yield func(domain.Plant, error) bool) {
		for plant, err := range seq {
			if err == nil && plant.ID == nil && s.repo != nil {
				if stored, lookupErr := s.repo.FindByScientificName(ctx, plant.Scientific); lookupErr == nil {
					s.metrics.CacheHit("plant")
					plant = stored
				}
			}
			if !yield(plant, err) {
				return
			}
		}
	}
}

type candidate struct {
	plant domain.Plant
	err   error
}

// tolerating fetches missing conditions concurrently under the shared limiter
// and keeps plants that thrive in the requested shade and moisture. Plants
// whose conditions cannot be fetched are dropped. Output order follows
// lookup completion.
func (s *Selector) tolerating(ctx context.Context, q domain.Query, seq iter.Seq2[domain.Plant, error]) iter.Seq2[domain.Plant, error] {
	return func(yield func(domain.Plant, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		out := make(chan candidate)
		send := func(c candidate) {
			select {
			case out <- c:
			case <-ctx.Done():
			}
		}

		go func() {
			var wg sync.WaitGroup
			defer close(out)

			for plant, err := range seq {
				if err != nil {
					wg.Wait()
					send(candidate{err: err})
					return
				}
				if ctx.Err() != nil {
					break
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					if plant, ok := s.withConditions(ctx, plant); ok && plant.Tolerates(q.Shade, q.Moisture) {
						send(candidate{plant: plant})
					}
				}()
			}
			wg.Wait()
		}()

		for c := range out {
			if !yield(c.plant, c.err) {
				cancel()
				for range out {
				}
				return
			}
		}
	}
}

func (s *Selector) withConditions(ctx context.Context, plant domain.Plant) (domain.Plant, bool) {
	if len(plant.Shades) > 0 && len(plant.Moistures) > 0 {
		return plant, true
	}

	start := time.Now()
	conditions, err := hydrator.Do(ctx, s.limiter, func(ctx context.Context) (domain.Conditions, error) {
		return s.conditions.FetchConditions(ctx, plant.Scientific)
	})
	if err != nil {
		s.metrics.ObserveLookup("conditions", metrics.OutcomeError, time.Since(start))
		s.logger.Warn("conditions lookup failed", "plant", plant.Scientific, "error", err)
		return plant, false
	}
	s.metrics.ObserveLookup("conditions", metrics.OutcomeOK, time.Since(start))

	plant.Shades = conditions.Shades
	plant.Moistures = conditions.Moistures
	return plant, true
}
