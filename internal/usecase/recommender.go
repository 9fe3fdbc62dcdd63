package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"PlantScout/internal/domain"
	"PlantScout/internal/highlights"
	"PlantScout/internal/hydrator"
	"PlantScout/internal/metrics"
	"PlantScout/internal/ports"
	"PlantScout/internal/publisher"
	"PlantScout/internal/selector"
)

// RecommenderDeps wires the session workflow.
type RecommenderDeps struct {
	Selector    *selector.Selector
	Coordinator *hydrator.Coordinator
	Repository  ports.PlantRepository
	Zips        ports.ZipResolver
	Search      ports.PlantSearcher
	Metrics     *metrics.Metrics
	Logger      *slog.Logger

	KeepAlive time.Duration
	// CancelOnDisconnect stops hydration when the client goes away. By default
	// hydration finishes so every plant is cached.
	CancelOnDisconnect bool
	// SessionLimit > 0 gives each session its own permit pool of that size
	// instead of sharing the coordinator's.
	SessionLimit int64
}

// Recommender runs one recommendation session per request.
type Recommender struct {
	selector           *selector.Selector
	coordinator        *hydrator.Coordinator
	repository         ports.PlantRepository
	zips               ports.ZipResolver
	search             ports.PlantSearcher
	metrics            *metrics.Metrics
	logger             *slog.Logger
	keepAlive          time.Duration
	cancelOnDisconnect bool
	sessionLimit       int64
}

// NewRecommender constructs the session use case.
func NewRecommender(deps RecommenderDeps) *Recommender {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Recommender{
		selector:           deps.Selector,
		coordinator:        deps.Coordinator,
		repository:         deps.Repository,
		zips:               deps.Zips,
		search:             deps.Search,
		metrics:            deps.Metrics,
		logger:             logger,
		keepAlive:          deps.KeepAlive,
		cancelOnDisconnect: deps.CancelOnDisconnect,
		sessionLimit:       deps.SessionLimit,
	}
}

// Recommend streams candidate plants for q to w as server-sent events until
// every plant is fully hydrated. Final plants are cached and linked to q.
// The returned error reports a failed write to w.
func (r *Recommender) Recommend(ctx context.Context, q domain.Query, w io.Writer) error {
	q = r.closestQuery(ctx, q)
	logger := r.logger.With("session", uuid.NewString(), "zip", q.Zip, "shade", q.Shade, "moisture", q.Moisture)
	logger.Info("session started")
	started := time.Now()

	r.metrics.SessionOpened()
	defer r.metrics.SessionClosed()

	hydrationCtx := ctx
	if !r.cancelOnDisconnect {
		hydrationCtx = context.WithoutCancel(ctx)
	}
	persistCtx := context.WithoutCancel(ctx)

	sel := r.selector.WithLogger(logger.With("component", "selector"))
	coord := r.coordinator.WithLogger(logger.With("component", "hydrator"))
	if r.sessionLimit > 0 {
		limiter := hydrator.NewLimiter(r.sessionLimit, r.metrics.InFlight())
		sel = sel.WithLimiter(limiter)
		coord = coord.WithLimiter(limiter)
	}

	var (
		mu    sync.Mutex
		names []string
	)
	onFinal := func(_ context.Context, plant domain.Plant) {
		if r.repository != nil {
			if _, err := r.repository.SavePlant(persistCtx, plant); err != nil {
				logger.Warn("cache plant failed", "plant", plant.Scientific, "error", err)
			}
		}
		mu.Lock()
		names = append(names, plant.Scientific)
		mu.Unlock()
	}

	queue := hydrator.NewQueue()
	go coord.Run(hydrationCtx, sel.Candidates(hydrationCtx, q), queue)

	pub := publisher.New(w, publisher.Options{
		KeepAlive: r.keepAlive,
		OnFinal:   onFinal,
		Metrics:   r.metrics,
		Logger:    logger.With("component", "publisher"),
	})
	writeErr := pub.Run(hydrationCtx, queue)

	mu.Lock()
	finished := append([]string(nil), names...)
	mu.Unlock()

	r.recordQuery(persistCtx, logger, q, finished)
	logger.Info("session finished", "plants", len(finished), "elapsed", time.Since(started), "client_error", writeErr)
	return writeErr
}

func (r *Recommender) recordQuery(ctx context.Context, logger *slog.Logger, q domain.Query, names []string) {
	if r.repository == nil || len(names) == 0 {
		return
	}
	if err := r.repository.SaveQueryResults(ctx, q, names); err != nil {
		logger.Warn("cache query results failed", "error", err)
	}
	if err := r.repository.IncrementQueryCount(ctx, q); err != nil {
		logger.Warn("count query failed", "error", err)
	}
}

// closestQuery moves q to the nearest zip code with known data so unknown
// zips share cached answers with their neighbors. q is kept when no
// neighbor is known.
func (r *Recommender) closestQuery(ctx context.Context, q domain.Query) domain.Query {
	if r.zips == nil {
		return q
	}
	zip, err := r.zips.ClosestZip(ctx, q.Zip)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			r.logger.Warn("closest zip lookup failed", "zip", q.Zip, "error", err)
		}
		return q
	}
	if zip != q.Zip {
		r.logger.Info("adjusted unknown zip", "zip", q.Zip, "closest", zip)
		q.Zip = zip
	}
	return q
}

// Cached returns the plants stored for q, or its closest known zip, without
// asking upstream services.
func (r *Recommender) Cached(ctx context.Context, q domain.Query) ([]domain.Plant, error) {
	if r.repository == nil {
		return []domain.Plant{}, nil
	}
	plants, err := r.repository.LookupQueryResults(ctx, r.closestQuery(ctx, q))
	if err != nil {
		return nil, fmt.Errorf("cached plants: %w", err)
	}
	return withHighlights(plants), nil
}

// Search returns cached plants matching every word prefix in name.
func (r *Recommender) Search(ctx context.Context, name string) ([]domain.Plant, error) {
	if r.search == nil {
		return []domain.Plant{}, nil
	}
	plants, err := r.search.SearchPlants(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("search plants: %w", err)
	}
	return withHighlights(plants), nil
}

// withHighlights derives highlights for stored plants, which never carry them.
func withHighlights(plants []domain.Plant) []domain.Plant {
	out := make([]domain.Plant, 0, len(plants))
	for _, p := range plants {
		p.Highlights = highlights.Generate(p)
		p.DoneLoading = true
		out = append(out, p)
	}
	return out
}

// Plant returns a cached plant with its highlights.
func (r *Recommender) Plant(ctx context.Context, scientific string) (domain.Plant, error) {
	if r.repository == nil {
		return domain.Plant{}, fmt.Errorf("plant %q: %w", scientific, ports.ErrNotFound)
	}
	plant, err := r.repository.FindByScientificName(ctx, scientific)
	if err != nil {
		return domain.Plant{}, fmt.Errorf("plant %q: %w", scientific, err)
	}
	plant.Highlights = highlights.Generate(plant)
	plant.DoneLoading = true
	return plant, nil
}
