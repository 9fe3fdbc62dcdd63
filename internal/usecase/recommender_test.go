package usecase

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PlantScout/internal/domain"
	"PlantScout/internal/hydrator"
	"PlantScout/internal/ports"
	"PlantScout/internal/selector"
)

var errMissing = errors.New("missing")

type memoryRepo struct {
	mu      sync.Mutex
	plants  map[string]domain.Plant
	results map[domain.Query][]string
	counts  map[domain.Query]int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		plants:  map[string]domain.Plant{},
		results: map[domain.Query][]string{},
		counts:  map[domain.Query]int{},
	}
}

func (r *memoryRepo) FindByScientificName(_ context.Context, scientific string) (domain.Plant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.plants[scientific]; ok {
		return p, nil
	}
	return domain.Plant{}, errMissing
}

func (r *memoryRepo) SavePlant(_ context.Context, p domain.Plant) (domain.Plant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := int64(len(r.plants) + 1)
	p.ID = &id
	p.Highlights = nil
	p.DoneLoading = false
	r.plants[p.Scientific] = p
	return p, nil
}

func (r *memoryRepo) LookupQueryResults(_ context.Context, q domain.Query) ([]domain.Plant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var plants []domain.Plant
	for _, name := range r.results[q] {
		plants = append(plants, r.plants[name])
	}
	return plants, nil
}

func (r *memoryRepo) SaveQueryResults(_ context.Context, q domain.Query, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if !slices.Contains(r.results[q], name) {
			r.results[q] = append(r.results[q], name)
		}
	}
	return nil
}

func (r *memoryRepo) QueryCount(_ context.Context, q domain.Query) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[q], nil
}

func (r *memoryRepo) IncrementQueryCount(_ context.Context, q domain.Query) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[q]++
	return nil
}

func (r *memoryRepo) RegionName(context.Context, string) (string, error) {
	return "", errMissing
}

type listStreamer struct {
	text string
	err  error
}

func (s listStreamer) StreamPlants(context.Context, string, domain.Shade, domain.Moisture) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !yield(s.text, nil) {
			return
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

type detailFetcher struct{}

func (detailFetcher) FetchDetail(_ context.Context, kind domain.DetailKind, _ string) (string, error) {
	return string(kind) + " value", nil
}

func newTestRecommender(repo *memoryRepo, streamer listStreamer, sessionLimit int64) *Recommender {
	limiter := hydrator.NewLimiter(2, nil)
	return NewRecommender(RecommenderDeps{
		Selector:     selector.New(selector.Deps{Repository: repo, Streamer: streamer, Limiter: limiter}),
		Coordinator:  hydrator.NewCoordinator(hydrator.Deps{Details: detailFetcher{}, Limiter: limiter}),
		Repository:   repo,
		SessionLimit: sessionLimit,
	})
}

var query = domain.Query{Zip: "48104", Shade: domain.ShadeNone, Moisture: domain.MoistureSome}

func TestRecommender_StreamsAndCaches(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	streamer := listStreamer{text: "scientific: Asclepias tuberosa\ncommon: Butterfly Weed\nscientific: Echinacea purpurea\ncommon: Purple Coneflower\n"}

	var out bytes.Buffer
	require.NoError(t, newTestRecommender(repo, streamer, 0).Recommend(context.Background(), query, &out))

	body := out.String()
	assert.Equal(t, 1, strings.Count(body, "event: allPlantsLoaded\n"))
	assert.Equal(t, 2, strings.Count(body, `"doneLoading":true`))
	assert.True(t, strings.HasSuffix(body, "event: close\ndata:\n\n"))

	saved, err := repo.FindByScientificName(context.Background(), "Asclepias tuberosa")
	require.NoError(t, err)
	require.NotNil(t, saved.Height)
	assert.Equal(t, "height value", *saved.Height)

	assert.ElementsMatch(t, []string{"Asclepias tuberosa", "Echinacea purpurea"}, repo.results[query])
	assert.Equal(t, 1, repo.counts[query])
}

func TestRecommender_StreamErrorClosesSession(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	streamer := listStreamer{text: "garbage", err: errors.New("upstream broke")}

	var out bytes.Buffer
	require.NoError(t, newTestRecommender(repo, streamer, 3).Recommend(context.Background(), query, &out))
	assert.Equal(t, "event: error\ndata:\n\nevent: close\ndata:\n\n", out.String())
	assert.Zero(t, repo.counts[query])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("client gone") }

func TestRecommender_CachesAfterClientLeaves(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	streamer := listStreamer{text: "scientific: Asclepias tuberosa\ncommon: Butterfly Weed\n"}

	err := newTestRecommender(repo, streamer, 0).Recommend(context.Background(), query, failingWriter{})
	require.Error(t, err)

	_, err = repo.FindByScientificName(context.Background(), "Asclepias tuberosa")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.counts[query])
}

func TestRecommender_Plant(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	p := domain.NewPlant("Asclepias tuberosa", "Butterfly Weed")
	p.PollinatorRating = &domain.Rating{Rating: 9}
	_, err := repo.SavePlant(context.Background(), p)
	require.NoError(t, err)

	r := newTestRecommender(repo, listStreamer{}, 0)
	got, err := r.Plant(context.Background(), "Asclepias tuberosa")
	require.NoError(t, err)
	assert.True(t, got.DoneLoading)
	assert.NotEmpty(t, got.Highlights)

	_, err = r.Plant(context.Background(), "Quercus alba")
	require.ErrorIs(t, err, errMissing)
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	q, err := ParseQuery(" 48104 ", "Full Sun", "Some")
	require.NoError(t, err)
	assert.Equal(t, domain.Query{Zip: "48104", Shade: domain.ShadeNone, Moisture: domain.MoistureSome}, q)

	for _, bad := range [][3]string{
		{"4810", "Full Sun", "Low"},
		{"4810a", "Full Sun", "Low"},
		{"48104", "Cloudy", "Low"},
		{"48104", "Full Sun", "Soggy"},
	} {
		_, err := ParseQuery(bad[0], bad[1], bad[2])
		require.ErrorIs(t, err, ErrInvalidQuery, bad)
	}
}

type closestZips map[string]string

func (z closestZips) ClosestZip(_ context.Context, zip string) (string, error) {
	if closest, ok := z[zip]; ok {
		return closest, nil
	}
	return "", ports.ErrNotFound
}

type prefixSearch []domain.Plant

func (s prefixSearch) SearchPlants(_ context.Context, name string) ([]domain.Plant, error) {
	var out []domain.Plant
	for _, p := range s {
		if strings.HasPrefix(strings.ToLower(p.Common), strings.ToLower(name)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestRecommender_UsesClosestKnownZip(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	known := domain.Query{Zip: "48100", Shade: query.Shade, Moisture: query.Moisture}
	_, err := repo.SavePlant(context.Background(), domain.NewPlant("Asclepias tuberosa", "Butterfly Weed"))
	require.NoError(t, err)
	require.NoError(t, repo.SaveQueryResults(context.Background(), known, []string{"Asclepias tuberosa"}))

	r := newTestRecommender(repo, listStreamer{}, 0)
	r.zips = closestZips{"48103": "48100"}

	unknown := domain.Query{Zip: "48103", Shade: query.Shade, Moisture: query.Moisture}
	var out bytes.Buffer
	require.NoError(t, r.Recommend(context.Background(), unknown, &out))
	assert.Contains(t, out.String(), "Asclepias tuberosa")
	assert.Equal(t, 1, repo.counts[known])
	assert.Zero(t, repo.counts[unknown])

	cached, err := r.Cached(context.Background(), unknown)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.True(t, cached[0].DoneLoading)

	stillUnknown := domain.Query{Zip: "99999", Shade: query.Shade, Moisture: query.Moisture}
	cached, err = r.Cached(context.Background(), stillUnknown)
	require.NoError(t, err)
	assert.Empty(t, cached)
}

func TestRecommender_Search(t *testing.T) {
	t.Parallel()

	r := newTestRecommender(newMemoryRepo(), listStreamer{}, 0)
	plants, err := r.Search(context.Background(), "butter")
	require.NoError(t, err)
	assert.NotNil(t, plants)
	assert.Empty(t, plants)

	weed := domain.NewPlant("Asclepias tuberosa", "Butterfly Weed")
	weed.BirdRating = &domain.Rating{Rating: 9}
	r.search = prefixSearch{weed, domain.NewPlant("Echinacea purpurea", "Purple Coneflower")}

	plants, err = r.Search(context.Background(), "butter")
	require.NoError(t, err)
	require.Len(t, plants, 1)
	assert.Equal(t, "Asclepias tuberosa", plants[0].Scientific)
	assert.NotEmpty(t, plants[0].Highlights)
	assert.True(t, plants[0].DoneLoading)
}
