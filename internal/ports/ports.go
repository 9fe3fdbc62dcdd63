package ports

import (
	"context"
	"errors"
	"iter"

	"PlantScout/internal/domain"
)

// ImageFinder searches for a licensed photo of a plant. A nil image means none was found.
type ImageFinder interface {
	FindImage(ctx context.Context, common, scientific string) (*domain.Image, error)
}

// RatingFetcher asks the LLM to rate one aspect of a plant.
type RatingFetcher interface {
	FetchRating(ctx context.Context, kind domain.RatingKind, common string) (domain.Rating, error)
}

// DetailFetcher asks the LLM for one physical fact about a plant.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, kind domain.DetailKind, common string) (string, error)
}

// ConditionsFetcher asks the LLM which shade and moisture levels a plant tolerates.
type ConditionsFetcher interface {
	FetchConditions(ctx context.Context, scientific string) (domain.Conditions, error)
}

// CitationFinder resolves reference pages. A nil citation means the source has no page.
type CitationFinder interface {
	FindUSDA(ctx context.Context, scientific string) (*domain.Citation, error)
	FindWikipedia(ctx context.Context, scientific string) (*domain.Citation, error)
}

// PlantStreamer streams raw candidate text from the LLM as it is generated.
type PlantStreamer interface {
	StreamPlants(ctx context.Context, region string, shade domain.Shade, moisture domain.Moisture) iter.Seq2[string, error]
}

// ErrNotFound is returned by repositories for missing plants, regions and gardens.
var ErrNotFound = errors.New("not found")

// ErrUnavailable is returned for writes when no database is configured.
var ErrUnavailable = errors.New("storage unavailable")

// PlantRepository caches hydrated plants and the answers to previous queries.
type PlantRepository interface {
	FindByScientificName(ctx context.Context, scientific string) (domain.Plant, error)
	SavePlant(ctx context.Context, plant domain.Plant) (domain.Plant, error)
	LookupQueryResults(ctx context.Context, query domain.Query) ([]domain.Plant, error)
	SaveQueryResults(ctx context.Context, query domain.Query, scientific []string) error
	QueryCount(ctx context.Context, query domain.Query) (int, error)
	IncrementQueryCount(ctx context.Context, query domain.Query) error
	RegionName(ctx context.Context, zip string) (string, error)
}

// ZipResolver maps a zip code to the closest one with known data.
type ZipResolver interface {
	ClosestZip(ctx context.Context, zip string) (string, error)
}

// PlantSearcher finds cached plants whose names start with every given word.
type PlantSearcher interface {
	SearchPlants(ctx context.Context, words string) ([]domain.Plant, error)
}

// GardenRepository stores saved gardens. FindGarden accepts a read or write id.
type GardenRepository interface {
	CreateGarden(ctx context.Context, garden domain.Garden, plantIDs []int64) (domain.GardenKeys, error)
	UpdateGarden(ctx context.Context, writeID string, garden domain.Garden, plantIDs []int64) error
	FindGarden(ctx context.Context, id string) (domain.Garden, error)
}

// NurseryRepository lists nurseries serving a zip code, nearest first.
type NurseryRepository interface {
	FindNurseries(ctx context.Context, zip string) ([]domain.Nursery, error)
}
