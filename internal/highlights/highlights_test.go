package highlights

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"PlantScout/internal/domain"
)

func rating(v int) *domain.Rating {
	return &domain.Rating{Rating: v}
}

func labels(list []domain.Highlight) []string {
	out := make([]string, 0, len(list))
	for _, h := range list {
		out = append(out, h.Label)
	}
	return out
}

func TestGenerate_TopThreeThenCategory(t *testing.T) {
	t.Parallel()

	plant := domain.NewPlant("Solidago canadensis", "Canada Goldenrod")
	plant.PollinatorRating = rating(9)
	plant.BirdRating = rating(6)
	plant.AnimalRating = rating(7)
	plant.SpreadRating = rating(8)
	plant.DeerResistanceRating = rating(8)

	got := Generate(plant)
	assert.Equal(t, []string{"Deer resistant", "Great for pollinators", "Spreads aggressively"}, labels(got))
	assert.Equal(t, domain.HighlightWorse, got[2].Category)
}

func TestGenerate_LowRatingsIgnored(t *testing.T) {
	t.Parallel()

	plant := domain.NewPlant("A a", "A")
	plant.PollinatorRating = rating(5)
	plant.SpreadRating = rating(2)

	assert.Nil(t, Generate(plant))
}

func TestGenerate_Fillers(t *testing.T) {
	t.Parallel()

	plant := domain.NewPlant("Carex pensylvanica", "Oak Sedge")
	plant.Shades = []domain.Shade{domain.ShadeSome, domain.ShadeLots}
	plant.Moistures = []domain.Moisture{domain.MoistureNone}

	assert.Equal(t, []string{"Grows in shade", "Grows in dry soil"}, labels(Generate(plant)))
}

func TestGenerate_FillersOnlyWithoutRatingBadges(t *testing.T) {
	t.Parallel()

	plant := domain.NewPlant("A a", "A")
	plant.BirdRating = rating(6)
	plant.Shades = []domain.Shade{domain.ShadeLots}

	assert.Equal(t, []string{"Good for birds"}, labels(Generate(plant)))
}
