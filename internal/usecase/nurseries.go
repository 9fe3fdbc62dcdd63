package usecase

import (
	"context"
	"fmt"

	"PlantScout/internal/domain"
	"PlantScout/internal/ports"
)

// MaxNurseries caps how many nurseries are listed for one zip code.
const MaxNurseries = 10

// Nurseries lists plant sellers near a zip code.
type Nurseries struct {
	repo ports.NurseryRepository
}

// NewNurseries wires the nursery use case.
func NewNurseries(repo ports.NurseryRepository) *Nurseries {
	return &Nurseries{repo: repo}
}

// Near returns up to MaxNurseries nurseries for zip, nearest first. Each has
// a map link. The zip is used as given since distances are stored per zip.
func (n *Nurseries) Near(ctx context.Context, zip string) ([]domain.Nursery, error) {
	nurseries, err := n.repo.FindNurseries(ctx, zip)
	if err != nil {
		return nil, fmt.Errorf("nurseries near %s: %w", zip, err)
	}
	if len(nurseries) > MaxNurseries {
		nurseries = nurseries[:MaxNurseries]
	}

	out := make([]domain.Nursery, 0, len(nurseries))
	for _, nursery := range nurseries {
		if nursery.MapURL == nil {
			nursery.MapURL = domain.StringPtr(nursery.DefaultMapURL())
		}
		out = append(out, nursery)
	}
	return out, nil
}
