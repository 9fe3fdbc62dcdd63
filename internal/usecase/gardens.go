package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"PlantScout/internal/domain"
	"PlantScout/internal/highlights"
	"PlantScout/internal/ports"
)

// ErrInvalidGarden marks a garden that cannot be saved as given.
var ErrInvalidGarden = errors.New("invalid garden")

// GardenDraft is the editable part of a garden.
type GardenDraft struct {
	Name        string
	Description string
	PlantIDs    []int64
}

func (d GardenDraft) validate() (GardenDraft, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	if d.Name == "" {
		return d, fmt.Errorf("%w: name is required", ErrInvalidGarden)
	}
	return d, nil
}

// Gardens saves and shares plant lists.
type Gardens struct {
	repo   ports.GardenRepository
	logger *slog.Logger
}

// NewGardens wires the garden use case.
func NewGardens(repo ports.GardenRepository, logger *slog.Logger) *Gardens {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gardens{repo: repo, logger: logger}
}

// Create stores a new garden for q and returns its read and write ids.
func (g *Gardens) Create(ctx context.Context, q domain.Query, draft GardenDraft) (domain.GardenKeys, error) {
	draft, err := draft.validate()
	if err != nil {
		return domain.GardenKeys{}, err
	}

	keys, err := g.repo.CreateGarden(ctx, domain.Garden{
		Name:        draft.Name,
		Description: draft.Description,
		Zip:         q.Zip,
		Shade:       q.Shade,
		Moisture:    q.Moisture,
	}, draft.PlantIDs)
	if err != nil {
		return domain.GardenKeys{}, fmt.Errorf("create garden: %w", err)
	}
	g.logger.Info("garden created", "read_id", keys.ReadID, "plants", len(draft.PlantIDs))
	return keys, nil
}

// Update replaces the name, description and plants of the garden owning writeID.
func (g *Gardens) Update(ctx context.Context, writeID string, draft GardenDraft) error {
	draft, err := draft.validate()
	if err != nil {
		return err
	}

	garden := domain.Garden{Name: draft.Name, Description: draft.Description}
	if err := g.repo.UpdateGarden(ctx, writeID, garden, draft.PlantIDs); err != nil {
		return fmt.Errorf("update garden: %w", err)
	}
	return nil
}

// Get returns the garden for a read or write id with plant highlights.
func (g *Gardens) Get(ctx context.Context, id string) (domain.Garden, error) {
	garden, err := g.repo.FindGarden(ctx, id)
	if err != nil {
		return domain.Garden{}, fmt.Errorf("garden %q: %w", id, err)
	}
	for i := range garden.Plants {
		garden.Plants[i].Highlights = highlights.Generate(garden.Plants[i])
		garden.Plants[i].DoneLoading = true
	}
	return garden, nil
}
