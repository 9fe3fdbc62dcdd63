package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"PlantScout/internal/domain"
	"PlantScout/internal/ports"
)

// ErrUnavailable is returned for garden writes without a database.
var ErrUnavailable = ports.ErrUnavailable

const (
	readIDLength  = 5
	gardenIDTries = 5
)

var _ ports.GardenRepository = (*Repository)(nil)

type dbtx interface {
	querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateGarden stores a garden and its plants, returning a short id for
// sharing and a long id for editing. Unknown plant ids are skipped.
func (r *Repository) CreateGarden(ctx context.Context, garden domain.Garden, plantIDs []int64) (domain.GardenKeys, error) {
	if r.db == nil {
		return domain.GardenKeys{}, ErrUnavailable
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.GardenKeys{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	readID, err := r.unusedGardenID(ctx, tx, func() string { return rand.Text()[:readIDLength] })
	if err != nil {
		return domain.GardenKeys{}, err
	}
	writeID, err := r.unusedGardenID(ctx, tx, uuid.NewString)
	if err != nil {
		return domain.GardenKeys{}, err
	}

	query, args, err := r.builder.Insert("gardens").
		Columns("read_id", "write_id", "name", "description", "zipcode", "shade", "moisture").
		Values(readID, writeID, garden.Name, garden.Description, garden.Zip, string(garden.Shade), string(garden.Moisture)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.GardenKeys{}, fmt.Errorf("build insert garden: %w", err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return domain.GardenKeys{}, fmt.Errorf("insert garden: %w", err)
	}

	if err := r.replaceGardenPlants(ctx, tx, id, plantIDs); err != nil {
		return domain.GardenKeys{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.GardenKeys{}, fmt.Errorf("commit: %w", err)
	}
	return domain.GardenKeys{ReadID: readID, WriteID: writeID}, nil
}

// UpdateGarden renames the garden owning writeID and replaces its plants.
func (r *Repository) UpdateGarden(ctx context.Context, writeID string, garden domain.Garden, plantIDs []int64) error {
	if r.db == nil {
		return ErrUnavailable
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := r.builder.Update("gardens").
		Set("name", garden.Name).
		Set("description", garden.Description).
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"write_id": writeID}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update garden: %w", err)
	}
	var id int64
	err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update garden: %w", err)
	}

	if err := r.replaceGardenPlants(ctx, tx, id, plantIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FindGarden looks id up as a read id, then as a write id. Only a write id
// returns an editable garden carrying its WriteID.
func (r *Repository) FindGarden(ctx context.Context, id string) (domain.Garden, error) {
	if r.db == nil {
		return domain.Garden{}, ErrNotFound
	}

	gardenID, garden, err := r.selectGarden(ctx, sq.Eq{"g.read_id": id})
	if errors.Is(err, ErrNotFound) {
		gardenID, garden, err = r.selectGarden(ctx, sq.Eq{"g.write_id": id})
		if err == nil {
			garden.ReadOnly = false
			garden.WriteID = id
		}
	}
	if err != nil {
		return domain.Garden{}, err
	}

	plants, err := r.selectPlants(ctx, r.db, r.builder.Select(prefixed("p.", plantColumns)...).
		From("plants p").
		Join("garden_plants gp ON gp.plant_id = p.id").
		Where(sq.Eq{"gp.garden_id": gardenID}).
		OrderBy("gp.position"))
	if err != nil {
		return domain.Garden{}, err
	}
	garden.Plants = append([]domain.Plant{}, plants...)
	return garden, nil
}

func (r *Repository) selectGarden(ctx context.Context, where sq.Eq) (int64, domain.Garden, error) {
	query, args, err := r.builder.Select(
		"g.id", "g.read_id", "g.name", "g.description", "g.zipcode", "z.region_name", "g.shade", "g.moisture",
	).
		From("gardens g").
		LeftJoin("zipcodes z ON z.zipcode = g.zipcode").
		Where(where).
		ToSql()
	if err != nil {
		return 0, domain.Garden{}, fmt.Errorf("build select garden: %w", err)
	}

	var (
		id              int64
		garden          domain.Garden
		region          sql.NullString
		shade, moisture string
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&id, &garden.ReadID, &garden.Name, &garden.Description, &garden.Zip, &region, &shade, &moisture,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.Garden{}, ErrNotFound
	}
	if err != nil {
		return 0, domain.Garden{}, fmt.Errorf("select garden: %w", err)
	}

	if garden.Shade, err = domain.ParseShade(shade); err != nil {
		return 0, domain.Garden{}, fmt.Errorf("decode garden: %w", err)
	}
	if garden.Moisture, err = domain.ParseMoisture(moisture); err != nil {
		return 0, domain.Garden{}, fmt.Errorf("decode garden: %w", err)
	}
	garden.RegionName = stringPtr(region)
	garden.ReadOnly = true
	return id, garden, nil
}

// unusedGardenID draws ids until one is neither a read nor a write id.
func (r *Repository) unusedGardenID(ctx context.Context, tx dbtx, next func() string) (string, error) {
	for range gardenIDTries {
		id := next()
		query, args, err := r.builder.Select("1").
			From("gardens").
			Where(sq.Or{sq.Eq{"read_id": id}, sq.Eq{"write_id": id}}).
			ToSql()
		if err != nil {
			return "", fmt.Errorf("build select garden id: %w", err)
		}
		var one int
		err = tx.QueryRowContext(ctx, query, args...).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("select garden id: %w", err)
		}
	}
	return "", fmt.Errorf("no unused garden id after %d tries", gardenIDTries)
}

// replaceGardenPlants keeps the first occurrence of each known plant id in
// request order.
func (r *Repository) replaceGardenPlants(ctx context.Context, tx dbtx, gardenID int64, plantIDs []int64) error {
	query, args, err := r.builder.Delete("garden_plants").Where(sq.Eq{"garden_id": gardenID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete garden plants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete garden plants: %w", err)
	}
	if len(plantIDs) == 0 {
		return nil
	}

	known, err := r.knownPlantIDs(ctx, tx, plantIDs)
	if err != nil {
		return err
	}

	insert := r.builder.Insert("garden_plants").Columns("garden_id", "plant_id", "position")
	seen := make(map[int64]bool, len(plantIDs))
	position := 0
	for _, id := range plantIDs {
		if !known[id] || seen[id] {
			continue
		}
		seen[id] = true
		insert = insert.Values(gardenID, id, position)
		position++
	}
	if position == 0 {
		return nil
	}

	query, args, err = insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert garden plants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert garden plants: %w", err)
	}
	return nil
}

func (r *Repository) knownPlantIDs(ctx context.Context, tx dbtx, plantIDs []int64) (map[int64]bool, error) {
	query, args, err := r.builder.Select("id").From("plants").Where(sq.Eq{"id": plantIDs}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select plant ids: %w", err)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select plant ids: %w", err)
	}
	defer rows.Close()

	known := make(map[int64]bool, len(plantIDs))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan plant id: %w", err)
		}
		known[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return known, nil
}
