package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"PlantScout/internal/domain"
	"PlantScout/internal/ports"
)

var _ ports.NurseryRepository = (*Repository)(nil)

// FindNurseries lists nurseries linked to zip, nearest first.
func (r *Repository) FindNurseries(ctx context.Context, zip string) ([]domain.Nursery, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := r.builder.Select(
		"n.name", "n.url", "n.map_url", "n.address", "n.city", "n.state", "n.zipcode", "zn.miles",
	).
		From("zipcodes_nurseries zn").
		Join("nurseries n ON n.id = zn.nursery_id").
		Where(sq.Eq{"zn.zipcode": zip}).
		OrderBy("zn.miles", "n.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select nurseries: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select nurseries: %w", err)
	}
	defer rows.Close()

	var nurseries []domain.Nursery
	for rows.Next() {
		var (
			n           domain.Nursery
			url, mapURL sql.NullString
		)
		if err := rows.Scan(&n.Name, &url, &mapURL, &n.Address, &n.City, &n.State, &n.Zip, &n.Miles); err != nil {
			return nil, fmt.Errorf("scan nursery: %w", err)
		}
		n.URL = stringPtr(url)
		n.MapURL = stringPtr(mapURL)
		nurseries = append(nurseries, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return nurseries, nil
}

// SaveNursery upserts a nursery by name and zip code and returns its id.
func (r *Repository) SaveNursery(ctx context.Context, n domain.Nursery) (int64, error) {
	if r.db == nil {
		return 0, ErrUnavailable
	}

	query, args, err := r.builder.Insert("nurseries").
		Columns("name", "url", "map_url", "address", "city", "state", "zipcode").
		Values(n.Name, nullString(n.URL), nullString(n.MapURL), n.Address, n.City, n.State, n.Zip).
		Suffix("ON CONFLICT (name, zipcode) DO UPDATE SET " +
			"url = EXCLUDED.url, map_url = EXCLUDED.map_url, address = EXCLUDED.address, " +
			"city = EXCLUDED.city, state = EXCLUDED.state RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build upsert nursery: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert nursery: %w", err)
	}
	return id, nil
}

// LinkNursery records that a nursery serves zip from the given distance.
func (r *Repository) LinkNursery(ctx context.Context, zip string, nurseryID int64, miles int) error {
	if r.db == nil {
		return ErrUnavailable
	}

	query, args, err := r.builder.Insert("zipcodes_nurseries").
		Columns("zipcode", "nursery_id", "miles").
		Values(zip, nurseryID, miles).
		Suffix("ON CONFLICT (zipcode, nursery_id) DO UPDATE SET miles = EXCLUDED.miles").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert nursery link: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert nursery link: %w", err)
	}
	return nil
}
