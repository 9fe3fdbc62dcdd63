package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"PlantScout/internal/config"
	"PlantScout/internal/domain"
	"PlantScout/internal/ports"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

// ErrNotFound is returned when a plant or region is not cached.
var ErrNotFound = ports.ErrNotFound

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var plantColumns = []string{
	"id", "scientific_name", "common_name",
	"bloom", "height", "spread",
	"moistures", "shades",
	"pollinator_rating", "pollinator_reason",
	"bird_rating", "bird_reason",
	"animal_rating", "animal_reason",
	"spread_rating", "spread_reason",
	"deer_resistance_rating", "deer_resistance_reason",
	"usda_source", "wiki_source",
	"image",
}

// columns that an upsert only overwrites when the new value is present
var mergedColumns = plantColumns[3:]

// Repository caches hydrated plants and answered queries in Postgres or SQLite.
type Repository struct {
	db      *sql.DB
	driver  string
	builder sq.StatementBuilderType
}

var _ ports.PlantRepository = (*Repository)(nil)

// NewRepository wires a sql.DB implementation. A nil db yields a repository
// that caches nothing.
func NewRepository(db *sql.DB, driver string) *Repository {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == DriverPostgres {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &Repository{db: db, driver: driver, builder: builder}
}

// Open connects to the configured database and applies the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Repository, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == DriverSQLite {
		// single writer avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	repo := NewRepository(db, cfg.Driver)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Migrate creates the tables when they are missing.
func (r *Repository) Migrate(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	schema := sqliteSchema
	if r.driver == DriverPostgres {
		schema = postgresSchema
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// FindByScientificName returns the cached plant or ErrNotFound.
func (r *Repository) FindByScientificName(ctx context.Context, scientific string) (domain.Plant, error) {
	if r.db == nil {
		return domain.Plant{}, ErrNotFound
	}

	query, args, err := r.builder.Select(plantColumns...).
		From("plants").
		Where(sq.Eq{"scientific_name": scientific}).
		ToSql()
	if err != nil {
		return domain.Plant{}, fmt.Errorf("build select plant: %w", err)
	}

	plant, err := scanPlant(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Plant{}, ErrNotFound
	}
	if err != nil {
		return domain.Plant{}, fmt.Errorf("select plant: %w", err)
	}
	return plant, nil
}

// SavePlant upserts by scientific name. Columns already stored are kept when
// the new plant leaves them unset. Returns the stored row.
func (r *Repository) SavePlant(ctx context.Context, plant domain.Plant) (domain.Plant, error) {
	if r.db == nil {
		return plant, nil
	}

	values, err := plantValues(plant)
	if err != nil {
		return domain.Plant{}, err
	}

	updates := make([]string, 0, len(mergedColumns)+2)
	updates = append(updates, "common_name = EXCLUDED.common_name")
	for _, col := range mergedColumns {
		updates = append(updates, fmt.Sprintf("%s = COALESCE(EXCLUDED.%s, plants.%s)", col, col, col))
	}
	updates = append(updates, "updated_at = CURRENT_TIMESTAMP")

	query, args, err := r.builder.Insert("plants").
		Columns(plantColumns[1:]...).
		Values(values...).
		Suffix("ON CONFLICT (scientific_name) DO UPDATE SET " + strings.Join(updates, ", ")).
		ToSql()
	if err != nil {
		return domain.Plant{}, fmt.Errorf("build upsert plant: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Plant{}, fmt.Errorf("upsert plant: %w", err)
	}

	return r.FindByScientificName(ctx, plant.Scientific)
}

// LookupQueryResults returns the plants recorded for a previous identical query.
func (r *Repository) LookupQueryResults(ctx context.Context, q domain.Query) ([]domain.Plant, error) {
	if r.db == nil {
		return nil, nil
	}

	return r.selectPlants(ctx, r.db, r.builder.Select(prefixed("p.", plantColumns)...).
		From("plants p").
		Join("query_plants qp ON qp.plant_id = p.id").
		Where(queryKey("qp.", q)).
		OrderBy("p.id"))
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *Repository) selectPlants(ctx context.Context, db querier, builder sq.SelectBuilder) ([]domain.Plant, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select plants: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select plants: %w", err)
	}
	defer rows.Close()

	var plants []domain.Plant
	for rows.Next() {
		plant, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plant: %w", err)
		}
		plants = append(plants, plant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return plants, nil
}

func prefixed(prefix string, cols []string) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = prefix + col
	}
	return out
}

// SaveQueryResults links the named plants to the query. Unknown names are skipped.
func (r *Repository) SaveQueryResults(ctx context.Context, q domain.Query, scientific []string) error {
	if r.db == nil || len(scientific) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := r.builder.Select("id").
		From("plants").
		Where(sq.Eq{"scientific_name": scientific}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build select ids: %w", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("select ids: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("rows iteration: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close rows: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	insert := r.builder.Insert("query_plants").Columns("zipcode", "shade", "moisture", "plant_id")
	for _, id := range ids {
		insert = insert.Values(q.Zip, string(q.Shade), string(q.Moisture), id)
	}
	query, args, err = insert.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build insert query results: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert query results: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// QueryCount reports how many times the query was answered. Unknown queries count zero.
func (r *Repository) QueryCount(ctx context.Context, q domain.Query) (int, error) {
	if r.db == nil {
		return 0, nil
	}

	query, args, err := r.builder.Select("count").
		From("queries").
		Where(queryKey("", q)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build select query count: %w", err)
	}

	var count int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select query count: %w", err)
	}
	return count, nil
}

// IncrementQueryCount records one more answer for the query.
func (r *Repository) IncrementQueryCount(ctx context.Context, q domain.Query) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.builder.Insert("queries").
		Columns("zipcode", "shade", "moisture", "count").
		Values(q.Zip, string(q.Shade), string(q.Moisture), 1).
		Suffix("ON CONFLICT (zipcode, shade, moisture) DO UPDATE SET count = queries.count + 1").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert query: %w", err)
	}
	return nil
}

// RegionName returns the human name for a zip code or ErrNotFound.
func (r *Repository) RegionName(ctx context.Context, zip string) (string, error) {
	if r.db == nil {
		return "", ErrNotFound
	}

	query, args, err := r.builder.Select("region_name").
		From("zipcodes").
		Where(sq.Eq{"zipcode": zip}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build select region: %w", err)
	}

	var name string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select region: %w", err)
	}
	return name, nil
}

// SaveRegion stores or renames the region for a zip code.
func (r *Repository) SaveRegion(ctx context.Context, zip, name string) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.builder.Insert("zipcodes").
		Columns("zipcode", "region_name").
		Values(zip, name).
		Suffix("ON CONFLICT (zipcode) DO UPDATE SET region_name = EXCLUDED.region_name").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert region: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert region: %w", err)
	}
	return nil
}

func queryKey(prefix string, q domain.Query) sq.Eq {
	return sq.Eq{
		prefix + "zipcode":  q.Zip,
		prefix + "shade":    string(q.Shade),
		prefix + "moisture": string(q.Moisture),
	}
}
