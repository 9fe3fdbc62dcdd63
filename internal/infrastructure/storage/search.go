package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"PlantScout/internal/domain"
	"PlantScout/internal/ports"
)

const (
	minSearchLength = 3
	searchLimit     = 50
)

var (
	_ ports.ZipResolver   = (*Repository)(nil)
	_ ports.PlantSearcher = (*Repository)(nil)
)

// ClosestZip returns zip when it has a region, otherwise the numerically
// nearest zip that does. Ties go to the higher zip.
func (r *Repository) ClosestZip(ctx context.Context, zip string) (string, error) {
	if len(zip) != 5 || strings.Trim(zip, "0123456789") != "" {
		return "", fmt.Errorf("invalid zip code %q", zip)
	}
	if r.db == nil {
		return "", ErrNotFound
	}

	query, args, err := r.builder.Select("zipcode").From("zipcodes").Where(sq.Eq{"zipcode": zip}).ToSql()
	if err != nil {
		return "", fmt.Errorf("build select zip: %w", err)
	}
	var exact string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&exact)
	switch {
	case err == nil:
		return exact, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("select zip: %w", err)
	}

	prev, err := r.neighborZip(ctx, "MAX(zipcode)", sq.Lt{"zipcode": zip})
	if err != nil {
		return "", err
	}
	next, err := r.neighborZip(ctx, "MIN(zipcode)", sq.Gt{"zipcode": zip})
	if err != nil {
		return "", err
	}

	switch {
	case !prev.Valid && !next.Valid:
		return "", ErrNotFound
	case !next.Valid:
		return prev.String, nil
	case !prev.Valid:
		return next.String, nil
	case zipDistance(zip, prev.String) < zipDistance(zip, next.String):
		return prev.String, nil
	default:
		return next.String, nil
	}
}

func (r *Repository) neighborZip(ctx context.Context, column string, where sq.Sqlizer) (sql.NullString, error) {
	var zip sql.NullString
	query, args, err := r.builder.Select(column).From("zipcodes").Where(where).ToSql()
	if err != nil {
		return zip, fmt.Errorf("build select neighbor zip: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&zip); err != nil {
		return zip, fmt.Errorf("select neighbor zip: %w", err)
	}
	return zip, nil
}

func zipDistance(a, b string) int {
	x, _ := strconv.Atoi(a)
	y, _ := strconv.Atoi(b)
	if x > y {
		return x - y
	}
	return y - x
}

// SearchPlants returns cached plants where every word of text starts a word
// of the scientific or common name. Text shorter than three characters
// matches nothing.
func (r *Repository) SearchPlants(ctx context.Context, text string) ([]domain.Plant, error) {
	if r.db == nil || len(strings.TrimSpace(text)) < minSearchLength {
		return nil, nil
	}

	words := searchWords(text)
	if len(words) == 0 {
		return nil, nil
	}

	where := sq.And{}
	for _, word := range words {
		where = append(where, sq.Or{
			sq.Like{"LOWER(p.scientific_name)": word + "%"},
			sq.Like{"LOWER(p.scientific_name)": "% " + word + "%"},
			sq.Like{"LOWER(p.common_name)": word + "%"},
			sq.Like{"LOWER(p.common_name)": "% " + word + "%"},
		})
	}

	return r.selectPlants(ctx, r.db, r.builder.Select(prefixed("p.", plantColumns)...).
		From("plants p").
		Where(where).
		OrderBy("p.common_name", "p.id").
		Limit(searchLimit))
}

// searchWords lowercases text and strips LIKE wildcards from each word.
func searchWords(text string) []string {
	var words []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.Map(func(r rune) rune {
			if r == '%' || r == '_' || r == '\\' {
				return -1
			}
			return r
		}, field)
		if word != "" {
			words = append(words, word)
		}
	}
	return words
}
