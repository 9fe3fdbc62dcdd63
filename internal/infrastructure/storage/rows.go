package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"PlantScout/internal/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// plantValues lists the insert values in plantColumns order, without id.
func plantValues(p domain.Plant) ([]any, error) {
	var image any
	if p.Image != nil {
		raw, err := json.Marshal(p.Image)
		if err != nil {
			return nil, fmt.Errorf("encode image: %w", err)
		}
		image = string(raw)
	}

	values := []any{
		p.Scientific, p.Common,
		nullString(p.Bloom), nullString(p.Height), nullString(p.Spread),
		joinValues(p.Moistures), joinValues(p.Shades),
	}
	for _, kind := range domain.RatingKinds {
		rating, reason := ratingValues(*kind.RatingField(&p))
		values = append(values, rating, reason)
	}
	values = append(values, citationURL(p.USDASource), citationURL(p.WikiSource), image)
	return values, nil
}

func scanPlant(row rowScanner) (domain.Plant, error) {
	var (
		id                   int64
		plant                domain.Plant
		bloom, height        sql.NullString
		spread               sql.NullString
		moistures, shades    sql.NullString
		ratings              [5]sql.NullInt64
		reasons              [5]sql.NullString
		usda, wiki, rawImage sql.NullString
	)

	err := row.Scan(
		&id, &plant.Scientific, &plant.Common,
		&bloom, &height, &spread,
		&moistures, &shades,
		&ratings[0], &reasons[0],
		&ratings[1], &reasons[1],
		&ratings[2], &reasons[2],
		&ratings[3], &reasons[3],
		&ratings[4], &reasons[4],
		&usda, &wiki,
		&rawImage,
	)
	if err != nil {
		return domain.Plant{}, err
	}

	plant.ID = &id
	plant.Bloom = stringPtr(bloom)
	plant.Height = stringPtr(height)
	plant.Spread = stringPtr(spread)

	for i, kind := range domain.RatingKinds {
		if ratings[i].Valid {
			*kind.RatingField(&plant) = &domain.Rating{Rating: int(ratings[i].Int64), Reason: reasons[i].String}
		}
	}

	if usda.Valid {
		plant.USDASource = &domain.Citation{Label: domain.USDALabel, URL: usda.String}
	}
	if wiki.Valid {
		plant.WikiSource = &domain.Citation{Label: domain.WikipediaLabel, URL: wiki.String}
	}

	if rawImage.Valid {
		var image domain.Image
		if err := json.Unmarshal([]byte(rawImage.String), &image); err != nil {
			return domain.Plant{}, fmt.Errorf("decode image: %w", err)
		}
		plant.Image = &image
	}

	if plant.Shades, err = splitValues(shades, domain.ParseShade); err != nil {
		return domain.Plant{}, err
	}
	if plant.Moistures, err = splitValues(moistures, domain.ParseMoisture); err != nil {
		return domain.Plant{}, err
	}

	return plant, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func ratingValues(r *domain.Rating) (any, any) {
	if r == nil {
		return nil, nil
	}
	return r.Rating, r.Reason
}

func citationURL(c *domain.Citation) any {
	if c == nil {
		return nil
	}
	return c.URL
}

func joinValues[T ~string](values []T) any {
	if len(values) == 0 {
		return nil
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ",")
}

func splitValues[T ~string](raw sql.NullString, parse func(string) (T, error)) ([]T, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	parts := strings.Split(raw.String, ",")
	values := make([]T, 0, len(parts))
	for _, part := range parts {
		v, err := parse(part)
		if err != nil {
			return nil, fmt.Errorf("decode conditions: %w", err)
		}
		values = append(values, v)
	}
	return values, nil
}
