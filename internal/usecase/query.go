package usecase

import (
	"errors"
	"fmt"
	"strings"

	"PlantScout/internal/domain"
)

// ErrInvalidQuery marks a request that cannot be answered as given.
var ErrInvalidQuery = errors.New("invalid query")

// ParseZip trims zip and requires five digits.
func ParseZip(zip string) (string, error) {
	zip = strings.TrimSpace(zip)
	if len(zip) != 5 || strings.Trim(zip, "0123456789") != "" {
		return "", fmt.Errorf("%w: zip %q", ErrInvalidQuery, zip)
	}
	return zip, nil
}

// ParseQuery validates raw request parameters.
func ParseQuery(zip, shade, moisture string) (domain.Query, error) {
	zip, err := ParseZip(zip)
	if err != nil {
		return domain.Query{}, err
	}

	s, err := domain.ParseShade(strings.TrimSpace(shade))
	if err != nil {
		return domain.Query{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	m, err := domain.ParseMoisture(strings.TrimSpace(moisture))
	if err != nil {
		return domain.Query{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	return domain.Query{Zip: zip, Shade: s, Moisture: m}, nil
}
