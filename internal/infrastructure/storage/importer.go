package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"PlantScout/internal/domain"
)

// ImportRegions loads a CSV with zip and region columns into the zip code
// table. Returns the number of rows stored.
func (r *Repository) ImportRegions(ctx context.Context, src io.Reader) (int, error) {
	if r.db == nil {
		return 0, ErrUnavailable
	}
	return readRecords(src, []string{"zip", "region"}, func(rec record) error {
		zip, err := rec.zip("zip")
		if err != nil {
			return err
		}
		return r.SaveRegion(ctx, zip, rec.get("region"))
	})
}

// ImportNurseries loads a CSV with name, url, address, city, state, zip,
// served_zip and miles columns. A nursery appears once per served zip.
func (r *Repository) ImportNurseries(ctx context.Context, src io.Reader) (int, error) {
	if r.db == nil {
		return 0, ErrUnavailable
	}
	cols := []string{"name", "url", "address", "city", "state", "zip", "served_zip", "miles"}
	return readRecords(src, cols, func(rec record) error {
		zip, err := rec.zip("zip")
		if err != nil {
			return err
		}
		served, err := rec.zip("served_zip")
		if err != nil {
			return err
		}
		miles, err := strconv.ParseFloat(rec.get("miles"), 64)
		if err != nil {
			return fmt.Errorf("miles: %w", err)
		}

		n := domain.Nursery{
			Name:    rec.get("name"),
			Address: rec.get("address"),
			City:    rec.get("city"),
			State:   rec.get("state"),
			Zip:     zip,
		}
		if url := rec.get("url"); url != "" {
			n.URL = &url
		}
		id, err := r.SaveNursery(ctx, n)
		if err != nil {
			return err
		}
		return r.LinkNursery(ctx, served, id, int(miles+0.5))
	})
}

type record struct {
	index  map[string]int
	fields []string
}

func (r record) get(col string) string {
	return strings.TrimSpace(r.fields[r.index[col]])
}

// zip left-pads numeric zips that lost their leading zeros.
func (r record) zip(col string) (string, error) {
	zip := r.get(col)
	if zip == "" || len(zip) > 5 || strings.Trim(zip, "0123456789") != "" {
		return "", fmt.Errorf("%s: invalid zip code %q", col, zip)
	}
	return strings.Repeat("0", 5-len(zip)) + zip, nil
}

func readRecords(src io.Reader, required []string, store func(rec record) error) (int, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	stored := 0
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return stored, nil
		}
		if err != nil {
			return stored, fmt.Errorf("line %d: %w", line, err)
		}
		if len(fields) < len(header) {
			return stored, fmt.Errorf("line %d: want %d fields, got %d", line, len(header), len(fields))
		}
		if err := store(record{index: index, fields: fields}); err != nil {
			return stored, fmt.Errorf("line %d: %w", line, err)
		}
		stored++
	}
}
