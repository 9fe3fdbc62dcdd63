package domain

import (
	"fmt"
	"slices"
)

// Shade describes how much direct sun a garden gets.
type Shade string

const (
	ShadeNone Shade = "Full Sun"
	ShadeSome Shade = "Partial Shade"
	ShadeLots Shade = "Full Shade"
)

// Description is the phrase used inside prompts.
func (s Shade) Description() string {
	switch s {
	case ShadeNone:
		return "full sun"
	case ShadeSome:
		return "partial shade"
	case ShadeLots:
		return "full shade"
	default:
		return string(s)
	}
}

// ParseShade accepts either the display value or the short storage name.
func ParseShade(value string) (Shade, error) {
	switch value {
	case string(ShadeNone), "None":
		return ShadeNone, nil
	case string(ShadeSome), "Some":
		return ShadeSome, nil
	case string(ShadeLots), "Lots":
		return ShadeLots, nil
	default:
		return "", fmt.Errorf("unknown shade %q", value)
	}
}

// Moisture describes how wet the soil stays.
type Moisture string

const (
	MoistureNone Moisture = "Low"
	MoistureSome Moisture = "Medium"
	MoistureLots Moisture = "High"
)

// Description is the phrase used inside prompts.
func (m Moisture) Description() string {
	switch m {
	case MoistureNone:
		return "low moisture"
	case MoistureSome:
		return "medium moisture"
	case MoistureLots:
		return "high moisture"
	default:
		return string(m)
	}
}

// ParseMoisture accepts either the display value or the short storage name.
func ParseMoisture(value string) (Moisture, error) {
	switch value {
	case string(MoistureNone), "None":
		return MoistureNone, nil
	case string(MoistureSome), "Some":
		return MoistureSome, nil
	case string(MoistureLots), "Lots":
		return MoistureLots, nil
	default:
		return "", fmt.Errorf("unknown moisture %q", value)
	}
}

func containsShade(shades []Shade, shade Shade) bool {
	return slices.Contains(shades, shade)
}

func containsMoisture(moistures []Moisture, moisture Moisture) bool {
	return slices.Contains(moistures, moisture)
}

// Query identifies one garden request.
type Query struct {
	Zip      string
	Shade    Shade
	Moisture Moisture
}
