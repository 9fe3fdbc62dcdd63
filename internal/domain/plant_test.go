package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMerge_PrefersLeft keeps present values from the running state.
func TestMerge_PrefersLeft(t *testing.T) {
	t.Parallel()

	left := NewPlant("Asclepias incarnata", "Swamp Milkweed")
	left.Height = StringPtr(`3'-5'`)

	right := NewPlant("ignored", "ignored")
	right.Height = StringPtr(`1'-2'`)
	right.Bloom = StringPtr("summer")

	merged := Merge(left, right)

	assert.Equal(t, "Asclepias incarnata", merged.Scientific)
	assert.Equal(t, "Swamp Milkweed", merged.Common)
	require.NotNil(t, merged.Height)
	assert.Equal(t, `3'-5'`, *merged.Height)
	require.NotNil(t, merged.Bloom)
	assert.Equal(t, "summer", *merged.Bloom)
}

// TestMerge_NeverUnhydrates ensures absent right values do not clear left values.
func TestMerge_NeverUnhydrates(t *testing.T) {
	t.Parallel()

	left := NewPlant("Lobelia cardinalis", "Cardinal Flower")
	left.BirdRating = &Rating{Rating: 8, Reason: "hummingbirds"}
	left.Shades = []Shade{ShadeSome}

	merged := Merge(left, NewPlant("Lobelia cardinalis", "Cardinal Flower"))

	require.NotNil(t, merged.BirdRating)
	assert.Equal(t, 8, merged.BirdRating.Rating)
	assert.Equal(t, []Shade{ShadeSome}, merged.Shades)
	assert.False(t, merged.DoneLoading)
}

// TestPlant_Tolerates requires both axes to match.
func TestPlant_Tolerates(t *testing.T) {
	t.Parallel()

	p := NewPlant("Iris versicolor", "Blue Flag Iris")
	p.Shades = []Shade{ShadeNone, ShadeSome}
	p.Moistures = []Moisture{MoistureLots}

	assert.True(t, p.Tolerates(ShadeSome, MoistureLots))
	assert.False(t, p.Tolerates(ShadeLots, MoistureLots))
	assert.False(t, p.Tolerates(ShadeNone, MoistureNone))
}

func TestParseShadeAndMoisture(t *testing.T) {
	t.Parallel()

	shade, err := ParseShade("Partial Shade")
	require.NoError(t, err)
	assert.Equal(t, ShadeSome, shade)

	shade, err = ParseShade("Lots")
	require.NoError(t, err)
	assert.Equal(t, ShadeLots, shade)

	moisture, err := ParseMoisture("Low")
	require.NoError(t, err)
	assert.Equal(t, MoistureNone, moisture)

	_, err = ParseMoisture("soggy")
	assert.Error(t, err)
}

func TestNursery_DefaultMapURL(t *testing.T) {
	t.Parallel()

	n := Nursery{Name: "Native Roots Farm", Zip: "2134"}
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=Native+Roots+Farm+near+02134", n.DefaultMapURL())
}
