package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PlantScout/internal/domain"
)

func TestRating_Label(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"lowercase":        "Some prose.\n\nsummary: Supports bees.\nrating: 7",
		"capitalized":      "Rating: 7\n",
		"uppercase":        "RATING: 7",
		"indented":         "   rating: 7",
		"tab indented":     "\trating:7",
		"crlf":             "summary: x\r\nrating: 7\r\n",
		"template echoed":  "rating: Your integer rating from 1-10\nrating: 7",
		"label then prose": "rating: 7\nIt is better than 5 out of 10 plants.",
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := Rating(text)
			require.NoError(t, err)
			assert.Equal(t, 7, got)
		})
	}
}

func TestRating_Fallbacks(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want int
	}{
		{"out of", "Overall I'd give it 8 out of 10.", 8},
		{"scale", "It earns a 6 on a scale from 1 to 10.", 6},
		{"scale dash", "It earns a 4 on a scale of 1-10.", 4},
		{"slash", "Score: 9/10", 9},
		{"rate as", "I would rate it as a 5 compared to others.", 5},
		{"rate as an", "I would rate this plant as an 8.", 8},
		{"unparsable label falls through", "rating: 3/10", 3},
		{"pattern order wins", "Maybe 2/10 but really 6 out of 10.", 6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Rating(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRating_Failures(t *testing.T) {
	t.Parallel()

	_, err := Rating("It is a lovely plant.")
	require.ErrorIs(t, err, ErrNoMatch)

	_, err = Rating("rating: 11")
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = Rating("rating: 0")
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestSummary(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Supports bumblebees.", Summary("prose\nSummary: Supports bumblebees.\nrating: 4"))
	assert.Equal(t, "", Summary("rating: 4"))
}

func TestMeasurement(t *testing.T) {
	t.Parallel()

	got, err := Measurement("It typically grows to a height of 18 to 24 inches.\n18\"-24\"")
	require.NoError(t, err)
	assert.Equal(t, `18"-24"`, got)

	got, err = Measurement("Trees reach 10'-20' tall, sometimes 30'-40'.")
	require.NoError(t, err)
	assert.Equal(t, `10'-20'`, got)

	_, err = Measurement("about two feet tall")
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestSeason(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Blooms in early fall, sometimes fall.": "early fall",
		"It starts blooming in Autumn.":         "fall",
		"Late Autumn flowers.":                  "late fall",
		"Summer":                                "summer",
		"This fern does not bloom.":             "N/A",
		"early spring to late spring":           "early spring",
	}

	for text, want := range cases {
		got, err := Season(text)
		require.NoError(t, err, text)
		assert.Equal(t, want, got, text)
	}

	_, err := Season("whenever it likes")
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestConditions(t *testing.T) {
	t.Parallel()

	text := `It thrives along stream banks in moist soil.

- low moisture? no
 - medium moisture? yes
1. high moisture? yes
2) full shade? no
* partial sun? yes
- full sun? yes`

	got, err := Conditions(text)
	require.NoError(t, err)
	assert.Equal(t, []domain.Moisture{domain.MoistureSome, domain.MoistureLots}, got.Moistures)
	assert.Equal(t, []domain.Shade{domain.ShadeSome, domain.ShadeNone}, got.Shades)
}

func TestConditions_FiveLinesFails(t *testing.T) {
	t.Parallel()

	text := `- low moisture? yes
- medium moisture? yes
- high moisture? no
- full shade? no
- full sun? yes`

	_, err := Conditions(text)
	require.ErrorIs(t, err, ErrIncompleteConditions)
}

func TestConditions_EmptyAxisFails(t *testing.T) {
	t.Parallel()

	text := `- low moisture? no
- medium moisture? no
- high moisture? no
- full shade? yes
- partial sun? yes
- full sun? yes`

	_, err := Conditions(text)
	require.ErrorIs(t, err, ErrIncompleteConditions)
}
