package citation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PlantScout/internal/config"
)

func TestWikipediaURL(t *testing.T) {
	t.Parallel()

	base := "https://en.wikipedia.org/wiki/"
	cases := map[string]string{
		"foo bar":     base + "Foo_bar",
		"Foo Bar":     base + "Foo_bar",
		"Foo Bar Baz": base + "Foo_bar",
	}
	for in, want := range cases {
		got, ok := wikipediaURL(base, in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}

	_, ok := wikipediaURL(base, "Foo")
	assert.False(t, ok)
}

func wikiServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PlantScout/1.0", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/wiki/Asclepias_tuberosa":
			w.Write([]byte(`<html><body><h1 id="firstHeading">Asclepias tuberosa</h1></body></html>`))
		case "/wiki/Mercury_planet":
			w.Write([]byte(`<html><body><h1 id="firstHeading">Mercury</h1><div id="disambigbox">may refer to</div></body></html>`))
		case "/wiki/Broken_page":
			http.Error(w, "oops", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFindWikipedia(t *testing.T) {
	t.Parallel()

	srv := wikiServer(t)
	f := NewFinder(srv.Client(), config.CitationsConfig{WikipediaBaseURL: srv.URL + "/wiki/"}, nil)
	ctx := context.Background()

	got, err := f.FindWikipedia(ctx, "Asclepias tuberosa")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Wikipedia", got.Label)
	assert.Equal(t, srv.URL+"/wiki/Asclepias_tuberosa", got.URL)

	got, err = f.FindWikipedia(ctx, "Mercury planet")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = f.FindWikipedia(ctx, "Unknown species")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = f.FindWikipedia(ctx, "Broken page")
	require.Error(t, err)
}

func TestFindUSDA(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "usda_symbols.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Asclepias tuberosa":"ASTU"}`), 0o600))

	symbols, err := LoadSymbols(path)
	require.NoError(t, err)

	f := NewFinder(nil, config.CitationsConfig{USDABaseURL: "https://plants.usda.gov/home/plantProfile?symbol="}, symbols)

	got, err := f.FindUSDA(context.Background(), "asclepias TUBEROSA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "USDA", got.Label)
	assert.Equal(t, "https://plants.usda.gov/home/plantProfile?symbol=ASTU", got.URL)

	got, err = f.FindUSDA(context.Background(), "Quercus alba")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadSymbols_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadSymbols(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[`), 0o600))
	_, err = LoadSymbols(path)
	require.Error(t, err)
}
