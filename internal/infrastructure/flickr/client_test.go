package flickr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PlantScout/internal/config"
)

func newPhoto(id, title, views string, w, h int) photo {
	p := photo{
		ID:        id,
		Owner:     "owner" + id,
		URLZ:      "https://live.staticflickr.com/" + id + "_z.jpg",
		WidthZ:    w,
		HeightZ:   h,
		Views:     views,
		Title:     title,
		License:   "4",
		OwnerName: "Photographer " + id,
	}
	return p
}

func TestBestPhoto_Ordering(t *testing.T) {
	t.Parallel()

	photos := []photo{
		newPhoto("1", "Meadow", "9000", 640, 480),
		newPhoto("2", "Butterfly weed portrait", "10", 480, 640),
		newPhoto("3", "Asclepias tuberosa in July", "20", 640, 480),
		newPhoto("4", "Asclepias tuberosa close", "5000", 640, 480),
	}

	got := bestPhoto(photos, "Asclepias tuberosa", "Butterfly Weed")
	require.NotNil(t, got)
	assert.Equal(t, "Asclepias tuberosa close", got.Title)
	assert.Equal(t, "https://www.flickr.com/photos/owner4/4", got.OriginalURL)
	assert.Equal(t, "CC BY 2.0", got.License)
	assert.Equal(t, "https://creativecommons.org/licenses/by/2.0/", got.LicenseURL)
}

func TestBestPhoto_Filters(t *testing.T) {
	t.Parallel()

	drawn := newPhoto("5", "Asclepias tuberosa", "100", 640, 480)
	drawn.Description.Content = "A botanical Illustration"
	noZ := newPhoto("6", "Asclepias tuberosa", "100", 640, 480)
	noZ.URLZ = ""
	badViews := newPhoto("7", "Asclepias tuberosa", "lots", 640, 480)
	blocked := newPhoto("37831198204", "Asclepias tuberosa", "100", 640, 480)
	reserved := newPhoto("8", "Asclepias tuberosa", "100", 640, 480)
	reserved.License = "0"

	assert.Nil(t, bestPhoto([]photo{drawn, noZ, badViews, blocked, reserved}, "asclepias tuberosa", "butterfly weed"))
}

func searchServer(t *testing.T, handler func(text string) []photo) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "flickr.photos.search", q.Get("method"))
		assert.Equal(t, "key", q.Get("api_key"))

		var resp searchResponse
		resp.Photos.Photo = handler(q.Get("text"))
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testClient(endpoint string) *Client {
	c := NewClient(config.FlickrConfig{Endpoint: endpoint, APIKey: "key", RequestsPerSecond: 1000, Burst: 10})
	c.retry.InitialDelay = time.Millisecond
	c.retry.MaxDelay = time.Millisecond
	return c
}

func TestFindImage_PrefersBlooming(t *testing.T) {
	t.Parallel()

	srv, calls := searchServer(t, func(text string) []photo {
		if strings.HasSuffix(text, " blooming") {
			return []photo{newPhoto("10", "Asclepias tuberosa bloom", "1", 640, 480)}
		}
		return []photo{newPhoto("11", "Asclepias tuberosa", "99999", 640, 480)}
	})

	got, err := testClient(srv.URL).FindImage(context.Background(), "Butterfly Weed", "Asclepias tuberosa")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Asclepias tuberosa bloom", got.Title)
	assert.EqualValues(t, 2, calls.Load())
}

func TestFindImage_FallsBackThenNone(t *testing.T) {
	t.Parallel()

	srv, _ := searchServer(t, func(text string) []photo {
		if strings.HasSuffix(text, " blooming") {
			return nil
		}
		return []photo{newPhoto("11", "Carex", "3", 640, 480)}
	})

	got, err := testClient(srv.URL).FindImage(context.Background(), "Oak Sedge", "Carex pensylvanica")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Carex", got.Title)

	empty, _ := searchServer(t, func(string) []photo { return nil })
	got, err = testClient(empty.URL).FindImage(context.Background(), "Oak Sedge", "Carex pensylvanica")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindImage_UpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FindImage(context.Background(), "x", "y z")
	require.Error(t, err)
}
