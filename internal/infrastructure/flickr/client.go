package flickr

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"PlantScout/internal/config"
	"PlantScout/internal/domain"
	"PlantScout/internal/ports"
	"PlantScout/internal/retry"
)

// Every license except "All Rights Reserved".
const searchLicenses = "1,2,3,4,5,6,7,8,9,10"

var licenses = map[string]struct{ name, url string }{
	"1":  {"CC BY-NC-SA 2.0", "https://creativecommons.org/licenses/by-nc-sa/2.0/"},
	"2":  {"CC BY-NC 2.0", "https://creativecommons.org/licenses/by-nc/2.0/"},
	"3":  {"CC BY-NC-ND 2.0", "https://creativecommons.org/licenses/by-nc-nd/2.0/"},
	"4":  {"CC BY 2.0", "https://creativecommons.org/licenses/by/2.0/"},
	"5":  {"CC BY-SA 2.0", "https://creativecommons.org/licenses/by-sa/2.0/"},
	"6":  {"CC BY-ND 2.0", "https://creativecommons.org/licenses/by-nd/2.0/"},
	"7":  {"No known copyright restrictions", "https://www.flickr.com/commons/usage/"},
	"8":  {"US Government Work", "http://www.usa.gov/copyright.shtml"},
	"9":  {"CC0", "https://creativecommons.org/publicdomain/zero/1.0/"},
	"10": {"Public Domain Mark 1.0", "https://creativecommons.org/publicdomain/mark/1.0/"},
}

// Photos that match searches but make poor cards.
var blockedPhotos = map[string]bool{
	"37831198204": true,
	"17332010645": true,
	"43826520262": true,
	"41085999240": true,
	"26596674001": true,
	"37356079394": true,
}

// Words hinting at drawings rather than photos.
var blockedWords = []string{"drawn", "illustration", "dried wildflowers", "illustrated"}

// Client implements ports.ImageFinder using the Flickr photo search API.
type Client struct {
	endpoint string
	apiKey   string
	limiter  *rate.Limiter
	retry    retry.Config
	http     *http.Client
}

var _ ports.ImageFinder = (*Client)(nil)

// NewClient creates a reusable HTTP client that stays under the configured request rate.
func NewClient(cfg config.FlickrConfig) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		retry: retry.Config{
			MaxAttempts:  4,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     500 * time.Millisecond,
			Multiplier:   2,
			AddJitter:    true,
		},
		http: &http.Client{Timeout: 2 * time.Second},
	}
}

type searchResponse struct {
	Photos struct {
		Photo []photo `json:"photo"`
	} `json:"photos"`
}

type photo struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	URLZ        string `json:"url_z"`
	HeightZ     int    `json:"height_z"`
	WidthZ      int    `json:"width_z"`
	Views       string `json:"views"`
	Title       string `json:"title"`
	License     string `json:"license"`
	OwnerName   string `json:"ownername"`
	Description struct {
		Content string `json:"_content"`
	} `json:"description"`
}

// FindImage prefers a photo of the plant in bloom and falls back to any photo.
// Both searches run concurrently.
func (c *Client) FindImage(ctx context.Context, common, scientific string) (*domain.Image, error) {
	var blooming, fallback searchResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		blooming, err = c.search(gctx, scientific+" blooming")
		return err
	})
	g.Go(func() (err error) {
		fallback, err = c.search(gctx, scientific)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	name := strings.ReplaceAll(scientific, " spp.", "")
	if image := bestPhoto(blooming.Photos.Photo, name, common); image != nil {
		return image, nil
	}
	return bestPhoto(fallback.Photos.Photo, name, common), nil
}

func (c *Client) search(ctx context.Context, text string) (searchResponse, error) {
	query := url.Values{
		"method":          {"flickr.photos.search"},
		"api_key":         {c.apiKey},
		"text":            {text},
		"media":           {"photos"},
		"format":          {"json"},
		"nojsoncallback":  {"1"},
		"extras":          {"views,url_q,url_z,license,owner_name,description"},
		"min_upload_date": {"2015-01-01"},
		"sort":            {"relevance"},
		"license":         {searchLicenses},
	}

	return retry.DoWithResult(ctx, c.retry, func() (searchResponse, error) {
		var out searchResponse
		if err := c.limiter.Wait(ctx); err != nil {
			return out, retry.NonRetryable(fmt.Errorf("rate limit: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
		if err != nil {
			return out, retry.NonRetryable(fmt.Errorf("new request: %w", err))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return out, fmt.Errorf("photo search: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("unexpected status %s", resp.Status)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				return out, err
			}
			return out, retry.NonRetryable(err)
		}

		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return out, retry.NonRetryable(fmt.Errorf("decode response: %w", err))
		}
		return out, nil
	})
}

// bestPhoto ranks usable photos by: title names the plant, landscape, views.
func bestPhoto(photos []photo, scientific, common string) *domain.Image {
	scientific = strings.ToLower(scientific)
	common = strings.ToLower(common)

	type candidate struct {
		photo     photo
		views     int
		named     bool
		landscape bool
	}

	var candidates []candidate
	for _, p := range photos {
		if p.URLZ == "" || blockedPhotos[p.ID] {
			continue
		}
		views, err := strconv.Atoi(p.Views)
		if err != nil {
			continue
		}
		if _, ok := licenses[p.License]; !ok {
			continue
		}
		title := strings.ToLower(p.Title)
		if hasBlockedWord(title) || hasBlockedWord(strings.ToLower(p.Description.Content)) {
			continue
		}

		candidates = append(candidates, candidate{
			photo:     p,
			views:     views,
			named:     strings.Contains(title, scientific) || (common != "" && strings.Contains(title, common)),
			landscape: p.WidthZ >= p.HeightZ,
		})
	}
	if len(candidates) == 0 {
		return nil
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		if a.named != b.named {
			return boolOrder(a.named)
		}
		if a.landscape != b.landscape {
			return boolOrder(a.landscape)
		}
		return cmp.Compare(b.views, a.views)
	})

	best := candidates[0].photo
	license := licenses[best.License]
	return &domain.Image{
		Title:       best.Title,
		CardURL:     best.URLZ,
		OriginalURL: fmt.Sprintf("https://www.flickr.com/photos/%s/%s", best.Owner, best.ID),
		Author:      best.OwnerName,
		License:     license.name,
		LicenseURL:  license.url,
	}
}

func boolOrder(first bool) int {
	if first {
		return -1
	}
	return 1
}

func hasBlockedWord(text string) bool {
	for _, word := range blockedWords {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
