package citation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PlantScout/internal/config"
	"PlantScout/internal/domain"
	"PlantScout/internal/ports"
)

// Finder resolves USDA profiles from a symbol table and Wikipedia articles by
// fetching the page.
type Finder struct {
	client      *http.Client
	usdaBaseURL string
	wikiBaseURL string
	symbols     map[string]string
	userAgent   string
}

var _ ports.CitationFinder = (*Finder)(nil)

// NewFinder wires an HTTP client and the USDA symbol table. A nil client
// defaults to a one second timeout.
func NewFinder(client *http.Client, cfg config.CitationsConfig, symbols map[string]string) *Finder {
	if client == nil {
		client = &http.Client{Timeout: time.Second}
	}
	normalized := make(map[string]string, len(symbols))
	for name, symbol := range symbols {
		normalized[strings.ToLower(name)] = symbol
	}

	return &Finder{
		client:      client,
		usdaBaseURL: cfg.USDABaseURL,
		wikiBaseURL: cfg.WikipediaBaseURL,
		symbols:     normalized,
		userAgent:   "PlantScout/1.0",
	}
}

// LoadSymbols reads a JSON object mapping scientific names to USDA symbols.
func LoadSymbols(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read usda symbols: %w", err)
	}
	var symbols map[string]string
	if err := json.Unmarshal(raw, &symbols); err != nil {
		return nil, fmt.Errorf("parse usda symbols: %w", err)
	}
	return symbols, nil
}

// FindUSDA looks the plant up in the symbol table. No network call is made.
func (f *Finder) FindUSDA(_ context.Context, scientific string) (*domain.Citation, error) {
	symbol, ok := f.symbols[strings.ToLower(strings.TrimSpace(scientific))]
	if !ok {
		return nil, nil
	}
	return &domain.Citation{Label: domain.USDALabel, URL: f.usdaBaseURL + symbol}, nil
}

// FindWikipedia returns the species article when it exists and is not a
// disambiguation page.
func (f *Finder) FindWikipedia(ctx context.Context, scientific string) (*domain.Citation, error) {
	pageURL, ok := wikipediaURL(f.wikiBaseURL, scientific)
	if !ok {
		return nil, nil
	}

	doc, found, err := f.fetchDocument(ctx, pageURL)
	if err != nil || !found {
		return nil, err
	}
	if doc.Find("#disambigbox, .dmbox-disambig").Length() > 0 {
		return nil, nil
	}
	if strings.TrimSpace(doc.Find("#firstHeading").First().Text()) == "" {
		return nil, nil
	}

	return &domain.Citation{Label: domain.WikipediaLabel, URL: pageURL}, nil
}

func (f *Finder) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, nil
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("wikipedia returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("parse document: %w", err)
	}

	return doc, true, nil
}

// wikipediaURL converts "Foo Bar baz" to base+"Foo_bar". Single words have no species page.
func wikipediaURL(base, scientific string) (string, bool) {
	words := strings.Fields(strings.ToLower(scientific))
	if len(words) < 2 {
		return "", false
	}
	genus := strings.ToUpper(words[0][:1]) + words[0][1:]
	return base + genus + "_" + words[1], true
}
