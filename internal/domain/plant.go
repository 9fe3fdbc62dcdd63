package domain

// Plant is the unit of work: created as a draft by the list parser and
// hydrated field by field until DoneLoading.
type Plant struct {
	ID         *int64 `json:"id,omitempty"`
	Scientific string `json:"scientific"`
	Common     string `json:"common"`

	Image                *Image    `json:"image,omitempty"`
	PollinatorRating     *Rating   `json:"pollinatorRating,omitempty"`
	BirdRating           *Rating   `json:"birdRating,omitempty"`
	AnimalRating         *Rating   `json:"animalRating,omitempty"`
	SpreadRating         *Rating   `json:"spreadRating,omitempty"`
	DeerResistanceRating *Rating   `json:"deerResistanceRating,omitempty"`
	Height               *string   `json:"height,omitempty"`
	Spread               *string   `json:"spread,omitempty"`
	Bloom                *string   `json:"bloom,omitempty"`
	USDASource           *Citation `json:"usdaSource,omitempty"`
	WikiSource           *Citation `json:"wikiSource,omitempty"`

	Shades     []Shade     `json:"shades,omitempty"`
	Moistures  []Moisture  `json:"moistures,omitempty"`
	Highlights []Highlight `json:"highlights,omitempty"`

	DoneLoading bool `json:"doneLoading"`
}

// NewPlant builds a draft carrying only the identity fields.
func NewPlant(scientific, common string) Plant {
	return Plant{Scientific: scientific, Common: common}
}

// Identity returns a copy holding only the identity fields.
func (p Plant) Identity() Plant {
	return Plant{ID: p.ID, Scientific: p.Scientific, Common: p.Common}
}

// Tolerates reports whether the plant is known to thrive in both conditions.
func (p Plant) Tolerates(shade Shade, moisture Moisture) bool {
	return containsShade(p.Shades, shade) && containsMoisture(p.Moistures, moisture)
}

// Merge returns a new plant where each optional field comes from left when
// present and from right otherwise. Identity always comes from left.
func Merge(left, right Plant) Plant {
	merged := left
	merged.ID = firstPtr(left.ID, right.ID)
	merged.Image = firstPtr(left.Image, right.Image)
	merged.PollinatorRating = firstPtr(left.PollinatorRating, right.PollinatorRating)
	merged.BirdRating = firstPtr(left.BirdRating, right.BirdRating)
	merged.AnimalRating = firstPtr(left.AnimalRating, right.AnimalRating)
	merged.SpreadRating = firstPtr(left.SpreadRating, right.SpreadRating)
	merged.DeerResistanceRating = firstPtr(left.DeerResistanceRating, right.DeerResistanceRating)
	merged.Height = firstPtr(left.Height, right.Height)
	merged.Spread = firstPtr(left.Spread, right.Spread)
	merged.Bloom = firstPtr(left.Bloom, right.Bloom)
	merged.USDASource = firstPtr(left.USDASource, right.USDASource)
	merged.WikiSource = firstPtr(left.WikiSource, right.WikiSource)
	merged.Shades = firstSlice(left.Shades, right.Shades)
	merged.Moistures = firstSlice(left.Moistures, right.Moistures)
	merged.Highlights = firstSlice(left.Highlights, right.Highlights)
	merged.DoneLoading = false
	return merged
}

func firstPtr[T any](left, right *T) *T {
	if left != nil {
		return left
	}
	return right
}

func firstSlice[T any](left, right []T) []T {
	if len(left) > 0 {
		return left
	}
	return right
}

// Rating is a 1-10 score with the model's justification.
type Rating struct {
	Rating int    `json:"rating"`
	Reason string `json:"reason,omitempty"`
}

// Citation labels for the two reference sources.
const (
	USDALabel      = "USDA"
	WikipediaLabel = "Wikipedia"
)

// Citation points at an external reference for the plant.
type Citation struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Image is an attributed photo of the plant.
type Image struct {
	ID          *int64 `json:"id,omitempty"`
	Title       string `json:"title"`
	CardURL     string `json:"cardUrl"`
	OriginalURL string `json:"originalUrl"`
	Author      string `json:"author"`
	License     string `json:"license"`
	LicenseURL  string `json:"licenseUrl"`
}

// Conditions lists every shade and moisture level a plant thrives in.
type Conditions struct {
	Shades    []Shade
	Moistures []Moisture
}

// StringPtr is a helper for optional string fields.
func StringPtr(s string) *string {
	return &s
}
