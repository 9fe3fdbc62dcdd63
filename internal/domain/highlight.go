package domain

// HighlightCategory grades a highlight from best to worst.
type HighlightCategory string

const (
	HighlightGreat HighlightCategory = "great"
	HighlightGood  HighlightCategory = "good"
	HighlightBad   HighlightCategory = "bad"
	HighlightWorse HighlightCategory = "worse"
)

// Rank orders categories, higher is better.
func (c HighlightCategory) Rank() int {
	switch c {
	case HighlightGreat:
		return 4
	case HighlightGood:
		return 3
	case HighlightBad:
		return 2
	case HighlightWorse:
		return 1
	default:
		return 0
	}
}

// Highlight is a short badge shown on a plant card.
type Highlight struct {
	Label    string            `json:"label"`
	Category HighlightCategory `json:"category"`
	Priority int               `json:"-"`
}
