// Package prompt holds the closed set of questions asked of the LLM. Each kind
// pairs the text sent to the model with the extractor that reads the answer.
package prompt

import (
	"fmt"
	"strings"

	"PlantScout/internal/domain"
	"PlantScout/internal/extract"
)

const (
	listSystem   = "You are a helpful assistant"
	detailSystem = "You are a discerning gardener who carefully follows formatting instructions."
)

// Spec is everything needed to issue one chat completion.
type Spec struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
	Stream      bool
}

// Parser turns a raw model answer into a typed value.
type Parser[T any] func(text string) (T, error)

// Prompt is one question and the way to read its answer.
type Prompt[T any] struct {
	Spec  Spec
	Parse Parser[T]
}

func detailSpec(text string) Spec {
	return Spec{
		System:      detailSystem,
		User:        text,
		MaxTokens:   750,
		Temperature: 0.1,
	}
}

// List asks for candidate plants in the "scientific:/common:" line format.
func List(region string, shade domain.Shade, moisture domain.Moisture) Spec {
	s := strings.ToUpper(shade.Description())
	m := strings.ToUpper(moisture.Description())
	text := fmt.Sprintf(`Choose thirty plants for a new gardener's garden which are NATIVE near %s.
Their garden is in %s and %s.
Only suggest plants which do well in %s and %s.
Do NOT suggest plants which do better in other conditions.

No prose.  Your entire response will be formatted like:

scientific: Scientific Name
common: Common Name

scientific: Scientific Name
common: Common Name
`, region, s, m, s, m)

	return Spec{
		System:      listSystem,
		User:        text,
		MaxTokens:   500,
		Temperature: 0.5,
		Stream:      true,
	}
}

// Rating returns the prompt for one rating kind.
func Rating(kind domain.RatingKind, name string) (Prompt[domain.Rating], error) {
	build, ok := ratingTexts[kind]
	if !ok {
		return Prompt[domain.Rating]{}, fmt.Errorf("unknown rating kind %q", kind)
	}
	return Prompt[domain.Rating]{Spec: detailSpec(build(name)), Parse: parseRating}, nil
}

// Detail returns the prompt for one detail kind.
func Detail(kind domain.DetailKind, name string) (Prompt[string], error) {
	switch kind {
	case domain.DetailHeight:
		return Prompt[string]{Spec: detailSpec(heightText(name)), Parse: extract.Measurement}, nil
	case domain.DetailSpread:
		return Prompt[string]{Spec: detailSpec(spreadText(name)), Parse: extract.Measurement}, nil
	case domain.DetailBloom:
		return Prompt[string]{Spec: detailSpec(bloomText(name)), Parse: extract.Season}, nil
	default:
		return Prompt[string]{}, fmt.Errorf("unknown detail kind %q", kind)
	}
}

// Conditions asks the six yes/no questions about shade and moisture.
func Conditions(name string) Prompt[domain.Conditions] {
	text := fmt.Sprintf(`Your goal is to answer six yes/no questions about shade and moisture conditions where %s will thrive.  First, describe growing conditions where it will thrive in 40-50 words.

Then, use this format to answer the six questions:
- low moisture? yes/no
- medium moisture? yes/no
- high moisture? yes/no
- full shade? yes/no
- partial sun? yes/no
- full sun? yes/no`, name)

	return Prompt[domain.Conditions]{Spec: detailSpec(text), Parse: extract.Conditions}
}

func parseRating(text string) (domain.Rating, error) {
	value, err := extract.Rating(text)
	if err != nil {
		return domain.Rating{}, err
	}
	return domain.Rating{Rating: value, Reason: extract.Summary(text)}, nil
}
