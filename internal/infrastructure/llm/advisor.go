package llm

import (
	"context"
	"fmt"

	"PlantScout/internal/domain"
	"PlantScout/internal/ports"
	"PlantScout/internal/prompt"
)

// Completer returns the full answer to one prompt.
type Completer interface {
	Complete(ctx context.Context, spec prompt.Spec) (string, error)
}

// Advisor answers per-plant questions by prompting the model and extracting
// the answer.
type Advisor struct {
	llm Completer
}

var (
	_ ports.RatingFetcher     = (*Advisor)(nil)
	_ ports.DetailFetcher     = (*Advisor)(nil)
	_ ports.ConditionsFetcher = (*Advisor)(nil)
)

// NewAdvisor wraps a completer.
func NewAdvisor(llm Completer) *Advisor {
	return &Advisor{llm: llm}
}

// FetchRating asks how well the plant does for one rating kind.
func (a *Advisor) FetchRating(ctx context.Context, kind domain.RatingKind, common string) (domain.Rating, error) {
	p, err := prompt.Rating(kind, common)
	if err != nil {
		return domain.Rating{}, err
	}
	return ask(ctx, a.llm, p, "rating "+string(kind))
}

// FetchDetail asks for one measurement or season.
func (a *Advisor) FetchDetail(ctx context.Context, kind domain.DetailKind, common string) (string, error) {
	p, err := prompt.Detail(kind, common)
	if err != nil {
		return "", err
	}
	return ask(ctx, a.llm, p, "detail "+string(kind))
}

// FetchConditions asks which shade and moisture levels the plant tolerates.
func (a *Advisor) FetchConditions(ctx context.Context, scientific string) (domain.Conditions, error) {
	return ask(ctx, a.llm, prompt.Conditions(scientific), "conditions")
}

func ask[T any](ctx context.Context, llm Completer, p prompt.Prompt[T], what string) (T, error) {
	var zero T

	text, err := llm.Complete(ctx, p.Spec)
	if err != nil {
		return zero, fmt.Errorf("complete %s: %w", what, err)
	}

	value, err := p.Parse(text)
	if err != nil {
		return zero, fmt.Errorf("parse %s: %w", what, err)
	}
	return value, nil
}
