package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"PlantScout/internal/domain"
)

const conditionQuestions = 6

// Bullets ("- ", " * ") and numbered markers ("1. ", "2) ").
var listPrefixExpr = regexp.MustCompile(`^\s*(?:[-*•]\s*|\d+[.)]\s*)`)

var moistureQuestions = []struct {
	stem     string
	moisture domain.Moisture
}{
	{"low moisture", domain.MoistureNone},
	{"medium moisture", domain.MoistureSome},
	{"high moisture", domain.MoistureLots},
}

var shadeQuestions = []struct {
	stem  string
	shade domain.Shade
}{
	{"full shade", domain.ShadeLots},
	{"partial sun", domain.ShadeSome},
	{"full sun", domain.ShadeNone},
}

// ErrIncompleteConditions is returned when the six answers are not all present
// or one axis has no acceptable value.
var ErrIncompleteConditions = errors.New("extract: incomplete conditions")

// Conditions parses the six yes/no answers about moisture and shade.
func Conditions(text string) (domain.Conditions, error) {
	var (
		conditions domain.Conditions
		answers    int
	)

	for _, line := range strings.Split(strings.ToLower(text), "\n") {
		line = listPrefixExpr.ReplaceAllString(strings.TrimSpace(line), "")
		yes := strings.Contains(line, "yes")

		for _, q := range moistureQuestions {
			if strings.HasPrefix(line, q.stem) {
				answers++
				if yes {
					conditions.Moistures = append(conditions.Moistures, q.moisture)
				}
			}
		}
		for _, q := range shadeQuestions {
			if strings.HasPrefix(line, q.stem) {
				answers++
				if yes {
					conditions.Shades = append(conditions.Shades, q.shade)
				}
			}
		}
	}

	if answers != conditionQuestions {
		return domain.Conditions{}, fmt.Errorf("%w: found %d of %d answers", ErrIncompleteConditions, answers, conditionQuestions)
	}
	if len(conditions.Shades) == 0 {
		return domain.Conditions{}, fmt.Errorf("%w: no acceptable shade", ErrIncompleteConditions)
	}
	if len(conditions.Moistures) == 0 {
		return domain.Conditions{}, fmt.Errorf("%w: no acceptable moisture", ErrIncompleteConditions)
	}

	return conditions, nil
}
