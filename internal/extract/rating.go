package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNoMatch is returned when the expected pattern is absent from the answer.
	ErrNoMatch = errors.New("extract: no match")
	// ErrOutOfRange is returned for ratings outside 1..10.
	ErrOutOfRange = errors.New("extract: rating out of range")
)

var (
	ratingLabelExpr  = regexp.MustCompile(`(?i)^\s*rating: ?(.*)$`)
	summaryLabelExpr = regexp.MustCompile(`(?i)^\s*summary: ?(.*)$`)

	// Checked in order when no "rating:" label parses.
	ratingFallbacks = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(\d+)\s+out\s+of\s+10\b`),
		regexp.MustCompile(`(?i)\b(\d+)\s+on\s+a\s+scale\s+(?:from|of)\s+1\s*(?:to|-)\s*10\b`),
		regexp.MustCompile(`\b(\d+)\s*/\s*10\b`),
		regexp.MustCompile(`(?i)\brate\b.*?\bas\s+an?\s+(\d+)\b`),
	}
)

// Rating finds the 1-10 score in an LLM answer.
func Rating(text string) (int, error) {
	value, err := findRating(text)
	if err != nil {
		return 0, err
	}
	if value < 1 || value > 10 {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, value)
	}
	return value, nil
}

func findRating(text string) (int, error) {
	for _, line := range strings.Split(text, "\n") {
		m := ratingLabelExpr.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		if value, err := strconv.Atoi(strings.TrimSpace(m[1])); err == nil {
			return value, nil
		}
	}

	for _, expr := range ratingFallbacks {
		m := expr.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if value, err := strconv.Atoi(m[1]); err == nil {
			return value, nil
		}
	}

	return 0, fmt.Errorf("%w: rating not in response", ErrNoMatch)
}

// Summary returns the text after a "summary:" label, or "" when there is none.
func Summary(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if m := summaryLabelExpr.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
