package extract

import (
	"fmt"
	"regexp"
	"strings"
)

var measurementExpr = regexp.MustCompile(`[0-9]+['"]-[0-9]+['"]`)

// Most specific phrases first so "early fall" wins over "fall".
var seasons = []string{
	"early spring",
	"late spring",
	"spring",
	"early summer",
	"late summer",
	"summer",
	"early fall",
	"late fall",
	"fall",
	"early autumn",
	"late autumn",
	"autumn",
	"does not bloom",
}

// Measurement returns the first range like 18"-24" or 10'-20' verbatim.
func Measurement(text string) (string, error) {
	if m := measurementExpr.FindString(text); m != "" {
		return m, nil
	}
	return "", fmt.Errorf("%w: measurement not in response", ErrNoMatch)
}

// Season returns the normalized bloom season named in the text.
func Season(text string) (string, error) {
	lower := strings.ToLower(text)
	for _, season := range seasons {
		if strings.Contains(lower, season) {
			normalized := strings.ReplaceAll(season, "autumn", "fall")
			return strings.ReplaceAll(normalized, "does not bloom", "N/A"), nil
		}
	}
	return "", fmt.Errorf("%w: season not in response", ErrNoMatch)
}
