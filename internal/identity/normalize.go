package identity

import (
	"regexp"
	"strings"
)

var (
	bracketSpan = regexp.MustCompile(`\[[^\]]*\]`)
	parenSpan   = regexp.MustCompile(`\([^)]*\)`)

	// Removed as literal substrings, matching how release folders embed
	// edition tags without reliable word boundaries.
	editionSuffixes = []string{
		"directors cut",
		"director's cut",
		"remastered",
		"extended",
		"theatrical",
		"unrated",
		"special edition",
	}

	punctuationStripper = strings.NewReplacer(
		".", "", ":", "", "'", "", "-", "", ",", "", "!", "", "?", "",
	)

	// Longest numeral first so "viii" is not consumed as "v"+"iii".
	// Whole-word matches only; "visit" must stay intact.
	romanNumerals = []struct {
		pattern *regexp.Regexp
		digit   string
	}{
		{regexp.MustCompile(`\bviii\b`), "8"},
		{regexp.MustCompile(`\bvii\b`), "7"},
		{regexp.MustCompile(`\bvi\b`), "6"},
		{regexp.MustCompile(`\biv\b`), "4"},
		{regexp.MustCompile(`\biii\b`), "3"},
		{regexp.MustCompile(`\bii\b`), "2"},
		{regexp.MustCompile(`\bv\b`), "5"},
		{regexp.MustCompile(`\bi\b`), "1"},
	}
)

// Normalize canonicalizes a title for comparison. The transform is lossy
// and the output is never shown to users.
func Normalize(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))

	t = bracketSpan.ReplaceAllString(t, "")
	t = parenSpan.ReplaceAllString(t, "")

	for _, suffix := range editionSuffixes {
		t = strings.ReplaceAll(t, suffix, "")
	}

	t = strings.TrimPrefix(t, "the ")

	for _, numeral := range romanNumerals {
		t = numeral.pattern.ReplaceAllString(t, numeral.digit)
	}

	t = punctuationStripper.Replace(t)

	return strings.Join(strings.Fields(t), " ")
}
