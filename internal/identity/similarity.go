package identity

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// MatchThreshold is the default minimum score for a fuzzy catalog match.
const MatchThreshold = 85.0

// Scorer computes a similarity ratio in [0,100] between two strings.
// Implementations must be safe for concurrent use.
type Scorer interface {
	Similarity(a, b string) float64
}

// NewScorer selects a similarity implementation by name. The empty string
// selects the sequence scorer.
func NewScorer(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sequence":
		return sequenceScorer{}, nil
	case "levenshtein":
		return levenshteinScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", name)
	}
}

// Matcher combines a Scorer with threshold and year-gate policy.
type Matcher struct {
	scorer    Scorer
	threshold float64
}

// NewMatcher builds a Matcher. A nil scorer falls back to the sequence
// scorer and a non-positive threshold falls back to MatchThreshold.
func NewMatcher(scorer Scorer, threshold float64) *Matcher {
	if scorer == nil {
		scorer = sequenceScorer{}
	}
	if threshold <= 0 {
		threshold = MatchThreshold
	}
	return &Matcher{scorer: scorer, threshold: threshold}
}

// Score returns the maximum of the direct ratio and the token-sort ratio.
// The token-sort pass makes word-order differences free, which catches
// subtitle-first listings like "Matrix Reloaded, The".
func (m *Matcher) Score(a, b string) float64 {
	ratio := m.scorer.Similarity(a, b)
	tokenRatio := m.scorer.Similarity(sortTokens(a), sortTokens(b))
	return math.Max(ratio, tokenRatio)
}

// TitlesMatch reports whether two titles refer to the same film. When both
// years are known and differ by more than one the titles never match,
// regardless of text similarity.
func (m *Matcher) TitlesMatch(title1, title2 string, year1, year2 int) (bool, float64) {
	if year1 != 0 && year2 != 0 && absInt(year1-year2) > 1 {
		return false, 0
	}
	score := m.Score(Normalize(title1), Normalize(title2))
	return score >= m.threshold, score
}

// Threshold returns the configured match threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// sequenceScorer implements the Ratcliff/Obershelp matching-blocks ratio:
// twice the total length of matched blocks over the combined length.
type sequenceScorer struct{}

func (sequenceScorer) Similarity(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	matched := matchingTotal(ra, rb)
	return float64(2*matched) / float64(total) * 100
}

// matchingTotal finds the longest common substring, then recurses on the
// unmatched pieces to either side.
func matchingTotal(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestCommonRun(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingTotal(a[:ai], b[:bi]) +
		matchingTotal(a[ai+size:], b[bi+size:])
}

func longestCommonRun(a, b []rune) (ai, bi, size int) {
	// lengths[j] is the length of the common run ending at a[i-1], b[j-1].
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			current := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
			prev = current
		}
	}
	return ai, bi, size
}

// levenshteinScorer derives similarity from edit distance. It is the
// simpler fallback implementation; both scorers satisfy the same contract
// and callers never know which is active.
type levenshteinScorer struct{}

func (levenshteinScorer) Similarity(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 100
	}
	distance := levenshtein(ra, rb)
	return (1 - float64(distance)/float64(longest)) * 100
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			current := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = minInt(row[j]+1, minInt(row[j-1]+1, prev+cost))
			prev = current
		}
	}
	return row[len(b)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
