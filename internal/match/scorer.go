package match

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Scorer rates how alike a recommended name and a catalog name are.
// Higher is better; the scale is scorer specific.
type Scorer interface {
	Score(a, b string) float64
	// Floor is the running-best value a search starts from. A product
	// is only selected when it scores strictly above it.
	Floor() float64
}

const (
	ScorerGraded  = "graded"
	ScorerBoolean = "boolean"
)

// NewScorer returns the scorer registered under name.
func NewScorer(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ScorerGraded:
		return GradedScorer{}, nil
	case ScorerBoolean:
		return BooleanScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", name)
	}
}

// GradedScorer ignores whitespace and case. Identical names score 100,
// containment in either direction 80, anything else the length of the
// shared leading run.
type GradedScorer struct{}

func (GradedScorer) Score(a, b string) float64 {
	na, nb := compact(a), compact(b)
	if na == nb {
		return 100
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 80
	}
	ra, rb := []rune(na), []rune(nb)
	common := 0
	for common < len(ra) && common < len(rb) && ra[common] == rb[common] {
		common++
	}
	return float64(common)
}

// Floor lets any same-part product win when nothing scores above zero.
func (GradedScorer) Floor() float64 { return -1 }

// BooleanScorer only recognizes containment. An empty name is contained
// in every name.
type BooleanScorer struct{}

func (BooleanScorer) Score(a, b string) float64 {
	la, lb := fold(a), fold(b)
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return 0.8
	}
	return 0
}

func (BooleanScorer) Floor() float64 { return 0 }

func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// compact lowercases s and drops every whitespace rune.
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, fold(s))
}
