// Package match reconciles free-text part names with catalog products.
package match

import (
	"github.com/pc-assembly-helper/recommender/internal/catalog"
)

type Matcher struct {
	scorer Scorer
}

func NewMatcher(scorer Scorer) *Matcher {
	if scorer == nil {
		scorer = GradedScorer{}
	}
	return &Matcher{scorer: scorer}
}

// BestMatch returns the product of the given part whose name scores highest
// against name. Products are visited in order and the best is only replaced
// on a strictly greater score, so the earliest of equal scores wins.
func (m *Matcher) BestMatch(name, part string, products []catalog.Product) (catalog.Product, bool) {
	best := -1
	bestScore := m.scorer.Floor()
	for i, p := range products {
		if p.Part != part {
			continue
		}
		if score := m.scorer.Score(p.Name, name); score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		return catalog.Product{}, false
	}
	return products[best], true
}
