package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Group is every catalog product of one part, in arrival order.
type Group struct {
	Part     string    `json:"part"`
	Required bool      `json:"required"`
	Products []Product `json:"products"`
}

// GroupByPart buckets products by part and orders the buckets with SortGroups.
func GroupByPart(products []Product) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, p := range products {
		part := p.partOrDefault()
		i, ok := index[part]
		if !ok {
			i = len(groups)
			index[part] = i
			groups = append(groups, Group{Part: part, Required: p.IsRequired()})
		}
		groups[i].Products = append(groups[i].Products, p)
	}
	SortGroups(groups)
	return groups
}

// SortGroups puts required parts before optional ones and orders labels
// with Korean collation inside each class. A group's required flag comes
// from its first product.
func SortGroups(groups []Group) {
	col := collate.New(language.Korean)
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Required != b.Required {
			return a.Required
		}
		return col.CompareString(a.Part, b.Part) < 0
	})
}
