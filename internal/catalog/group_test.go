package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func partsOf(groups []Group) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Part)
	}
	return out
}

func TestGroupByPart_RequiredFirstThenAlphabetical(t *testing.T) {
	products := []Product{
		{Part: "SSD", Name: "삼성전자 970 EVO Plus 500GB", Required: boolPtr(true)},
		{Part: "케이스", Name: "ABKO NCORE", Required: boolPtr(false)},
		{Part: "CPU", Name: "AMD 라이젠 5 5600X", Required: boolPtr(true)},
	}

	groups := GroupByPart(products)

	assert.Equal(t, []string{"CPU", "SSD", "케이스"}, partsOf(groups))
	assert.False(t, groups[2].Required)
}

func TestGroupByPart_RequiredDefaultsToTrue(t *testing.T) {
	products := []Product{
		{Part: "케이스", Name: "darkFlash DLM21", Required: boolPtr(false)},
		{Part: "메모리", Name: "삼성전자 DDR4 16GB"},
		{Part: "CPU", Name: "Intel Core i5-12400F"},
	}

	groups := GroupByPart(products)

	assert.Equal(t, []string{"CPU", "메모리", "케이스"}, partsOf(groups))
	assert.True(t, groups[0].Required)
	assert.True(t, groups[1].Required)
}

func TestGroupByPart_KeepsProductOrderAndDefaultsPart(t *testing.T) {
	products := []Product{
		{Part: "CPU", Name: "first"},
		{Name: "orphan"},
		{Part: "CPU", Name: "second"},
	}

	groups := GroupByPart(products)

	require.Len(t, groups, 2)
	assert.Equal(t, "CPU", groups[0].Part)
	assert.Equal(t, "first", groups[0].Products[0].Name)
	assert.Equal(t, "second", groups[0].Products[1].Name)
	assert.Equal(t, OtherPart, groups[1].Part)
}

func TestGroupByPart_RequiredComesFromFirstProduct(t *testing.T) {
	products := []Product{
		{Part: "쿨러", Name: "a", Required: boolPtr(false)},
		{Part: "쿨러", Name: "b", Required: boolPtr(true)},
		{Part: "파워서플라이", Name: "c"},
	}

	groups := GroupByPart(products)

	assert.Equal(t, []string{"파워서플라이", "쿨러"}, partsOf(groups))
}

func TestGroupByPart_Empty(t *testing.T) {
	assert.Empty(t, GroupByPart(nil))
}

func TestProductDefaults(t *testing.T) {
	p := Product{Name: "x"}
	assert.True(t, p.IsRequired())
	assert.Equal(t, "-", p.MallOrDefault())

	p.Mall = "컴퓨존"
	p.Required = boolPtr(false)
	assert.False(t, p.IsRequired())
	assert.Equal(t, "컴퓨존", p.MallOrDefault())
}
