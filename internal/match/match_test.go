package match

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pc-assembly-helper/recommender/internal/catalog"
)

func TestGradedScorer(t *testing.T) {
	s := GradedScorer{}
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"exact ignoring case and spaces", "AMD Ryzen 5 5600X", "amd ryzen5 5600x", 100},
		{"a contains b", "AMD 라이젠 5 5600X 정품", "라이젠 5 5600X", 80},
		{"b contains a", "RTX 3060", "MSI 지포스 RTX 3060 벤투스", 80},
		{"common prefix", "ASUS PRIME B550M-A", "ASUS TUF B550", 4},
		{"korean prefix counts characters", "삼성전자 DDR4", "삼성 SSD", 2},
		{"nothing shared", "Intel Core i5-12400F", "인텔 코어i5 12400F", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Score(tt.a, tt.b))
		})
	}
}

func TestBooleanScorer(t *testing.T) {
	s := BooleanScorer{}
	assert.Equal(t, 0.8, s.Score("MSI 지포스 RTX 3060", "rtx 3060"))
	assert.Equal(t, 0.8, s.Score("rtx", "RTX 3060"))
	assert.Equal(t, 0.0, s.Score("RTX3060", "RTX 3060"))
	assert.Equal(t, 0.0, s.Score("ASUS PRIME", "ASUS TUF"))
}

func TestNewScorer(t *testing.T) {
	s, err := NewScorer("")
	require.NoError(t, err)
	assert.IsType(t, GradedScorer{}, s)

	s, err = NewScorer(" Boolean ")
	require.NoError(t, err)
	assert.IsType(t, BooleanScorer{}, s)

	_, err = NewScorer("cosine")
	assert.Error(t, err)
}

func TestBestMatch_Graded(t *testing.T) {
	m := NewMatcher(GradedScorer{})

	t.Run("only product of the part is returned even with zero score", func(t *testing.T) {
		products := []catalog.Product{
			{Part: "메인보드", Name: "Intel Core i5-12400F"},
			{Part: "CPU", Name: "인텔 코어i5 12400F", Link: "https://shop/cpu"},
		}
		got, ok := m.BestMatch("Intel Core i5-12400F", "CPU", products)
		require.True(t, ok)
		assert.Equal(t, "https://shop/cpu", got.Link)
	})

	t.Run("higher score wins", func(t *testing.T) {
		products := []catalog.Product{
			{Part: "CPU", Name: "AMD 라이젠 7 7700", Link: "a"},
			{Part: "CPU", Name: "AMD 라이젠 5 5600X 정품 멀티팩", Link: "b"},
		}
		got, ok := m.BestMatch("AMD 라이젠 5 5600X", "CPU", products)
		require.True(t, ok)
		assert.Equal(t, "b", got.Link)
	})

	t.Run("ties keep the first", func(t *testing.T) {
		products := []catalog.Product{
			{Part: "SSD", Name: "삼성전자 970 EVO Plus 500GB", Link: "first"},
			{Part: "SSD", Name: "삼성전자 970 EVO Plus 500GB", Link: "second"},
		}
		got, ok := m.BestMatch("970 EVO Plus", "SSD", products)
		require.True(t, ok)
		assert.Equal(t, "first", got.Link)
	})

	t.Run("no product of the part", func(t *testing.T) {
		_, ok := m.BestMatch("RTX 3060", "그래픽카드", []catalog.Product{{Part: "CPU", Name: "RTX 3060"}})
		assert.False(t, ok)
	})
}

func TestBestMatch_Boolean(t *testing.T) {
	m := NewMatcher(BooleanScorer{})

	products := []catalog.Product{
		{Part: "그래픽카드", Name: "ZOTAC RTX 4060", Link: "zotac"},
		{Part: "그래픽카드", Name: "MSI 지포스 RTX 3060 벤투스", Link: "msi-first"},
		{Part: "그래픽카드", Name: "이엠텍 RTX 3060", Link: "emtek"},
	}

	got, ok := m.BestMatch("RTX 3060", "그래픽카드", products)
	require.True(t, ok)
	assert.Equal(t, "msi-first", got.Link)

	_, ok = m.BestMatch("Radeon RX 7600", "그래픽카드", products)
	assert.False(t, ok, "boolean scorer needs containment")
}

func TestResolve(t *testing.T) {
	l := NewLinker("")

	matched := &catalog.Product{Link: "https://smartstore.naver.com/item/1"}
	assert.Equal(t, matched.Link, l.Resolve("x", matched))

	assert.Equal(t, DefaultSearchURL+"?query=RTX%203060", l.Resolve("RTX 3060", nil))
	assert.Equal(t, DefaultSearchURL+"?query=RTX%203060", l.Resolve("RTX 3060", &catalog.Product{Link: "#"}))
	assert.Equal(t, DefaultSearchURL+"?query=", l.Resolve("", &catalog.Product{}))
}

func TestResolve_AlwaysWellFormed(t *testing.T) {
	l := NewLinker("https://example.com/search?")
	inputs := []string{"", " ", "a&b=c", "100% 정품", "#?/\\", "삼성전자 DDR4 16GB", "line\nbreak"}
	for _, in := range inputs {
		link := l.Resolve(in, nil)
		require.True(t, IsWellFormed(link), "link %q", link)
		u, err := url.Parse(link)
		require.NoError(t, err)
		assert.Equal(t, in, u.Query().Get("query"))
	}
}

func TestKeep(t *testing.T) {
	l := NewLinker("")
	assert.Equal(t, "https://x.y/z", l.Keep("Ryzen 5", " https://x.y/z "))
	assert.Equal(t, DefaultSearchURL+"?query=Ryzen%205", l.Keep("Ryzen 5", "네이버에서 검색"))
}

func TestBestMatch_EmptyNameTakesFirstProductOfPart(t *testing.T) {
	products := []catalog.Product{
		{Part: "CPU", Name: "AMD 라이젠 5 5600X", Link: "first"},
		{Part: "CPU", Name: "인텔 코어i5 12400F", Link: "second"},
	}
	for _, s := range []Scorer{GradedScorer{}, BooleanScorer{}} {
		got, ok := NewMatcher(s).BestMatch("", "CPU", products)
		require.True(t, ok, "%T", s)
		assert.Equal(t, "first", got.Link, "%T", s)
	}
}
