package match

import (
	"net/url"
	"strings"

	"github.com/pc-assembly-helper/recommender/internal/catalog"
)

// DefaultSearchURL is the shopping search page used for fallback links.
const DefaultSearchURL = "https://search.shopping.naver.com/search/all"

// Linker turns a candidate into a purchase link.
type Linker struct {
	searchURL string
}

func NewLinker(searchURL string) *Linker {
	if !IsWellFormed(searchURL) {
		searchURL = DefaultSearchURL
	}
	return &Linker{searchURL: strings.TrimRight(searchURL, "?")}
}

// Resolve returns the matched product's link when it is usable and a search
// query for name otherwise. It never returns an empty string.
func (l *Linker) Resolve(name string, matched *catalog.Product) string {
	if matched != nil && IsWellFormed(matched.Link) {
		return matched.Link
	}
	return l.Fallback(name)
}

// Keep returns link when it is usable and the fallback for name otherwise.
func (l *Linker) Keep(name, link string) string {
	link = strings.TrimSpace(link)
	if IsWellFormed(link) {
		return link
	}
	return l.Fallback(name)
}

// Fallback builds "<searchURL>?query=<name>" with name percent-encoded the
// way browsers encode a URI component.
func (l *Linker) Fallback(name string) string {
	q := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return l.searchURL + "?query=" + q
}

// IsWellFormed reports whether link is an absolute http(s) URL with a host.
func IsWellFormed(link string) bool {
	if link == "" || strings.ContainsAny(link, " \t\r\n") {
		return false
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
