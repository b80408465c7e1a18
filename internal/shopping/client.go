// Package shopping searches the Naver shopping API for part candidates.
package shopping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/time/rate"

	"github.com/pc-assembly-helper/recommender/internal/catalog"
	"github.com/pc-assembly-helper/recommender/internal/store"
)

const DefaultBaseURL = "https://openapi.naver.com/v1/search/shop.json"

// ErrMissingCredentials is returned by Search when no API credentials are configured.
var ErrMissingCredentials = errors.New("shopping: naver API credentials are not configured")

// Cache holds serialized search results.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Options struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	Limiter      *rate.Limiter
	Cache        Cache
	CacheTTL     time.Duration
	Logger       *zap.Logger
}

type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	limiter      *rate.Limiter
	cache        Cache
	cacheTTL     time.Duration
	logger       *zap.Logger
}

func New(opts Options) *Client {
	c := &Client{
		baseURL:      opts.BaseURL,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		httpClient:   opts.HTTPClient,
		limiter:      opts.Limiter,
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		logger:       opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if c.limiter == nil {
		// the search API allows 10 calls per second
		c.limiter = rate.NewLimiter(rate.Limit(10), 10)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	LPrice    string `json:"lprice"`
	MallName  string `json:"mallName"`
	Category1 string `json:"category1"`
	Category2 string `json:"category2"`
	Category3 string `json:"category3"`
	Category4 string `json:"category4"`
}

// Search returns up to limit products for query, cheapest first.
// Results are served from the cache when present.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]catalog.Product, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	key := store.SearchKey(query, limit)
	if products, ok := c.cached(ctx, key); ok {
		c.logger.Sugar().Debugf("Cache hit for query %q", query)
		return products, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("display", strconv.Itoa(limit))
	params.Set("sort", "asc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shopping search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("shopping search: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("json.Decode: %w", err)
	}

	products := make([]catalog.Product, 0, limit)
	for _, item := range sr.Items {
		if len(products) == limit {
			break
		}
		products = append(products, toProduct(item))
	}

	c.save(ctx, key, products)
	return products, nil
}

func (c *Client) cached(ctx context.Context, key string) ([]catalog.Product, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			c.logger.Warn("Error reading search cache", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var products []catalog.Product
	if err := json.Unmarshal([]byte(data), &products); err != nil {
		c.logger.Warn("Discarding malformed cached search", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return products, true
}

func (c *Client) save(ctx context.Context, key string, products []catalog.Product) {
	if c.cache == nil || len(products) == 0 {
		return
	}
	data, err := json.Marshal(products)
	if err != nil {
		c.logger.Warn("Failed to marshal search results", zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, string(data), c.cacheTTL); err != nil {
		c.logger.Warn("Error writing search cache", zap.String("key", key), zap.Error(err))
	}
}

func toProduct(item searchItem) catalog.Product {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		link = "#"
	}
	return catalog.Product{
		Name:     StripMarkup(item.Title),
		Price:    FormatPrice(item.LPrice),
		Link:     link,
		Mall:     item.MallName,
		Category: joinCategories(item.Category1, item.Category2, item.Category3, item.Category4),
	}
}

// FormatPrice renders a price in won with thousands separators, e.g. "12,345원".
func FormatPrice(lprice string) string {
	n, err := strconv.ParseInt(strings.TrimSpace(lprice), 10, 64)
	if err != nil {
		return "정보 없음"
	}
	return message.NewPrinter(language.Korean).Sprintf("%d원", n)
}

// StripMarkup drops tags such as the <b> highlights the search API puts in
// titles and decodes entities.
func StripMarkup(title string) string {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(title), body)
	if err != nil {
		return strings.TrimSpace(title)
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func joinCategories(cats ...string) string {
	var parts []string
	for _, c := range cats {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " > ")
}
