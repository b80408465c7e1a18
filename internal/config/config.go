// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	OpenAIAPIKey string
	OpenAIModel  string

	NaverClientID     string
	NaverClientSecret string
	NaverSearchURL    string

	// ShoppingSearchURL is the page fallback links point at.
	ShoppingSearchURL string

	RedisHost string
	RedisPort string

	// AllowedOrigins may call the HTTP function from a browser.
	AllowedOrigins []string

	MatchScorer    string
	SearchLimit    int
	SearchCacheTTL time.Duration
	Port           string
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// Load reads the environment. Unset values take defaults; malformed numeric
// values are an error.
func Load() (Config, error) {
	c := Config{
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getenv("OPENAI_MODEL", "gpt-3.5-turbo-1106"),
		NaverClientID:     os.Getenv("NAVER_CLIENT_ID"),
		NaverClientSecret: os.Getenv("NAVER_CLIENT_SECRET"),
		NaverSearchURL:    getenv("NAVER_SEARCH_URL", "https://openapi.naver.com/v1/search/shop.json"),
		ShoppingSearchURL: getenv("SHOPPING_SEARCH_URL", "https://search.shopping.naver.com/search/all"),
		RedisHost:         getenv("REDIS_HOST", "localhost"),
		RedisPort:         getenv("REDIS_PORT", "6379"),
		MatchScorer:       getenv("MATCH_SCORER", "graded"),
		Port:              getenv("PORT", "8080"),
	}

	limit, err := strconv.Atoi(getenv("SEARCH_LIMIT", "4"))
	if err != nil || limit <= 0 {
		return Config{}, fmt.Errorf("SEARCH_LIMIT: invalid value %q", os.Getenv("SEARCH_LIMIT"))
	}
	c.SearchLimit = limit

	ttl, err := time.ParseDuration(getenv("SEARCH_CACHE_TTL", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("SEARCH_CACHE_TTL: %w", err)
	}
	c.SearchCacheTTL = ttl

	for _, o := range strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.AllowedOrigins = append(c.AllowedOrigins, o)
		}
	}

	return c, nil
}

// Warnings lists missing credentials. The service still starts without
// them; the affected calls fail.
func (c Config) Warnings() []string {
	var w []string
	if c.OpenAIAPIKey == "" {
		w = append(w, "OPENAI_API_KEY is not set")
	}
	if c.NaverClientID == "" || c.NaverClientSecret == "" {
		w = append(w, "NAVER_CLIENT_ID or NAVER_CLIENT_SECRET is not set")
	}
	return w
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
