package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pc-assembly-helper/recommender/internal/catalog"
	"github.com/pc-assembly-helper/recommender/internal/match"
)

// MaxPromptLength bounds the user's request, in characters.
const MaxPromptLength = 300

var (
	ErrEmptyPrompt   = errors.New("prompt is empty")
	ErrPromptTooLong = fmt.Errorf("prompt is longer than %d characters", MaxPromptLength)
)

// Searcher finds catalog products for a query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]catalog.Product, error)
}

// Advisor produces a raw recommendation from the user's request and the
// product listing.
type Advisor interface {
	Recommend(ctx context.Context, userPrompt, productBlock string) (string, error)
}

// PartQuery is a part label with the search phrase used to find it and a
// product to offer when the search comes back empty.
type PartQuery struct {
	Part     string
	Query    string
	Fallback string
}

// DefaultParts are the seven parts of a build, in listing order.
var DefaultParts = []PartQuery{
	{"CPU", "데스크탑 CPU", "AMD 라이젠 5 5600X"},
	{"메인보드", "데스크탑 메인보드", "ASUS PRIME B550M-A"},
	{"그래픽카드", "그래픽카드", "NVIDIA GeForce RTX 3060"},
	{"메모리", "데스크탑 메모리", "삼성전자 DDR4 16GB"},
	{"SSD", "SSD", "삼성전자 970 EVO Plus 500GB"},
	{"파워서플라이", "파워서플라이", "마이크로닉스 Classic II 600W"},
	{"케이스", "PC 케이스", "ABKO NCORE 식스팬 풀 아크릴 LUNAR"},
}

// Response is what the advisory round trip returns: the advisor's text
// and every product it was shown, tagged with its part.
type Response struct {
	Recommendation string            `json:"recommendation"`
	Products       []catalog.Product `json:"products"`
}

type ServiceOptions struct {
	Searcher    Searcher
	Advisor     Advisor
	Linker      *match.Linker
	Parts       []PartQuery
	SearchLimit int
	// MaxConcurrent bounds parallel searches.
	MaxConcurrent int
	Logger        *zap.Logger
}

type Service struct {
	searcher      Searcher
	advisor       Advisor
	linker        *match.Linker
	parts         []PartQuery
	limit         int
	maxConcurrent int
	logger        *zap.Logger
}

func NewService(opts ServiceOptions) *Service {
	s := &Service{
		searcher:      opts.Searcher,
		advisor:       opts.Advisor,
		linker:        opts.Linker,
		parts:         opts.Parts,
		limit:         opts.SearchLimit,
		maxConcurrent: opts.MaxConcurrent,
		logger:        opts.Logger,
	}
	if s.linker == nil {
		s.linker = match.NewLinker("")
	}
	if len(s.parts) == 0 {
		s.parts = DefaultParts
	}
	if s.limit <= 0 {
		s.limit = 4
	}
	if s.maxConcurrent <= 0 {
		s.maxConcurrent = 4
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// ValidatePrompt trims prompt and checks it is usable.
func ValidatePrompt(prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	switch {
	case prompt == "":
		return "", ErrEmptyPrompt
	case utf8.RuneCountInString(prompt) > MaxPromptLength:
		return "", ErrPromptTooLong
	}
	return prompt, nil
}

// Recommend searches every part for the prompt, then asks the advisor to
// choose among the results.
func (s *Service) Recommend(ctx context.Context, prompt string) (*Response, error) {
	prompt, err := ValidatePrompt(prompt)
	if err != nil {
		return nil, err
	}

	perPart := s.searchParts(ctx, prompt)

	var products []catalog.Product
	for i, pq := range s.parts {
		for _, p := range perPart[i] {
			p.Part = pq.Part
			products = append(products, p)
		}
	}

	startTime := time.Now()
	text, err := s.advisor.Recommend(ctx, prompt, ProductBlock(s.parts, perPart))
	if err != nil {
		s.logger.Error("Error calling advisor", zap.Error(err))
		return nil, fmt.Errorf("advisor: %w", err)
	}
	s.logger.Sugar().Infof("Received recommendation of %d bytes in %v", len(text), time.Since(startTime))

	return &Response{Recommendation: text, Products: products}, nil
}

// searchParts runs the part searches concurrently. A part whose search
// fails or finds nothing gets its fallback product.
func (s *Service) searchParts(ctx context.Context, prompt string) [][]catalog.Product {
	results := make([][]catalog.Product, len(s.parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i, pq := range s.parts {
		g.Go(func() error {
			query := pq.Query + " " + prompt
			found, err := s.searcher.Search(gctx, query, s.limit)
			if err != nil {
				s.logger.Warn("Shopping search failed, using fallback product",
					zap.String("part", pq.Part), zap.Error(err))
			} else {
				s.logger.Sugar().Debugf("Fetched %d products for part %s", len(found), pq.Part)
			}
			if len(found) == 0 {
				found = []catalog.Product{s.fallbackProduct(pq)}
			}
			results[i] = found
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Service) fallbackProduct(pq PartQuery) catalog.Product {
	return catalog.Product{
		Name:  pq.Fallback,
		Price: "정보 없음",
		Link:  s.linker.Fallback(pq.Fallback),
	}
}

// ProductBlock lists the products of every part for the advisor:
//
//	[CPU 후보]
//	1. AMD 라이젠 5 5600X - 152,000원 (링크: https://...)
func ProductBlock(parts []PartQuery, perPart [][]catalog.Product) string {
	blocks := make([]string, 0, len(parts))
	for i, pq := range parts {
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%s 후보]", pq.Part)
		for j, p := range perPart[i] {
			fmt.Fprintf(&sb, "\n%d. %s - %s (링크: %s)", j+1, p.Name, p.Price, p.Link)
		}
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n\n")
}
