package recommend

import (
	"regexp"
	"strings"
)

var (
	// a header is a line of its own; brackets inside reasons or links are text
	headerRe = regexp.MustCompile(`(?m)^[ \t]*\[([^\]\n]+)\][ \t]*\r?$`)
	// labeled lines may carry a list bullet
	labelRe = regexp.MustCompile(`^\s*(?:[-*•]\s*)?(제품|추천\s*이유|링크)\s*:\s*(.*)$`)
)

type labelKind int

const (
	labelNone labelKind = iota
	labelProduct
	labelReason
	labelLink
)

// parseBracketed reads responses laid out as
//
//	[CPU]
//	제품: AMD 라이젠 5 5600X
//	추천 이유: 가성비가 좋음
//	링크: https://...
//
// Blocks missing any of the three fields are dropped.
func (p *Parser) parseBracketed(raw string) (*ParsedRecommendation, bool) {
	headers := headerRe.FindAllStringSubmatchIndex(raw, -1)
	var parts []PartRecommendation
	for i, h := range headers {
		end := len(raw)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		label := strings.TrimSpace(raw[h[2]:h[3]])
		c, ok := readBlock(raw[h[1]:end])
		if !ok {
			p.logger.Sugar().Debugf("Dropping incomplete block [%s]", label)
			continue
		}
		c.Link = p.linker.Keep(c.Name, c.Link)
		parts = append(parts, PartRecommendation{Part: label, Candidates: []Candidate{c}})
	}
	if len(parts) == 0 {
		return nil, false
	}
	return &ParsedRecommendation{Parts: parts, Strategy: StrategyBracketed}, true
}

// readBlock collects the labeled fields of one block. A reason continues
// over unlabeled lines until the next labeled line. The first non-empty
// value of each label is kept.
func readBlock(block string) (Candidate, bool) {
	var (
		c      Candidate
		reason []string
		cur    labelKind
	)
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		m := labelRe.FindStringSubmatch(line)
		if m == nil {
			if cur == labelReason {
				reason = append(reason, strings.TrimSpace(line))
			}
			continue
		}
		value := strings.TrimSpace(m[2])
		cur = labelNone
		switch {
		case m[1] == "제품":
			if c.Name == "" {
				c.Name = value
			}
		case m[1] == "링크":
			if c.Link == "" {
				c.Link = value
			}
		default:
			if reason == nil {
				reason = []string{value}
				cur = labelReason
			}
		}
	}
	c.Reason = strings.TrimSpace(strings.Join(reason, "\n"))
	return c, c.Name != "" && c.Reason != "" && c.Link != ""
}
