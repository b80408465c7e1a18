package recommend

import (
	"bytes"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/pc-assembly-helper/recommender/internal/catalog"
	"github.com/pc-assembly-helper/recommender/internal/match"
)

// Parser turns advisory responses into part recommendations.
type Parser struct {
	matcher *match.Matcher
	linker  *match.Linker
	logger  *zap.Logger
}

func NewParser(matcher *match.Matcher, linker *match.Linker, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{matcher: matcher, linker: linker, logger: logger}
}

// recognizer either understands a whole JSON document or declines it.
type recognizer struct {
	strategy  Strategy
	recognize func(doc json.RawMessage) (*ParsedRecommendation, bool)
}

var jsonRecognizers = []recognizer{
	{StrategyArray, recognizeArray},
	{StrategyPartsField, recognizePartsField},
	{StrategySinglePart, recognizeSinglePart},
	{StrategyDictionary, recognizeDictionary},
}

// Parse interprets raw against the catalog the advisor was shown. JSON
// shapes are tried first, in order, and their candidates are matched to
// products and linked. Text that no JSON shape explains is read as
// bracketed blocks. When nothing is recognized a *ParseError holding raw
// is returned.
func (p *Parser) Parse(raw string, products []catalog.Product) (*ParsedRecommendation, error) {
	if doc, ok := jsonDocument(raw); ok {
		for _, r := range jsonRecognizers {
			rec, ok := r.recognize(doc)
			if !ok {
				continue
			}
			rec.Strategy = r.strategy
			p.link(rec, products)
			p.logger.Debug("Parsed recommendation",
				zap.String("strategy", string(r.strategy)),
				zap.Int("parts", len(rec.Parts)))
			return rec, nil
		}
		p.logger.Info("Response is JSON of an unknown shape, trying bracketed text")
	}

	if rec, ok := p.parseBracketed(raw); ok {
		p.logger.Debug("Parsed recommendation",
			zap.String("strategy", string(StrategyBracketed)),
			zap.Int("parts", len(rec.Parts)))
		return rec, nil
	}

	p.logger.Warn("Failed to parse recommendation", zap.Int("bytes", len(raw)))
	return nil, &ParseError{Raw: raw}
}

// link attaches a purchase link to every candidate, preferring the best
// catalog product of the same part.
func (p *Parser) link(rec *ParsedRecommendation, products []catalog.Product) {
	for i := range rec.Parts {
		part := &rec.Parts[i]
		for j := range part.Candidates {
			c := &part.Candidates[j]
			var matched *catalog.Product
			if prod, ok := p.matcher.BestMatch(c.Name, part.Part, products); ok {
				matched = &prod
			}
			c.Link = p.linker.Resolve(c.Name, matched)
		}
	}
}

// jsonDocument returns raw as a JSON document. A response wrapped in a
// markdown code fence is unwrapped first.
func jsonDocument(raw string) (json.RawMessage, bool) {
	s := strings.TrimSpace(raw)
	if json.Valid([]byte(s)) {
		return json.RawMessage(s), true
	}
	if inner, ok := unfence(s); ok && json.Valid([]byte(inner)) {
		return json.RawMessage(inner), true
	}
	return nil, false
}

func unfence(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return "", false
	}
	body := s[3 : len(s)-3]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// drop the info string, e.g. ```json
		if !strings.ContainsAny(body[:nl], "[{") {
			body = body[nl+1:]
		}
	}
	return strings.TrimSpace(body), true
}

func recognizeArray(doc json.RawMessage) (*ParsedRecommendation, bool) {
	parts, ok := decodeParts(doc)
	if !ok {
		return nil, false
	}
	return &ParsedRecommendation{Parts: parts}, true
}

func recognizePartsField(doc json.RawMessage) (*ParsedRecommendation, bool) {
	obj, ok := decodeObject(doc)
	if !ok {
		return nil, false
	}
	parts, ok := decodeParts(obj.get("parts"))
	if !ok {
		return nil, false
	}
	return &ParsedRecommendation{Parts: parts, Warning: obj.str("warning")}, true
}

func recognizeSinglePart(doc json.RawMessage) (*ParsedRecommendation, bool) {
	obj, ok := decodeObject(doc)
	if !ok || obj.str("part") == "" || !isArray(obj.get("candidates")) {
		return nil, false
	}
	var part PartRecommendation
	if err := json.Unmarshal(doc, &part); err != nil || len(part.Candidates) == 0 {
		return nil, false
	}
	return &ParsedRecommendation{Parts: []PartRecommendation{part}, Warning: obj.str("warning")}, true
}

// recognizeDictionary reads {"CPU": {"candidates": [...]}, ...}, labelling
// each part by its key. Values whose candidates do not all decode are only
// accepted by the lenient pass, which runs when no value decodes cleanly.
func recognizeDictionary(doc json.RawMessage) (*ParsedRecommendation, bool) {
	obj, ok := decodeObject(doc)
	if !ok {
		return nil, false
	}
	for _, decode := range []func(json.RawMessage) ([]Candidate, bool){strictCandidates, lenientCandidates} {
		var parts []PartRecommendation
		for _, m := range obj {
			value, ok := decodeObject(m.value)
			if !ok {
				continue
			}
			if cands, ok := decode(value.get("candidates")); ok {
				parts = append(parts, PartRecommendation{Part: m.key, Candidates: cands})
			}
		}
		if len(parts) > 0 {
			return &ParsedRecommendation{Parts: parts, Warning: obj.str("warning")}, true
		}
	}
	return nil, false
}

// decodeParts decodes a JSON array of parts. Parts without candidates are
// dropped; an array that leaves no part is declined.
func decodeParts(data json.RawMessage) ([]PartRecommendation, bool) {
	if !isArray(data) {
		return nil, false
	}
	var all []PartRecommendation
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, false
	}
	parts := all[:0]
	for _, p := range all {
		if len(p.Candidates) > 0 {
			parts = append(parts, p)
		}
	}
	return parts, len(parts) > 0
}

func strictCandidates(data json.RawMessage) ([]Candidate, bool) {
	if !isArray(data) {
		return nil, false
	}
	var cands []Candidate
	if err := json.Unmarshal(data, &cands); err != nil {
		return nil, false
	}
	return cands, len(cands) > 0
}

// lenientCandidates also accepts bare product names and skips elements
// that carry no name at all.
func lenientCandidates(data json.RawMessage) ([]Candidate, bool) {
	if !isArray(data) {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, false
	}
	var cands []Candidate
	for _, e := range elems {
		var name string
		if err := json.Unmarshal(e, &name); err == nil {
			if name != "" {
				cands = append(cands, Candidate{Name: name})
			}
			continue
		}
		obj, ok := decodeObject(e)
		if !ok {
			continue
		}
		if c := (Candidate{Name: obj.str("name"), Reason: obj.str("reason")}); c.Name != "" {
			cands = append(cands, c)
		}
	}
	return cands, len(cands) > 0
}

type member struct {
	key   string
	value json.RawMessage
}

// object keeps the members of a JSON object in document order.
type object []member

func (o object) get(key string) json.RawMessage {
	for _, m := range o {
		if m.key == key {
			return m.value
		}
	}
	return nil
}

// str returns the member as a string, or "" when absent or not a string.
func (o object) str(key string) string {
	var s string
	if v := o.get(key); v != nil {
		_ = json.Unmarshal(v, &s)
	}
	return s
}

func decodeObject(data json.RawMessage) (object, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	var obj object
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := tok.(string)
		if !ok {
			return nil, false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		obj = append(obj, member{key: key, value: value})
	}
	return obj, true
}

func isArray(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '['
}
