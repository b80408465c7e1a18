// Package specs pulls display attributes out of catalog product names.
package specs

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Missing fills a slot whose rule did not match.
const Missing = "-"

// Vector holds one value per label of a part, in label order.
type Vector []string

//go:embed rules.yaml
var defaultRules []byte

type ruleFile struct {
	Parts []PartRules `yaml:"parts"`
}

type PartRules struct {
	Part          string          `yaml:"part"`
	Manufacturers []string        `yaml:"manufacturers"`
	Attributes    []AttributeRule `yaml:"attributes"`
}

type AttributeRule struct {
	Label        string    `yaml:"label"`
	Manufacturer bool      `yaml:"manufacturer"`
	Pattern      string    `yaml:"pattern"`
	Occurrence   int       `yaml:"occurrence"`
	Format       string    `yaml:"format"`
	Upper        bool      `yaml:"upper"`
	Keywords     []Keyword `yaml:"keywords"`
}

type Keyword struct {
	Match string `yaml:"match"`
	Value string `yaml:"value"`
}

type compiledRule struct {
	AttributeRule
	re *regexp.Regexp
}

type partTable struct {
	labels        []string
	manufacturers []string
	rules         []compiledRule
}

// Extractor is read-only after construction and safe for concurrent use.
type Extractor struct {
	tables map[string]partTable
}

// Default returns an extractor for the built-in part tables.
func Default() *Extractor {
	e, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("specs: built-in rules: %v", err))
	}
	return e
}

// Parse builds an extractor from a YAML rule document.
func Parse(doc []byte) (*Extractor, error) {
	var f ruleFile
	if err := yaml.Unmarshal(doc, &f); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
	}
	return New(f.Parts)
}

func New(parts []PartRules) (*Extractor, error) {
	e := &Extractor{tables: make(map[string]partTable, len(parts))}
	for _, p := range parts {
		if p.Part == "" {
			return nil, fmt.Errorf("part rules without a part name")
		}
		if _, dup := e.tables[p.Part]; dup {
			return nil, fmt.Errorf("duplicate rules for part %q", p.Part)
		}
		t := partTable{manufacturers: append([]string(nil), p.Manufacturers...)}
		for _, a := range p.Attributes {
			cr := compiledRule{AttributeRule: a}
			if a.Pattern != "" {
				re, err := regexp.Compile(a.Pattern)
				if err != nil {
					return nil, fmt.Errorf("part %q attribute %q: %w", p.Part, a.Label, err)
				}
				cr.re = re
			}
			if cr.Format == "" {
				cr.Format = "${0}"
			}
			t.labels = append(t.labels, a.Label)
			t.rules = append(t.rules, cr)
		}
		e.tables[p.Part] = t
	}
	return e, nil
}

// Labels returns the attribute labels for part, or nil for unknown parts.
func (e *Extractor) Labels(part string) []string {
	t, ok := e.tables[part]
	if !ok {
		return nil
	}
	return append([]string(nil), t.labels...)
}

// Extract returns the attribute values found in name for part. Unknown parts
// yield an empty vector.
func (e *Extractor) Extract(name, part string) Vector {
	t, ok := e.tables[part]
	if !ok {
		return Vector{}
	}
	out := make(Vector, len(t.rules))
	for i, r := range t.rules {
		out[i] = Missing
		if v, ok := t.apply(r, name); ok {
			out[i] = v
		}
	}
	return out
}

func (t partTable) apply(r compiledRule, name string) (string, bool) {
	switch {
	case r.Manufacturer:
		return firstContained(name, t.manufacturers)
	case r.re != nil:
		matches := r.re.FindAllStringSubmatchIndex(name, r.Occurrence+1)
		if len(matches) <= r.Occurrence {
			return "", false
		}
		v := string(r.re.ExpandString(nil, r.Format, name, matches[r.Occurrence]))
		if r.Upper {
			v = strings.ToUpper(v)
		}
		return v, true
	case len(r.Keywords) > 0:
		upper := strings.ToUpper(name)
		for _, k := range r.Keywords {
			if strings.Contains(upper, strings.ToUpper(k.Match)) {
				return k.Value, true
			}
		}
	}
	return "", false
}

func firstContained(name string, candidates []string) (string, bool) {
	upper := strings.ToUpper(name)
	for _, c := range candidates {
		if strings.Contains(upper, strings.ToUpper(c)) {
			return c, true
		}
	}
	return "", false
}
