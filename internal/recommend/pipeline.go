package recommend

import (
	"errors"

	"go.uber.org/zap"

	"github.com/pc-assembly-helper/recommender/internal/catalog"
	"github.com/pc-assembly-helper/recommender/internal/specs"
)

// Row is one catalog product with its extracted attributes.
type Row struct {
	catalog.Product
	Mall  string       `json:"mall"`
	Specs specs.Vector `json:"specs"`
}

// Table is the catalog view of one part.
type Table struct {
	Part     string   `json:"part"`
	Required bool     `json:"required"`
	Labels   []string `json:"labels"`
	Rows     []Row    `json:"rows"`
}

// Result is everything the caller needs to render one response.
// When ParseFailed is set, Recommendation is nil and Raw holds the
// response to show verbatim.
type Result struct {
	Recommendation *ParsedRecommendation `json:"recommendation,omitempty"`
	ParseFailed    bool                  `json:"parse_failed"`
	Raw            string                `json:"raw,omitempty"`
	Catalog        []Table               `json:"catalog"`
}

// Pipeline runs the parser, spec extraction and grouping over one response.
type Pipeline struct {
	parser    *Parser
	extractor *specs.Extractor
	logger    *zap.Logger
}

func NewPipeline(parser *Parser, extractor *specs.Extractor, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{parser: parser, extractor: extractor, logger: logger}
}

// Process never fails; a response it cannot interpret is returned raw.
func (p *Pipeline) Process(raw string, products []catalog.Product) Result {
	var res Result
	rec, err := p.parser.Parse(raw, products)
	var perr *ParseError
	switch {
	case err == nil:
		res.Recommendation = rec
	case errors.As(err, &perr):
		res.ParseFailed = true
		res.Raw = perr.Raw
	default:
		res.ParseFailed = true
		res.Raw = raw
	}
	res.Catalog = p.Tables(products)
	return res
}

// Tables groups products by part and extracts their specs.
func (p *Pipeline) Tables(products []catalog.Product) []Table {
	groups := catalog.GroupByPart(products)
	tables := make([]Table, 0, len(groups))
	for _, g := range groups {
		t := Table{
			Part:     g.Part,
			Required: g.Required,
			Labels:   p.extractor.Labels(g.Part),
			Rows:     make([]Row, 0, len(g.Products)),
		}
		for _, prod := range g.Products {
			t.Rows = append(t.Rows, Row{
				Product: prod,
				Mall:    prod.MallOrDefault(),
				Specs:   p.extractor.Extract(prod.Name, g.Part),
			})
		}
		tables = append(tables, t)
	}
	return tables
}
