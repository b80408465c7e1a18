package catalog

// OtherPart labels products that arrive without a part.
const OtherPart = "기타"

// Product is a purchasable item returned by the shopping search service.
type Product struct {
	Part     string `json:"part,omitempty"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Link     string `json:"link"`
	Mall     string `json:"mall,omitempty"`
	Category string `json:"category,omitempty"`
	Required *bool  `json:"required,omitempty"`
}

// IsRequired reports whether the product belongs to a required part.
// Products that do not say otherwise are required.
func (p Product) IsRequired() bool {
	return p.Required == nil || *p.Required
}

func (p Product) MallOrDefault() string {
	if p.Mall == "" {
		return "-"
	}
	return p.Mall
}

func (p Product) partOrDefault() string {
	if p.Part == "" {
		return OtherPart
	}
	return p.Part
}
