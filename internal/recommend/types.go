package recommend

import (
	"errors"
	"fmt"
)

// Candidate is one suggested product for a part.
type Candidate struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Link   string `json:"link,omitempty"`
}

// PartRecommendation groups the candidates suggested for one part.
type PartRecommendation struct {
	Part       string      `json:"part"`
	Candidates []Candidate `json:"candidates"`
}

// Strategy names the recognizer that understood a response.
type Strategy string

const (
	StrategyArray      Strategy = "json_array"
	StrategyPartsField Strategy = "json_parts"
	StrategySinglePart Strategy = "json_single_part"
	StrategyDictionary Strategy = "json_dictionary"
	StrategyBracketed  Strategy = "bracketed_text"
)

// ParsedRecommendation is the normalized form of an advisory response.
// Every candidate link is a well-formed URL.
type ParsedRecommendation struct {
	Parts    []PartRecommendation `json:"parts"`
	Warning  string               `json:"warning,omitempty"`
	Strategy Strategy             `json:"strategy"`
}

// ErrUnrecognized is matched by every ParseError.
var ErrUnrecognized = errors.New("recommendation not recognized")

// ParseError reports a response that no strategy understood. Raw is the
// response exactly as received, for verbatim display.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v (%d bytes)", ErrUnrecognized, len(e.Raw))
}

func (e *ParseError) Unwrap() error { return ErrUnrecognized }
