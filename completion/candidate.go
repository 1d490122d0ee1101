// Copyright © 2024 The ELPS authors

package completion

import (
	"fmt"

	"github.com/luthersystems/balsp/analysis"
)

// CandidateKind classifies a completion candidate.
type CandidateKind int

const (
	CandidateKeyword CandidateKind = iota
	CandidateSnippet
	CandidateType
	CandidateVariable
	CandidateConstant
	CandidateFunction
	CandidatePackage
	CandidateField
	CandidateAnnotation
	CandidateService
)

var candidateKindNames = [...]string{
	CandidateKeyword:    "keyword",
	CandidateSnippet:    "snippet",
	CandidateType:       "type",
	CandidateVariable:   "variable",
	CandidateConstant:   "constant",
	CandidateFunction:   "function",
	CandidatePackage:    "package",
	CandidateField:      "field",
	CandidateAnnotation: "annotation",
	CandidateService:    "service",
}

func (k CandidateKind) String() string {
	if k >= 0 && int(k) < len(candidateKindNames) {
		return candidateKindNames[k]
	}
	return fmt.Sprintf("CandidateKind(%d)", int(k))
}

// MarshalText encodes k by name.
func (k CandidateKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(candidateKindNames) {
		return nil, fmt.Errorf("invalid candidate kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *CandidateKind) UnmarshalText(text []byte) error {
	for i, name := range candidateKindNames {
		if name == string(text) {
			*k = CandidateKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown candidate kind %q", text)
}

// Candidate is one completion suggestion.
type Candidate struct {
	Label  string        `json:"label" msgpack:"label"`
	Kind   CandidateKind `json:"kind" msgpack:"kind"`
	Detail string        `json:"detail,omitempty" msgpack:"detail,omitempty"`
	// InsertText replaces Label on insertion when set.  With Snippet set it
	// uses the ${n:placeholder} tab stop syntax.
	InsertText string `json:"insertText,omitempty" msgpack:"insertText,omitempty"`
	Snippet    bool   `json:"snippet,omitempty" msgpack:"snippet,omitempty"`
	// Documentation is the doc comment of the symbol, if any.
	Documentation string `json:"documentation,omitempty" msgpack:"documentation,omitempty"`
}

func keywordCandidate(word string) Candidate {
	return Candidate{Label: word, Kind: CandidateKeyword, Detail: "keyword"}
}

func snippetCandidate(s snippet) Candidate {
	return Candidate{
		Label:      s.label,
		Kind:       CandidateSnippet,
		Detail:     s.detail,
		InsertText: s.text,
		Snippet:    true,
	}
}

func symbolCandidate(s SymbolInfo) Candidate {
	c := Candidate{Label: s.Name, Kind: CandidateVariable}
	if s.Symbol == nil {
		return c
	}
	c.Detail = s.Symbol.Detail()
	c.Documentation = s.Symbol.DocString
	switch s.Symbol.Kind {
	case analysis.SymBuiltinType, analysis.SymStruct, analysis.SymConnector:
		c.Kind = CandidateType
	case analysis.SymConstant:
		c.Kind = CandidateConstant
	case analysis.SymFunction, analysis.SymAction, analysis.SymResource:
		c.Kind = CandidateFunction
	case analysis.SymPackage:
		c.Kind = CandidatePackage
		c.InsertText = s.Name + ":"
	case analysis.SymField:
		c.Kind = CandidateField
	case analysis.SymAnnotation:
		c.Kind = CandidateAnnotation
	case analysis.SymService:
		c.Kind = CandidateService
	case analysis.SymVariable, analysis.SymParameter:
	}
	return c
}

func symbolCandidates(syms []SymbolInfo) []Candidate {
	out := make([]Candidate, 0, len(syms))
	for _, s := range syms {
		out = append(out, symbolCandidate(s))
	}
	return out
}
