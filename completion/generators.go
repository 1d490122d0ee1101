// Copyright © 2024 The ELPS authors

package completion

// Generator produces the candidates for one kind of resolved container.
type Generator func(res *Resolution) []Candidate

func snippetCandidates(out []Candidate, snippets []snippet) []Candidate {
	for _, s := range snippets {
		out = append(out, snippetCandidate(s))
	}
	return out
}

// TopLevelGenerator suggests declarations and the types that may start a
// package level variable.
func TopLevelGenerator(res *Resolution) []Candidate {
	out := snippetCandidates(nil, topLevelSnippets)
	return append(out, symbolCandidates(Apply(TypeFilter, res.Symbols))...)
}

// BlockGenerator suggests statements and every visible name usable in a
// statement.  Loop and transaction control statements appear only inside
// the constructs they control.
func BlockGenerator(res *Resolution) []Candidate {
	out := snippetCandidates(nil, statementSnippets)
	if res.InLoop() {
		out = snippetCandidates(out, loopSnippets)
	}
	if res.InTransaction() {
		out = snippetCandidates(out, transactionSnippets)
	}
	visible := Any(VariableFilter, CallableFilter, PackageFilter, TypeFilter)
	return append(out, symbolCandidates(Apply(visible, res.Symbols))...)
}

// ServiceGenerator suggests a resource declaration and types.
func ServiceGenerator(res *Resolution) []Candidate {
	out := snippetCandidates(nil, []snippet{snippetResource})
	return append(out, symbolCandidates(Apply(TypeFilter, res.Symbols))...)
}

// ConnectorGenerator suggests an action declaration and types.
func ConnectorGenerator(res *Resolution) []Candidate {
	out := snippetCandidates(nil, []snippet{snippetAction})
	return append(out, symbolCandidates(Apply(TypeFilter, res.Symbols))...)
}

// FieldListGenerator suggests field types.  Builtin types are visible
// symbols so the type keywords arrive through the type filter.
func FieldListGenerator(res *Resolution) []Candidate {
	return symbolCandidates(Apply(TypeFilter, res.Symbols))
}

// AttachmentPointGenerator suggests the constructs an annotation can attach to.
func AttachmentPointGenerator(*Resolution) []Candidate {
	out := make([]Candidate, 0, len(attachmentPoints))
	for _, kw := range attachmentPoints {
		out = append(out, keywordCandidate(kw))
	}
	return out
}

// MemberGenerator suggests the members of a qualifying package.
func MemberGenerator(res *Resolution) []Candidate {
	return symbolCandidates(res.Symbols)
}
