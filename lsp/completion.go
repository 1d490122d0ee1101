// Copyright © 2024 The ELPS authors

package lsp

import (
	"context"
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/balsp/completion"
)

// textDocumentCompletion handles the textDocument/completion request.
// Requests the engine cannot serve, such as a position past the end of the
// document, get an empty list.  Engine faults are returned to the client.
func (s *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (result any, err error) {
	defer s.recoverPanic(string(protocol.MethodTextDocumentCompletion), &err)
	s.captureNotify(ctx)

	cands, err := s.engine.Complete(context.Background(), params.TextDocument.URI, enginePosition(params.Position))
	if errors.Is(err, completion.ErrMalformedRequest) {
		return []protocol.CompletionItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	items := make([]protocol.CompletionItem, len(cands))
	for i, c := range cands {
		items[i] = completionItem(c)
	}
	return items, nil
}

// completionItemResolve handles completionItem/resolve.  Items are complete
// when first sent so there is nothing to add.
func (s *Server) completionItemResolve(_ *glsp.Context, _ *protocol.CompletionItem) (*protocol.CompletionItem, error) {
	return nil, nil
}

func completionItem(c completion.Candidate) protocol.CompletionItem {
	kind := mapCompletionItemKind(c.Kind)
	item := protocol.CompletionItem{
		Label: c.Label,
		Kind:  &kind,
	}
	if c.Detail != "" {
		item.Detail = strPtr(c.Detail)
	}
	if c.InsertText != "" {
		item.InsertText = strPtr(c.InsertText)
	}
	if c.Snippet {
		format := protocol.InsertTextFormatSnippet
		item.InsertTextFormat = &format
	}
	if c.Documentation != "" {
		item.Documentation = protocol.MarkupContent{
			Kind:  protocol.MarkupKindPlainText,
			Value: c.Documentation,
		}
	}
	return item
}

// mapCompletionItemKind converts a completion.CandidateKind to an LSP
// CompletionItemKind.
func mapCompletionItemKind(kind completion.CandidateKind) protocol.CompletionItemKind {
	switch kind {
	case completion.CandidateKeyword:
		return protocol.CompletionItemKindKeyword
	case completion.CandidateSnippet:
		return protocol.CompletionItemKindSnippet
	case completion.CandidateType:
		return protocol.CompletionItemKindClass
	case completion.CandidateVariable:
		return protocol.CompletionItemKindVariable
	case completion.CandidateConstant:
		return protocol.CompletionItemKindConstant
	case completion.CandidateFunction:
		return protocol.CompletionItemKindFunction
	case completion.CandidatePackage:
		return protocol.CompletionItemKindModule
	case completion.CandidateField:
		return protocol.CompletionItemKindField
	case completion.CandidateAnnotation:
		return protocol.CompletionItemKindInterface
	case completion.CandidateService:
		return protocol.CompletionItemKindModule
	default:
		return protocol.CompletionItemKindText
	}
}
