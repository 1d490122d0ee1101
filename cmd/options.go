// Copyright © 2024 The ELPS authors

package cmd

import (
	"github.com/luthersystems/balsp/completion"
	"github.com/luthersystems/balsp/lint"
)

// Option configures an exported command factory (CheckCommand,
// CompleteCommand, LSPCommand, ReplCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	analyzers  []*lint.Analyzer
	engineOpts []completion.Option
}

func newCmdConfig(opts []Option) *cmdConfig {
	cfg := &cmdConfig{}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// WithAnalyzers replaces the default lint checks.  Embedders use it to add
// project specific analyzers to check and lsp.
func WithAnalyzers(analyzers ...*lint.Analyzer) Option {
	return func(c *cmdConfig) { c.analyzers = analyzers }
}

// WithEngineOptions configures the completion engine used by complete, lsp
// and repl, for example to register extra generators with
// completion.WithDispatcher.
func WithEngineOptions(opts ...completion.Option) Option {
	return func(c *cmdConfig) { c.engineOpts = append(c.engineOpts, opts...) }
}

// linter returns the configured linter.
func (c *cmdConfig) linter() *lint.Linter {
	if len(c.analyzers) > 0 {
		return &lint.Linter{Analyzers: c.analyzers}
	}
	return &lint.Linter{Analyzers: lint.DefaultAnalyzers()}
}
