// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luthersystems/balsp/lsp"
)

// LSPCommand creates the "lsp" cobra command with optional embedder
// configuration.
func LSPCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the balsp Language Server Protocol server",
		Long: `Start an LSP server for Ballerina source files.

The language server publishes syntax errors and lint findings for open
documents and answers completion requests, including for unsaved edits.
Completion triggers on "." and ":".

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  balsp lsp                          Start with stdio transport
  balsp lsp --stdio                  Same as above (explicit)
  balsp lsp --port 7998              Start with TCP on port 7998
  balsp lsp --debounce 500ms         Wait longer before re-checking edits

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "balsp lsp --stdio" for .bal files.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			srv := lsp.New(lspOptions(s, cfg)...)
			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				log.Noticef("LSP server listening on %s", addr)
				if err := srv.RunTCP(addr); err != nil {
					return fmt.Errorf("lsp server: %w", err)
				}
				return nil
			}
			if err := srv.RunStdio(); err != nil {
				return fmt.Errorf("lsp server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
	cmd.Flags().Duration("debounce", lsp.DefaultDebounce,
		"Delay before publishing diagnostics for an edited document")
	mustBind(keyLSPDebounce, cmd.Flags().Lookup("debounce"))

	return cmd
}

func lspOptions(s settings, cfg *cmdConfig) []lsp.Option {
	opts := []lsp.Option{
		lsp.WithPhase(s.phase),
		lsp.WithDebounce(s.debounce),
		lsp.WithLinter(cfg.linter()),
	}
	if s.sourceRoot != "" {
		opts = append(opts, lsp.WithSourceRoot(s.sourceRoot))
	}
	if len(cfg.engineOpts) > 0 {
		opts = append(opts, lsp.WithEngineOptions(cfg.engineOpts...))
	}
	return opts
}
