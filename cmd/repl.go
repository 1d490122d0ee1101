// Copyright © 2018 The ELPS authors

package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/luthersystems/balsp/repl"
)

// ReplCommand creates the "repl" cobra command.
func ReplCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var dir string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive completion playground",
		Long: `Start an interactive completion playground.

Lines typed at the prompt are appended to an unsaved document placed in the
working directory (or --dir), so it sees the other files of its package.
Tab completes at the end of the document.  Line editing and command history
are supported via readline.  Use Ctrl-D or :quit to exit.

Example session:
  balsp> import ballerina.io;
  balsp> function main() {
         int total = 0;
         :complete
  total        variable   int total
  io           package    ballerina.io
  ...`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			return repl.RunRepl(filepath.Base(os.Args[0])+"> ",
				repl.WithDir(dir),
				repl.WithEngineOptions(s.engineOptions(cfg)...))
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory holding the session document (default: working directory)")

	return cmd
}
