// Copyright © 2024 The ELPS authors

package cmd

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luthersystems/balsp/compiler"
	"github.com/luthersystems/balsp/completion"
	"github.com/luthersystems/balsp/lint"
	"github.com/luthersystems/balsp/parser/rdparser"
	"github.com/luthersystems/balsp/workspace"
)

// CheckCommand creates the "check" cobra command.  Embedders can pass
// WithAnalyzers to run their own checks.
func CheckCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		strict   bool
		jsonOut  bool
		checks   string
		listAll  bool
		excludes []string
	)

	cmd := &cobra.Command{
		Use:   "check [flags] files...",
		Short: "Report syntax errors and lint findings in source files",
		Long: `Report syntax errors and lint findings in Ballerina source files.

Each file is compiled together with the other files of its package so that
references across files resolve.  By default the parser recovers from syntax
errors and reports all of them; with --strict it stops at the first one, as a
build would.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

To suppress a specific finding, add a comment on the same line:
  int x = 1; // nolint:unused-variable

To suppress all checks on a line:
  int x = 1; // nolint

Available checks (use --checks to select specific ones):
` + lint.AnalyzerDoc() + `
Examples:
  balsp check main.bal                               # Check a single file
  balsp check ./...                                  # Check every .bal file below .
  balsp check --strict main.bal                      # Stop at the first syntax error
  balsp check --json main.bal                        # Output findings as JSON
  balsp check --checks=unused-variable main.bal      # Run only specific checks
  balsp check --list                                 # List available checks
  balsp check --exclude='generated' ./...            # Exclude a directory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listAll {
				for _, name := range lint.AnalyzerNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name) //nolint:errcheck // best-effort CLI output
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("check: no files given")
			}

			l := cfg.linter()
			if checks != "" {
				analyzers, err := selectAnalyzers(l.Analyzers, checks)
				if err != nil {
					return err
				}
				l = &lint.Linter{Analyzers: analyzers}
			}

			paths, err := expandArgs(args, excludes)
			if err != nil {
				return err
			}
			c := newChecker(l, viper.GetString(keySourceRoot), strict)
			var findings []lint.Diagnostic
			for _, path := range paths {
				found, err := c.check(cmd.Context(), path)
				if err != nil {
					return err
				}
				findings = append(findings, found...)
			}
			if len(findings) == 0 {
				return nil
			}

			if jsonOut {
				if err := lint.FormatJSON(cmd.OutOrStdout(), findings); err != nil {
					return err
				}
			} else if err := renderFindings(cmd.ErrOrStderr(), newRenderer(), findings); err != nil {
				return err
			}
			return &exitError{code: 1}
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false,
		"Stop at the first syntax error of each file.")
	cmd.Flags().BoolVar(&jsonOut, "json", false,
		"Output findings as JSON.")
	cmd.Flags().StringVar(&checks, "checks", "",
		"Comma-separated list of checks to run (default: all).")
	cmd.Flags().BoolVar(&listAll, "list", false,
		"List available checks and exit.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")

	return cmd
}

// selectAnalyzers returns the analyzers named in the comma separated list
// names.
func selectAnalyzers(analyzers []*lint.Analyzer, names string) ([]*lint.Analyzer, error) {
	selected := make(map[string]bool)
	for _, name := range strings.Split(names, ",") {
		selected[strings.TrimSpace(name)] = true
	}
	var filtered []*lint.Analyzer
	for _, a := range analyzers {
		if selected[a.Name] {
			filtered = append(filtered, a)
			delete(selected, a.Name)
		}
	}
	for name := range selected {
		return nil, fmt.Errorf("check: unknown check: %s", name)
	}
	return filtered, nil
}

// checker compiles files and lints them.  Packages are compiled once no
// matter how many of their files are checked.
type checker struct {
	linter     *lint.Linter
	sourceRoot string
	strict     bool
	packages   map[string]compiled
}

type compiled struct {
	pkg *compiler.Package
	err error
}

func newChecker(l *lint.Linter, sourceRoot string, strict bool) *checker {
	return &checker{
		linter:     l,
		sourceRoot: sourceRoot,
		strict:     strict,
		packages:   make(map[string]compiled),
	}
}

// check returns the findings for the file at path, sorted by position.
// Errors are reserved for files that cannot be read at all.
func (c *checker) check(ctx context.Context, path string) ([]lint.Diagnostic, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	src, err := os.ReadFile(abs) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	entry, root, err := workspace.Entry(abs, src, c.sourceRoot)
	if err != nil {
		log.Warningf("%s: %v", path, err)
	}

	pkg, err := c.compile(ctx, entry, root)
	if err != nil {
		f := compileFinding(abs, err)
		relabel(&f, abs, path)
		return []lint.Diagnostic{f}, nil
	}
	file := pkg.File(abs)
	if file == nil {
		return nil, fmt.Errorf("%s: not compiled with package %s", path, pkg.Name)
	}

	var findings []lint.Diagnostic
	for _, serr := range file.Errors {
		findings = append(findings, syntaxFinding(path, serr))
	}
	found, err := c.linter.LintFileWithContext(src, file.AST, pkg.Analysis)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range found {
		relabel(&found[i], abs, path)
	}
	findings = append(findings, found...)
	slices.SortStableFunc(findings, func(a, b lint.Diagnostic) int {
		return cmp.Or(cmp.Compare(a.Pos.Line, b.Pos.Line), cmp.Compare(a.Pos.Col, b.Pos.Col))
	})
	return findings, nil
}

func (c *checker) compile(ctx context.Context, entry, root string) (*compiler.Package, error) {
	key := root + "\x00" + entry
	if res, ok := c.packages[key]; ok {
		return res.pkg, res.err
	}
	cfg := compiler.Config{
		SourceRoot: root,
		Phase:      compiler.PhaseAnalyze,
	}
	if !c.strict {
		cfg.Strategy = completion.NewTolerantStrategy
	} else {
		cfg.Strategy = func() rdparser.ErrorStrategy { return &rdparser.BailStrategy{} }
	}
	pkg, err := compiler.Compile(ctx, entry, cfg)
	c.packages[key] = compiled{pkg: pkg, err: err}
	return pkg, err
}

// relabel shows findings in abs under the name the user gave.
func relabel(d *lint.Diagnostic, abs, path string) {
	if d.Pos.File == abs {
		d.Pos.File = path
	}
	if d.End.File == abs {
		d.End.File = path
	}
}
