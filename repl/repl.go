// Copyright © 2018 The ELPS authors

// Package repl is an interactive completion playground.  Lines typed at the
// prompt accumulate into an unsaved document and Tab completes at the end
// of that document.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"

	"github.com/luthersystems/balsp/completion"
	"github.com/luthersystems/balsp/parser/lexer"
	"github.com/luthersystems/balsp/parser/token"
)

const historyName = ".balsp_history"

type config struct {
	stdin      io.ReadCloser
	stderr     io.WriteCloser
	dir        string
	engineOpts []completion.Option
}

func newConfig(opts ...Option) *config {
	config := &config{}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output of the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithDir places the session document in dir so that sibling files of its
// package are visible.  The default is the working directory.
func WithDir(dir string) Option {
	return func(c *config) {
		c.dir = dir
	}
}

// WithEngineOptions configures the completion engine of the session.
func WithEngineOptions(opts ...completion.Option) Option {
	return func(c *config) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// RunRepl reads lines until EOF or :quit.  prompt is shown at the top level
// of the document; inside open braces a blank prompt of the same width is
// shown instead.
func RunRepl(prompt string, opts ...Option) error {
	cfg := newConfig(opts...)
	var out io.Writer = os.Stderr
	if cfg.stderr != nil {
		out = cfg.stderr
	}
	dir := cfg.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("repl: %w", err)
		}
		dir = wd
	}
	sess, err := NewSession(dir, cfg.engineOpts...)
	if err != nil {
		return err
	}
	cont := strings.Repeat(" ", len(prompt))

	hist := historyPath()
	ensureHistoryFilePermissions(hist)
	rlCfg := &readline.Config{
		Stdout:            out,
		Stderr:            out,
		Prompt:            prompt,
		HistoryFile:       hist,
		HistorySearchFold: true,
		AutoComplete:      &sessionCompleter{sess: sess},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return fmt.Errorf("repl: %w", err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	for {
		if braceDepth(sess.Source()) > 0 {
			rl.SetPrompt(cont)
		} else {
			rl.SetPrompt(prompt)
		}
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return nil
		}
		if quit := runLine(out, sess, line); quit {
			return nil
		}
	}
}

// runLine executes a command or appends line to the session document.  It
// reports whether the session should end.
func runLine(w io.Writer, sess *Session, line string) bool {
	cmd := strings.TrimSpace(line)
	if !strings.HasPrefix(cmd, ":") {
		if cmd != "" {
			sess.Append(line)
		}
		return false
	}
	switch cmd {
	case ":quit", ":q":
		return true
	case ":reset":
		sess.Reset()
		fmt.Fprintln(w, "document cleared") //nolint:errcheck // best-effort REPL output
	case ":show":
		for i, l := range sess.Lines() {
			fmt.Fprintf(w, "%3d  %s\n", i+1, l) //nolint:errcheck // best-effort REPL output
		}
	case ":complete":
		cands, err := sess.Complete(context.Background(), "")
		if err != nil {
			renderError(w, sess, err)
			return false
		}
		for _, c := range cands {
			fmt.Fprintf(w, "%-12s %-10s %s\n", c.Label, c.Kind, c.Detail) //nolint:errcheck // best-effort REPL output
		}
	case ":help":
		fmt.Fprint(w, helpText) //nolint:errcheck // best-effort REPL output
	default:
		fmt.Fprintf(w, "unknown command %s (try :help)\n", cmd) //nolint:errcheck // best-effort REPL output
	}
	return false
}

const helpText = `Lines are appended to the session document.  Tab completes at its end.
  :complete  list the candidates at the end of the document
  :show      print the document
  :reset     clear the document
  :quit      leave
`

// braceDepth returns the number of braces left open by src.
func braceDepth(src string) int {
	lex := lexer.New(token.NewScannerBytes("repl", []byte(src)))
	depth := 0
	for {
		toks := lex.ReadToken()
		if len(toks) == 0 {
			return depth
		}
		switch toks[0].Type {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth = max(depth-1, 0)
		case token.EOF, token.ERROR:
			return depth
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyName)
}

// ensureHistoryFilePermissions creates the history file readable only by
// its owner, or restricts an existing one.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600) //nolint:gosec // path is under the user's home
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0o600)
}
