// Copyright © 2018 The ELPS authors

package repl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/luthersystems/balsp/completion"
	"github.com/luthersystems/balsp/workspace"
)

// sessionFile names the unsaved document a Session edits.
const sessionFile = "repl.bal"

// Session is the document built up at the prompt.  It lives in an overlay
// so the completion engine sees it alongside the files on disk.
type Session struct {
	mu      sync.Mutex
	lines   []string
	version int32
	uri     string
	overlay *workspace.Overlay
	engine  *completion.Engine
}

// NewSession returns an empty session whose document sits in dir.
func NewSession(dir string, opts ...completion.Option) (*Session, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("repl: %w", err)
	}
	overlay := workspace.NewOverlay()
	s := &Session{
		uri:     workspace.PathToURI(filepath.Join(abs, sessionFile)),
		overlay: overlay,
		engine:  completion.NewEngine(append([]completion.Option{completion.WithFileSource(overlay)}, opts...)...),
	}
	return s, nil
}

// Append adds a line to the document.
func (s *Session) Append(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

// Reset empties the document.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// Lines returns a copy of the document's lines.
func (s *Session) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// Source returns the document text.
func (s *Session) Source() string {
	return strings.Join(s.Lines(), "\n")
}

// URI identifies the session document.
func (s *Session) URI() string {
	return s.uri
}

// ReadFile serves the session document and files on disk.
func (s *Session) ReadFile(path string) ([]byte, error) {
	return s.overlay.ReadFile(path)
}

// Complete returns the candidates for the cursor at the end of the
// document followed by partial, which is the line still being typed.
func (s *Session) Complete(ctx context.Context, partial string) ([]completion.Candidate, error) {
	s.mu.Lock()
	lines := append(append([]string(nil), s.lines...), partial)
	s.version++
	version := s.version
	s.mu.Unlock()

	if _, err := s.overlay.Change(s.uri, version, strings.Join(lines, "\n")); err != nil {
		return nil, err
	}
	pos, err := completion.NewPosition(len(lines)-1, len(partial))
	if err != nil {
		return nil, err
	}
	return s.engine.Complete(ctx, s.uri, pos)
}

// sessionCompleter implements readline.AutoCompleter for a Session.
type sessionCompleter struct {
	sess *Session
}

func (c *sessionCompleter) Do(line []rune, pos int) ([][]rune, int) {
	partial := string(line[:pos])
	start := len(partial)
	for start > 0 && isWordByte(partial[start-1]) {
		start--
	}
	prefix := partial[start:]

	cands, err := c.sess.Complete(context.Background(), partial)
	if err != nil {
		return nil, 0
	}
	result := make([][]rune, 0, len(cands))
	seen := make(map[string]bool)
	for _, cand := range cands {
		if !strings.HasPrefix(cand.Label, prefix) || seen[cand.Label] {
			continue
		}
		seen[cand.Label] = true
		result = append(result, []rune(cand.Label[len(prefix):]))
	}
	return result, len([]rune(prefix))
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
