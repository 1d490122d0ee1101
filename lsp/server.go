// Copyright © 2024 The ELPS authors

// Package lsp implements a Language Server Protocol server offering
// scope-aware completion and diagnostics for Ballerina sources.
package lsp

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/luthersystems/balsp/compiler"
	"github.com/luthersystems/balsp/completion"
	"github.com/luthersystems/balsp/lint"
	"github.com/luthersystems/balsp/workspace"
)

const serverName = "balsp"

// DefaultDebounce is the delay between the last didChange notification for
// a document and the publication of its diagnostics.
const DefaultDebounce = 300 * time.Millisecond

var log = commonlog.GetLogger("balsp.lsp")

// Server is the Ballerina language server.
type Server struct {
	handler protocol.Handler
	glspSrv *glspserver.Server

	overlay *workspace.Overlay
	engine  *completion.Engine
	linter  *lint.Linter

	sourceRoot string
	rootPath   string
	engineOpts []completion.Option

	debounceDelay time.Duration
	debounce      *debouncer

	// Context for sending notifications (captured from latest request).
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// exitFn is called on the LSP exit notification. Defaults to os.Exit.
	exitFn func(int)
}

// Option configures the LSP server.
type Option func(*Server)

// WithPhase limits the analysis used for completion.
func WithPhase(p compiler.Phase) Option {
	return func(s *Server) {
		s.engineOpts = append(s.engineOpts, completion.WithPhase(p))
	}
}

// WithSourceRoot fixes the source root of every document.
func WithSourceRoot(root string) Option {
	return func(s *Server) { s.sourceRoot = root }
}

// WithDebounce sets the delay before diagnostics are published for a
// changed document.
func WithDebounce(d time.Duration) Option {
	return func(s *Server) { s.debounceDelay = d }
}

// WithLinter replaces the default set of lint checks.
func WithLinter(l *lint.Linter) Option {
	return func(s *Server) { s.linter = l }
}

// WithEngineOptions passes options to the completion engine.
func WithEngineOptions(opts ...completion.Option) Option {
	return func(s *Server) { s.engineOpts = append(s.engineOpts, opts...) }
}

// New creates a new language server.
func New(opts ...Option) *Server {
	s := &Server{
		overlay:       workspace.NewOverlay(),
		linter:        &lint.Linter{Analyzers: lint.DefaultAnalyzers()},
		debounceDelay: DefaultDebounce,
		exitFn:        os.Exit,
	}
	for _, o := range opts {
		o(s)
	}
	s.debounce = newDebouncer(s.debounceDelay)
	engineOpts := []completion.Option{completion.WithFileSource(s.overlay)}
	if s.sourceRoot != "" {
		engineOpts = append(engineOpts, completion.WithSourceRoot(s.sourceRoot))
	}
	s.engine = completion.NewEngine(append(engineOpts, s.engineOpts...)...)

	s.handler = protocol.Handler{
		Initialize: s.initialize,
		Shutdown:   s.shutdown,
		Exit:       s.exit,
		SetTrace:   s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		CompletionItemResolve:  s.completionItemResolve,
	}

	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// RunStdio starts the server using stdio transport.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// RunTCP starts the server listening on the given address.
func (s *Server) RunTCP(addr string) error {
	return s.glspSrv.RunTCP(addr)
}

// initialize handles the LSP initialize request.
func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (result any, err error) {
	defer s.recoverPanic(string(protocol.MethodInitialize), &err)
	s.captureNotify(ctx)

	if params.RootURI != nil {
		if path, err := workspace.URIToPath(*params.RootURI); err == nil {
			s.rootPath = path
		}
	} else if params.RootPath != nil {
		s.rootPath = *params.RootPath
	}
	if s.rootPath != "" {
		log.Infof("workspace root %s", s.rootPath)
	}

	capabilities := s.handler.CreateServerCapabilities()

	// Override text document sync to full.
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", ":"},
		ResolveProvider:   boolPtr(false),
	}

	version := "0.1.0"
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

// shutdown handles the LSP shutdown request.
func (s *Server) shutdown(_ *glsp.Context) error {
	s.debounce.stop()
	return nil
}

// exit handles the LSP exit notification by terminating the process.
func (s *Server) exit(_ *glsp.Context) error {
	s.exitFn(0)
	return nil
}

// setTrace handles the $/setTrace notification (required by some clients).
func (s *Server) setTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// recoverPanic turns a panic in a handler into an error for method so a
// faulty request cannot take down the session.  It must be deferred.
func (s *Server) recoverPanic(method string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	log.Errorf("%s: panic: %v\n%s", method, r, debug.Stack())
	if err != nil {
		*err = fmt.Errorf("%s: internal error: %v", method, r)
	}
}

// captureNotify stores the notification function from the context for
// async use (e.g., publishing diagnostics after a debounce).
func (s *Server) captureNotify(ctx *glsp.Context) {
	if ctx == nil {
		return
	}
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
}

// sendNotification sends a notification to the client.
func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	fn := s.notify
	s.notifyMu.Unlock()
	if fn != nil {
		fn(method, params)
	}
}

func boolPtr(b bool) *bool {
	return &b
}
