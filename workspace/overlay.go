// Copyright © 2024 The ELPS authors

// Package workspace tracks the documents of a client workspace and locates
// the packages they belong to.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/luthersystems/balsp/analysis"
	"github.com/luthersystems/balsp/compiler"
)

// ErrUnsupportedURI is returned for document URIs that do not name a local
// file.
var ErrUnsupportedURI = errors.New("unsupported document uri")

// Document is an open document whose unsaved text shadows the file on disk.
type Document struct {
	URI     string
	Path    string
	Version int32
	Text    string
}

// Overlay is a compiler.FileSource that serves open documents from memory
// and everything else from disk.  It is safe for concurrent use.
type Overlay struct {
	mu   sync.RWMutex
	docs map[string]*Document // by path
	disk compiler.FileSource
}

var _ compiler.FileSource = (*Overlay)(nil)

// NewOverlay returns an empty overlay backed by the local file system.
func NewOverlay() *Overlay {
	return NewOverlayOn(compiler.DiskSource{})
}

// NewOverlayOn returns an empty overlay backed by disk.
func NewOverlayOn(disk compiler.FileSource) *Overlay {
	return &Overlay{docs: make(map[string]*Document), disk: disk}
}

// URIToPath converts a file:// URI or a plain path to a cleaned file
// system path.
func URIToPath(uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("%w: empty", ErrUnsupportedURI)
	}
	if !strings.Contains(uri, "://") {
		return filepath.Clean(uri), nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedURI, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedURI, u.Scheme)
	}
	if u.Path == "" {
		return "", fmt.Errorf("%w: %s has no path", ErrUnsupportedURI, uri)
	}
	return filepath.Clean(filepath.FromSlash(u.Path)), nil
}

// PathToURI converts an absolute path to a file:// URI.  Relative paths are
// returned unchanged.
func PathToURI(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// Open starts tracking a document.
func (o *Overlay) Open(uri string, version int32, text string) (*Document, error) {
	path, err := URIToPath(uri)
	if err != nil {
		return nil, err
	}
	doc := &Document{URI: uri, Path: path, Version: version, Text: text}
	o.mu.Lock()
	o.docs[path] = doc
	o.mu.Unlock()
	return doc, nil
}

// Change replaces the full text of a document, opening it if necessary.
func (o *Overlay) Change(uri string, version int32, text string) (*Document, error) {
	return o.Open(uri, version, text)
}

// Close stops tracking a document.  Reads fall back to disk afterwards.
func (o *Overlay) Close(uri string) {
	path, err := URIToPath(uri)
	if err != nil {
		return
	}
	o.mu.Lock()
	delete(o.docs, path)
	o.mu.Unlock()
}

// Get returns the open document for uri.
func (o *Overlay) Get(uri string) (*Document, bool) {
	path, err := URIToPath(uri)
	if err != nil {
		return nil, false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	doc, ok := o.docs[path]
	if !ok {
		return nil, false
	}
	cp := *doc
	return &cp, true
}

// Documents returns copies of all open documents sorted by path.
func (o *Overlay) Documents() []Document {
	o.mu.RLock()
	docs := make([]Document, 0, len(o.docs))
	for _, d := range o.docs {
		docs = append(docs, *d)
	}
	o.mu.RUnlock()
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs
}

func (o *Overlay) ReadFile(path string) ([]byte, error) {
	path = filepath.Clean(path)
	o.mu.RLock()
	doc, ok := o.docs[path]
	o.mu.RUnlock()
	if ok {
		return []byte(doc.Text), nil
	}
	return o.disk.ReadFile(path)
}

// ReadDir lists the source files in dir on disk together with open
// documents in dir that were never saved.
func (o *Overlay) ReadDir(dir string) ([]string, error) {
	dir = filepath.Clean(dir)
	names, err := o.disk.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	o.mu.RLock()
	for path := range o.docs {
		name := filepath.Base(path)
		if filepath.Dir(path) == dir && filepath.Ext(name) == analysis.SourceExt && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	o.mu.RUnlock()
	if err != nil && len(names) == 0 {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
