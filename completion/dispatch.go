// Copyright © 2024 The ELPS authors

package completion

import (
	"errors"
	"fmt"

	"github.com/luthersystems/balsp/parser/ast"
)

// ErrNoGenerator is returned when a resolution names a container kind with
// no registered generator.  It indicates a bug, not bad input.
var ErrNoGenerator = errors.New("no candidate generator")

// ScopeKinds lists every container kind Resolve can produce besides the
// top level.
func ScopeKinds() []ast.Kind {
	return []ast.Kind{
		ast.KindBlock,
		ast.KindServiceDecl,
		ast.KindConnectorDecl,
		ast.KindStructDecl,
		ast.KindAnnotationDecl,
		ast.KindAttachmentPoints,
	}
}

// Dispatcher maps resolved containers to generators.
type Dispatcher struct {
	TopLevel   Generator
	Members    Generator
	generators map[ast.Kind]Generator
}

// NewDispatcher returns a dispatcher with the standard generators
// registered for every kind in ScopeKinds.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		TopLevel:   TopLevelGenerator,
		Members:    MemberGenerator,
		generators: make(map[ast.Kind]Generator),
	}
	d.Register(ast.KindBlock, BlockGenerator)
	d.Register(ast.KindServiceDecl, ServiceGenerator)
	d.Register(ast.KindConnectorDecl, ConnectorGenerator)
	d.Register(ast.KindStructDecl, FieldListGenerator)
	d.Register(ast.KindAnnotationDecl, FieldListGenerator)
	d.Register(ast.KindAttachmentPoints, AttachmentPointGenerator)
	return d
}

// Register replaces the generator for kind.
func (d *Dispatcher) Register(kind ast.Kind, g Generator) {
	if d.generators == nil {
		d.generators = make(map[ast.Kind]Generator)
	}
	d.generators[kind] = g
}

// Registered reports whether kind has a generator.
func (d *Dispatcher) Registered(kind ast.Kind) bool {
	_, ok := d.generators[kind]
	return ok
}

// Dispatch runs the generator selected by res.
func (d *Dispatcher) Dispatch(res *Resolution) ([]Candidate, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: nil resolution", ErrNoGenerator)
	}
	if res.Qualifier != "" && d.Members != nil {
		return d.Members(res), nil
	}
	if res.Node == nil {
		if d.TopLevel == nil {
			return nil, fmt.Errorf("%w: top level", ErrNoGenerator)
		}
		return d.TopLevel(res), nil
	}
	g, ok := d.generators[res.Node.Kind()]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoGenerator, res.Node.Kind())
	}
	return g(res), nil
}
