// Copyright © 2024 The ELPS authors

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdlibExports_HasPackages(t *testing.T) {
	exports := StdlibExports()
	for _, path := range []string{"ballerina.io", "ballerina.net.http", "ballerina.math", "ballerina.log"} {
		assert.NotEmpty(t, exports[path], path)
	}

	names := make(map[string]bool)
	for _, sym := range exports["ballerina.io"] {
		names[sym.Name] = true
	}
	assert.True(t, names["println"], "ballerina.io should export println")
}

func TestStdlibExports_SymbolKinds(t *testing.T) {
	exports := StdlibExports()
	byName := make(map[string]ExternalSymbol)
	for _, sym := range exports["ballerina.net.http"] {
		byName[sym.Name] = sym
	}
	require.Contains(t, byName, "Request")
	assert.Equal(t, SymStruct, byName["Request"].Kind)
	assert.Equal(t, SymConnector, byName["ClientConnector"].Kind)
	assert.Equal(t, SymAnnotation, byName["configuration"].Kind)

	conv := byName["convertToResponse"]
	assert.Equal(t, SymFunction, conv.Kind)
	require.NotNil(t, conv.Signature)
	assert.Equal(t, 1, conv.Signature.MinArity())
	assert.Equal(t, []string{"Response"}, conv.Signature.Returns)
}

func TestStdlibExports_PackageSet(t *testing.T) {
	for path, syms := range StdlibExports() {
		for _, sym := range syms {
			assert.Equal(t, path, sym.Package, sym.Name)
		}
	}
}

func TestStdlibExports_Copy(t *testing.T) {
	a := StdlibExports()
	a["ballerina.io"][0].Name = "mutated"
	b := StdlibExports()
	assert.NotEqual(t, "mutated", b["ballerina.io"][0].Name)
}
