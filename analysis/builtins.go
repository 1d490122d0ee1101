// Copyright © 2024 The ELPS authors

package analysis

// BuiltinTypes lists the names of the language's builtin types.
var BuiltinTypes = []string{
	"any",
	"blob",
	"boolean",
	"datatable",
	"error",
	"float",
	"int",
	"json",
	"map",
	"message",
	"string",
	"xml",
}

var builtinTypeDocs = map[string]string{
	"any":       "Any value.",
	"blob":      "A sequence of bytes.",
	"boolean":   "The values true and false.",
	"datatable": "A tabular result set.",
	"error":     "The error struct thrown by failed operations.",
	"float":     "A 64-bit IEEE 754 floating point number.",
	"int":       "A 64-bit signed integer.",
	"json":      "A JSON document.",
	"map":       "A mapping from string keys to values.",
	"message":   "A network message.",
	"string":    "A sequence of Unicode code points.",
	"xml":       "An XML document.",
}

// populateBuiltins adds all builtin types to the given scope.
func populateBuiltins(scope *Scope) {
	for _, name := range BuiltinTypes {
		scope.Define(&Symbol{
			Name:      name,
			Kind:      SymBuiltinType,
			DocString: builtinTypeDocs[name],
		})
	}
}
