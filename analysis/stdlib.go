// Copyright © 2024 The ELPS authors

package analysis

// stdlib describes the exports of the standard library packages known to
// the analyzer.
var stdlib = map[string][]ExternalSymbol{
	"ballerina.io": {
		fn("println", "Prints a value followed by a newline.", []Param{{"a", "any"}}),
		fn("print", "Prints a value.", []Param{{"a", "any"}}),
		fn("sprintf", "Formats a string.", []Param{{"format", "string"}, {"args", "any[]"}}, "string"),
	},
	"ballerina.net.http": {
		typ(SymStruct, "Request", "An inbound or outbound HTTP request."),
		typ(SymStruct, "Response", "An inbound or outbound HTTP response."),
		typ(SymConnector, "ClientConnector", "An HTTP client."),
		fn("convertToResponse", "Converts a request into a response.", []Param{{"req", "Request"}}, "Response"),
		{Name: "configuration", Kind: SymAnnotation, DocString: "Service configuration."},
		{Name: "resourceConfig", Kind: SymAnnotation, DocString: "Resource configuration."},
	},
	"ballerina.math": {
		fn("sqrt", "Returns the square root of a.", []Param{{"a", "float"}}, "float"),
		fn("pow", "Returns a raised to the power b.", []Param{{"a", "float"}, {"b", "float"}}, "float"),
		fn("random", "Returns a pseudo-random number in [0.0, 1.0).", nil, "float"),
		fn("abs", "Returns the absolute value of a.", []Param{{"a", "float"}}, "float"),
	},
	"ballerina.log": {
		fn("printDebug", "Logs a debug message.", []Param{{"msg", "string"}}),
		fn("printInfo", "Logs an informational message.", []Param{{"msg", "string"}}),
		fn("printWarn", "Logs a warning.", []Param{{"msg", "string"}}),
		fn("printError", "Logs an error.", []Param{{"msg", "string"}}),
	},
}

// StdlibExports returns the exported symbols of every standard library
// package keyed by import path.  The returned map may be extended by the
// caller.
func StdlibExports() map[string][]ExternalSymbol {
	exports := make(map[string][]ExternalSymbol, len(stdlib))
	for path, syms := range stdlib {
		cp := make([]ExternalSymbol, len(syms))
		for i, sym := range syms {
			sym.Package = path
			cp[i] = sym
		}
		exports[path] = cp
	}
	return exports
}

func fn(name, doc string, params []Param, returns ...string) ExternalSymbol {
	return ExternalSymbol{
		Name:      name,
		Kind:      SymFunction,
		DocString: doc,
		Signature: &Signature{Params: params, Returns: returns},
	}
}

func typ(kind SymbolKind, name, doc string) ExternalSymbol {
	return ExternalSymbol{Name: name, Kind: kind, DocString: doc}
}
