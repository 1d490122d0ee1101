// Copyright © 2024 The ELPS authors

package completion

import "github.com/luthersystems/balsp/analysis"

// SymbolInfo pairs a visible name with the symbol it denotes.
type SymbolInfo struct {
	Name   string
	Symbol *analysis.Symbol
}

// Filter selects symbols.
type Filter func(SymbolInfo) bool

// TypeFilter selects builtin and user defined types.
func TypeFilter(s SymbolInfo) bool {
	return s.Symbol != nil && s.Symbol.Kind.IsType()
}

// VariableFilter selects variables, parameters and constants.
func VariableFilter(s SymbolInfo) bool {
	return s.Symbol != nil && s.Symbol.Kind.IsValue()
}

// CallableFilter selects functions and actions.
func CallableFilter(s SymbolInfo) bool {
	return s.Symbol != nil && s.Symbol.Kind.IsCallable()
}

// PackageFilter selects imported packages.
func PackageFilter(s SymbolInfo) bool {
	return s.Symbol != nil && s.Symbol.Kind == analysis.SymPackage
}

// All selects symbols accepted by every filter.
func All(filters ...Filter) Filter {
	return func(s SymbolInfo) bool {
		for _, f := range filters {
			if !f(s) {
				return false
			}
		}
		return true
	}
}

// Any selects symbols accepted by at least one filter.
func Any(filters ...Filter) Filter {
	return func(s SymbolInfo) bool {
		for _, f := range filters {
			if f(s) {
				return true
			}
		}
		return false
	}
}

// Not inverts f.
func Not(f Filter) Filter {
	return func(s SymbolInfo) bool {
		return !f(s)
	}
}

// Apply returns the symbols accepted by f in their original order.
func Apply(f Filter, syms []SymbolInfo) []SymbolInfo {
	var out []SymbolInfo
	for _, s := range syms {
		if f(s) {
			out = append(out, s)
		}
	}
	return out
}
