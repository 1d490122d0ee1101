// Copyright © 2024 The ELPS authors

package analysis

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/luthersystems/balsp/parser"
	"github.com/luthersystems/balsp/parser/ast"
)

// SourceExt is the file extension of source files.
const SourceExt = ".bal"

// ScanWorkspacePackages walks a directory tree, parsing all source files
// and extracting their package level declarations.  The result maps package
// paths to exported symbols and can be used as Config.PackageExports for
// cross-package symbol resolution.  Files without a package declaration
// are grouped under the empty path.
//
// It skips hidden directories (names starting with '.').  Files that fail
// to parse are silently skipped (fault tolerant).
func ScanWorkspacePackages(root string) (map[string][]ExternalSymbol, error) {
	pkgs := make(map[string][]ExternalSymbol)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if shouldSkipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != SourceExt {
			return nil
		}
		src, readErr := os.ReadFile(path) //nolint:gosec // reads files below the user's source root
		if readErr != nil {
			return nil // skip unreadable files
		}
		file, parseErr := parser.ParseFile(path, src)
		if parseErr != nil {
			return nil // skip files that fail to parse
		}
		pkg := PackageOf(file)
		pkgs[pkg] = append(pkgs[pkg], ExportsOf(file)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, syms := range pkgs {
		sort.SliceStable(syms, func(i, j int) bool {
			return syms[i].Name < syms[j].Name
		})
	}
	return pkgs, nil
}

// shouldSkipDir returns true for directories that should not be walked.
// It skips hidden directories (e.g. .git, .ballerina), but not "." or ".."
// which represent the current/parent directory.
func shouldSkipDir(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return len(name) > 0 && name[0] == '.'
}

// PackageOf returns the package path declared by file, or "" when the file
// has no package declaration.
func PackageOf(file *ast.File) string {
	if file.Package == nil {
		return ""
	}
	return file.Package.Path
}

// ExportsOf returns the importable package level declarations of file.
// Services are not importable.
func ExportsOf(file *ast.File) []ExternalSymbol {
	pkg := PackageOf(file)
	var syms []ExternalSymbol
	add := func(id *ast.Ident, kind SymbolKind, typ string, sig *Signature) {
		if id == nil || id.Name == "" {
			return
		}
		syms = append(syms, ExternalSymbol{
			Name:      id.Name,
			Kind:      kind,
			Package:   pkg,
			Type:      typ,
			Signature: sig,
			Source:    id.Range().Start(file.Name),
		})
	}
	for _, d := range file.Decls {
		switch d := d.(type) {
		case *ast.FunctionDecl:
			add(d.Name, SymFunction, "", signatureOf(d.Params, d.Returns))
		case *ast.TransformerDecl:
			add(d.Name, SymFunction, "", signatureOf(d.Params, d.Returns))
		case *ast.ConnectorDecl:
			add(d.Name, SymConnector, "", nil)
		case *ast.StructDecl:
			add(d.Name, SymStruct, "", nil)
		case *ast.AnnotationDecl:
			add(d.Name, SymAnnotation, "", nil)
		case *ast.ConstDecl:
			add(d.Name, SymConstant, typeString(d.Type), nil)
		case *ast.GlobalVar:
			add(d.Name, SymVariable, typeString(d.Type), nil)
		}
	}
	return syms
}
