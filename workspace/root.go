// Copyright © 2024 The ELPS authors

package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/luthersystems/balsp/compiler"
)

// ManifestName is the project manifest looked up by SourceRoot.
const ManifestName = "Ballerina.toml"

type manifest struct {
	Build buildConfig `toml:"build"`
}

type buildConfig struct {
	SourceRoot string `toml:"source-root"`
}

// SourceRoot returns the directory that package paths of the file at path
// are relative to.  The nearest enclosing Ballerina.toml decides, with an
// optional [build] source-root relative to the manifest.  Without a
// manifest the root is the file's directory minus the directories named
// by pkg.
func SourceRoot(path, pkg string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	dir := filepath.Dir(abs)
	mpath, ok, err := findManifest(dir)
	if err != nil {
		return "", err
	}
	if ok {
		return manifestRoot(mpath)
	}
	if pkg == "" {
		return dir, nil
	}
	suffix := string(filepath.Separator) + filepath.FromSlash(strings.ReplaceAll(pkg, ".", "/"))
	if root, ok := strings.CutSuffix(dir, suffix); ok && root != "" {
		return root, nil
	}
	return dir, nil
}

// Entry returns the compiler entry for the document at path with source
// src, and the source root it is relative to.  The entry is the document's
// package when the document sits in that package's directory, otherwise
// the path itself.  An empty root is located with SourceRoot.
func Entry(path string, src []byte, root string) (entry, sourceRoot string, err error) {
	pkg := PackageFromContent(src)
	if root == "" {
		root, err = SourceRoot(path, pkg)
		if err != nil {
			root = filepath.Dir(path)
		}
	}
	if pkg != "" && compiler.PackageDir(root, pkg) == filepath.Dir(path) {
		return pkg, root, err
	}
	return path, root, err
}

func findManifest(dir string) (string, bool, error) {
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

func manifestRoot(path string) (string, error) {
	var m manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return "", fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	root := filepath.Dir(path)
	if m.Build.SourceRoot == "" {
		return root, nil
	}
	if filepath.IsAbs(m.Build.SourceRoot) {
		return filepath.Clean(m.Build.SourceRoot), nil
	}
	return filepath.Join(root, m.Build.SourceRoot), nil
}
