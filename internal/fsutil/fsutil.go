// SPDX-License-Identifier: MIT

// Package fsutil confines filesystem access to a configured root
// directory. Handlers that turn externally supplied names into file
// reads resolve them through ConfineRel before touching the disk.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscapes reports a candidate path that resolves outside its
// root, through traversal segments or symlinks.
var ErrPathEscapes = errors.New("path escapes root")

// ConfineRel joins rel onto root and verifies the result stays inside
// root once symlinks are resolved, returning the resolved absolute
// path. rel must be relative and free of backslashes. A missing leaf
// is fine as long as its directory resolves inside root; a missing
// root or directory is reported as fs.ErrNotExist.
func ConfineRel(root, rel string) (string, error) {
	if strings.Contains(rel, "\\") {
		return "", fmt.Errorf("%w: backslash in %q", ErrPathEscapes, rel)
	}

	clean := filepath.Clean(rel)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: %q is absolute", ErrPathEscapes, rel)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscapes, rel)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root %q: %w", root, err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolve root %q: %w", root, err)
	}

	return resolveWithin(realRoot, filepath.Join(realRoot, clean))
}

// resolveWithin resolves full through symlinks, falling back to the
// parent directory when the leaf does not exist yet, and verifies the
// result stays under realRoot.
func resolveWithin(realRoot, full string) (string, error) {
	resolved, err := filepath.EvalSymlinks(full)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		dir, derr := filepath.EvalSymlinks(filepath.Dir(full))
		if derr != nil {
			if errors.Is(derr, fs.ErrNotExist) {
				return "", fmt.Errorf("resolve %s: %w", full, fs.ErrNotExist)
			}
			return "", fmt.Errorf("resolve parent of %s: %w", full, derr)
		}
		resolved = filepath.Join(dir, filepath.Base(full))
	default:
		return "", fmt.Errorf("resolve %s: %w", full, err)
	}

	relPath, err := filepath.Rel(realRoot, resolved)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, resolved)
	}
	return resolved, nil
}

// IsRegularFile reports an error when path is missing or is anything
// other than a regular file.
func IsRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	return nil
}
