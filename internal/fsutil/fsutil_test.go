// SPDX-License-Identifier: MIT

package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfineRel(t *testing.T) {
	root := t.TempDir()

	if err := os.Mkdir(filepath.Join(root, "assets"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "assets", "app.js"), []byte("export {}"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Symlink pointing at the parent of root.
	if err := os.Symlink("..", filepath.Join(root, "escape")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		rel        string
		wantErr    error
		wantSuffix string
	}{
		{name: "plain file", rel: "assets/app.js", wantSuffix: filepath.Join("assets", "app.js")},
		{name: "dot segments collapse inside", rel: "assets/../assets/app.js", wantSuffix: filepath.Join("assets", "app.js")},
		{name: "missing leaf in existing dir", rel: "assets/pending.json", wantSuffix: filepath.Join("assets", "pending.json")},
		{name: "parent traversal", rel: "../secret", wantErr: ErrPathEscapes},
		{name: "bare parent", rel: "..", wantErr: ErrPathEscapes},
		{name: "absolute path", rel: "/etc/passwd", wantErr: ErrPathEscapes},
		{name: "backslash", rel: `assets\app.js`, wantErr: ErrPathEscapes},
		{name: "symlink escape", rel: "escape/anything", wantErr: ErrPathEscapes},
		{name: "missing directory", rel: "nope/deep/file.js", wantErr: fs.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfineRel(root, tt.rel)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ConfineRel(%q) error = %v, want %v", tt.rel, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ConfineRel(%q) unexpected error: %v", tt.rel, err)
			}
			if !strings.HasSuffix(got, tt.wantSuffix) {
				t.Errorf("ConfineRel(%q) = %q, want suffix %q", tt.rel, got, tt.wantSuffix)
			}
		})
	}
}

func TestConfineRelMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "never-built")
	if _, err := ConfineRel(missing, "index.html"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("error = %v, want fs.ErrNotExist", err)
	}
}

func TestConfineRelSymlinkInsideRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "real.json"), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("real.json", filepath.Join(root, "alias.json")); err != nil {
		t.Fatal(err)
	}

	got, err := ConfineRel(root, "alias.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(got, "real.json") {
		t.Errorf("symlink inside root should resolve to target, got %q", got)
	}
}

func TestIsRegularFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := IsRegularFile(file); err != nil {
		t.Errorf("regular file reported error: %v", err)
	}
	if err := IsRegularFile(root); err == nil {
		t.Error("directory should not pass as regular file")
	}
	if err := IsRegularFile(filepath.Join(root, "missing")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file error = %v, want fs.ErrNotExist", err)
	}
}
