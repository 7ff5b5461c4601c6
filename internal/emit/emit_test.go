// SPDX-License-Identifier: MIT

package emit

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/confmod/internal/source"
)

func newTestEmitter(t *testing.T, root, path, outputDir string) (*Emitter, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)
	loader := source.NewLoader(root, path, logger)
	store := source.NewStore()
	store.Replace(loader.Load(true))
	return New(Config{
		Loader:     loader,
		Store:      store,
		OutputName: "JsonConfig.json",
		OutputDir:  outputDir,
		Logger:     logger,
	}), buf
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// TestIntegratedReflectsLatestContent verifies the silent reload right
// before emission: edits after plugin construction land in the asset.
func TestIntegratedReflectsLatestContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.json"), `{"version":1}`)
	emitter, buf := newTestEmitter(t, dir, "app.json", "")

	writeFile(t, filepath.Join(dir, "app.json"), `{"version":2}`)

	asset, err := emitter.Integrated("out")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "JsonConfig.json"), asset.Path)

	var got map[string]any
	require.NoError(t, json.Unmarshal(asset.Contents, &got))
	assert.Equal(t, map[string]any{"version": float64(2)}, got)
	assert.NotContains(t, buf.String(), `"level":"warn"`)
}

// TestIntegratedRoundTrip verifies the emitted asset parses back to a
// value deep-equal to the source file's content.
func TestIntegratedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	content := `{"apiEndpoint":"https://api.example.com","debug":true,"retries":[1,2,3]}`
	writeFile(t, filepath.Join(dir, "app.json"), content)
	emitter, _ := newTestEmitter(t, dir, "app.json", "")

	asset, err := emitter.Integrated("")
	require.NoError(t, err)

	var want, got any
	require.NoError(t, json.Unmarshal([]byte(content), &want))
	require.NoError(t, json.Unmarshal(asset.Contents, &got))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("asset content mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, strings.HasPrefix(string(asset.Contents), "{\n  \""), "asset must be two-space indented")
}

// TestIntegratedMissingSource verifies the silent fallback: a source
// removed mid-build yields an empty-object asset without warnings.
func TestIntegratedMissingSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.json"), `{"a":1}`)
	emitter, buf := newTestEmitter(t, dir, "app.json", "")

	require.NoError(t, os.Remove(filepath.Join(dir, "app.json")))

	asset, err := emitter.Integrated("")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(asset.Contents))
	assert.NotContains(t, buf.String(), `"level":"warn"`)
}

// TestIntegratedNoPath verifies the no-source case emits an empty
// object asset.
func TestIntegratedNoPath(t *testing.T) {
	emitter, _ := newTestEmitter(t, t.TempDir(), "", "")

	asset, err := emitter.Integrated("dist")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(asset.Contents))
}

func TestStandaloneWritesAsset(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.json"), `{"mode":"dark"}`)
	outputDir := filepath.Join(dir, "nested", "dist")
	emitter, _ := newTestEmitter(t, dir, "app.json", outputDir)

	asset := emitter.Standalone()
	assert.Equal(t, filepath.Join(outputDir, "JsonConfig.json"), asset.Path)

	written, err := os.ReadFile(asset.Path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"dark"}`, string(written))
}

// TestStandaloneFailureContinues verifies the catch-and-log policy: an
// unwritable target never propagates an error.
func TestStandaloneFailureContinues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.json"), `{"a":1}`)
	// Occupy the output directory path with a regular file.
	blocked := filepath.Join(dir, "dist")
	writeFile(t, blocked, "not a directory")
	emitter, buf := newTestEmitter(t, dir, "app.json", blocked)

	asset := emitter.Standalone()

	assert.Equal(t, filepath.Join(blocked, "JsonConfig.json"), asset.Path)
	assert.Contains(t, buf.String(), "emit.write_failed")
	_, err := os.Stat(asset.Path)
	assert.Error(t, err, "nothing must be written behind the failure")
}

// TestEmissionStylesMatch verifies both styles render byte-identical
// content for the same source.
func TestEmissionStylesMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.json"), `{"list":[1,2],"name":"x"}`)
	outputDir := filepath.Join(dir, "dist")
	emitter, _ := newTestEmitter(t, dir, "app.json", outputDir)

	integrated, err := emitter.Integrated("dist")
	require.NoError(t, err)
	standalone := emitter.Standalone()

	written, err := os.ReadFile(standalone.Path)
	require.NoError(t, err)
	assert.Equal(t, integrated.Contents, written)
}
