// SPDX-License-Identifier: MIT

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// startWatcher wires a counting watcher around path and tears it down
// with the test.
func startWatcher(t *testing.T, path string, debounce time.Duration) (*atomic.Int32, chan struct{}) {
	t.Helper()

	var fired atomic.Int32
	changed := make(chan struct{}, 16)

	ctx, cancel := context.WithCancel(context.Background())
	w := New(Config{
		Path:     path,
		Debounce: debounce,
		OnChange: func() {
			fired.Add(1)
			changed <- struct{}{}
		},
		Logger: zerolog.Nop(),
	})
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		// Give the loop a moment to close the fsnotify handle.
		time.Sleep(50 * time.Millisecond)
	})
	return &fired, changed
}

func waitChange(t *testing.T, changed chan struct{}) {
	t.Helper()
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestWatcherNoPathIsNoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w := New(Config{Path: "", Logger: zerolog.Nop()})
	require.NoError(t, w.Start(context.Background()))
}

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json")
	writeFile(t, path, `{"a":1}`)

	_, changed := startWatcher(t, path, 50*time.Millisecond)

	writeFile(t, path, `{"a":2}`)
	waitChange(t, changed)
}

// TestWatcherCoalescesBursts verifies rapid successive writes produce a
// single debounced notification.
func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json")
	writeFile(t, path, `{"n":0}`)

	fired, changed := startWatcher(t, path, 300*time.Millisecond)

	for i := 1; i <= 5; i++ {
		writeFile(t, path, `{"n":1}`)
		time.Sleep(10 * time.Millisecond)
	}
	waitChange(t, changed)

	// No further notification may arrive for the same burst.
	time.Sleep(500 * time.Millisecond)
	require.EqualValues(t, 1, fired.Load())
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json")
	writeFile(t, path, `{}`)

	fired, _ := startWatcher(t, path, 50*time.Millisecond)

	writeFile(t, filepath.Join(dir, "other.json"), `{"x":1}`)
	time.Sleep(300 * time.Millisecond)
	require.EqualValues(t, 0, fired.Load())
}

// TestWatcherSurvivesRemoveAndRecreate verifies the directory watch
// keeps working across deletion and re-creation of the source file.
func TestWatcherSurvivesRemoveAndRecreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json")
	writeFile(t, path, `{"a":1}`)

	_, changed := startWatcher(t, path, 50*time.Millisecond)

	require.NoError(t, os.Remove(path))
	waitChange(t, changed)

	writeFile(t, path, `{"a":2}`)
	waitChange(t, changed)
}

func TestWatcherStartTwiceFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json")
	writeFile(t, path, `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(Config{Path: path, Logger: zerolog.Nop()})
	require.NoError(t, w.Start(ctx))
	require.Error(t, w.Start(ctx))
}

func TestWatcherShutsDownCleanly(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	path := filepath.Join(dir, "app.json")
	writeFile(t, path, `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	w := New(Config{Path: path, Logger: zerolog.Nop(), OnChange: func() {}})
	require.NoError(t, w.Start(ctx))

	cancel()
	require.Eventually(t, func() bool {
		// Closed watcher rejects further Add calls once shut down.
		return w.fsw.Add(dir) != nil
	}, 2*time.Second, 20*time.Millisecond)
}

// TestWatcherCallbackPanicRecovered verifies a panicking callback does
// not kill the debounce goroutine or the watcher.
func TestWatcherCallbackPanicRecovered(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json")
	writeFile(t, path, `{}`)

	var calls atomic.Int32
	changed := make(chan struct{}, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(Config{
		Path:     path,
		Debounce: 50 * time.Millisecond,
		OnChange: func() {
			if calls.Add(1) == 1 {
				panic("first change handler failure")
			}
			changed <- struct{}{}
		},
		Logger: zerolog.Nop(),
	})
	require.NoError(t, w.Start(ctx))

	writeFile(t, path, `{"a":1}`)
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)

	writeFile(t, path, `{"a":2}`)
	waitChange(t, changed)
}
