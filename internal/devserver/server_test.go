// SPDX-License-Identifier: MIT

package devserver

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/confmod/internal/version"
)

// startServer runs a server on an ephemeral port and returns its base address.
func startServer(t *testing.T, dir string) (*Server, string, context.CancelFunc, chan error) {
	t.Helper()

	s := NewServer(Config{Addr: "127.0.0.1:0", Outdir: dir, Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Addr() != "" }, 2*time.Second, 10*time.Millisecond,
		"server must bind its listener")
	return s, s.Addr(), cancel, errCh
}

func stopServer(t *testing.T, cancel context.CancelFunc, errCh chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

func TestServerHealthEndpoint(t *testing.T) {
	_, addr, cancel, errCh := startServer(t, t.TempDir())
	defer stopServer(t, cancel, errCh)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
	assert.Contains(t, string(body), `"release":"`+version.Version+`"`)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestServerMetricsEndpoint(t *testing.T) {
	_, addr, cancel, errCh := startServer(t, t.TempDir())
	defer stopServer(t, cancel, errCh)

	_, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "confmod_http_request_duration_seconds")
}

func TestServerServesOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "JsonConfig.json"),
		[]byte(`{"feature": true}`), 0o644))

	_, addr, cancel, errCh := startServer(t, dir)
	defer stopServer(t, cancel, errCh)

	resp, err := http.Get("http://" + addr + "/JsonConfig.json")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"feature":true}`, string(body))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("ETag"))
}

func TestWebsocketReceivesBroadcasts(t *testing.T) {
	s, addr, cancel, errCh := startServer(t, t.TempDir())
	defer stopServer(t, cancel, errCh)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Hub().Clients() == 1 },
		2*time.Second, 10*time.Millisecond, "client must register with the hub")

	s.Hub().BroadcastUpdate("virtual:JsonConfig")
	s.Hub().BroadcastReload()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first Message
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "update", first.Type)
	assert.Equal(t, "virtual:JsonConfig", first.ID)

	var second Message
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "reload", second.Type)
	assert.Empty(t, second.ID)
}

func TestWebsocketClientDisconnectUpdatesCount(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, addr, cancel, errCh := startServer(t, t.TempDir())

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return s.Hub().Clients() == 1 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return s.Hub().Clients() == 0 },
		2*time.Second, 10*time.Millisecond, "hub must unregister the closed client")

	stopServer(t, cancel, errCh)
}

func TestWebsocketShutdownSendsCloseFrame(t *testing.T) {
	s, addr, cancel, errCh := startServer(t, t.TempDir())

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Hub().Clients() == 1 },
		2*time.Second, 10*time.Millisecond)

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure),
		"clients are told the session is over: %v", err)

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

func TestServerRunTwice(t *testing.T) {
	s, _, cancel, errCh := startServer(t, t.TempDir())
	defer stopServer(t, cancel, errCh)

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestServerRewritesRootOverHTTP(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte("<!doctype html><title>app</title>"), 0o644))

	_, addr, cancel, errCh := startServer(t, dir)
	defer stopServer(t, cancel, errCh)

	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<title>app</title>")
}
