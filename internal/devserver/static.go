// SPDX-License-Identifier: MIT

package devserver

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/confmod/internal/fsutil"
	"github.com/ManuGH/confmod/internal/log"
)

var fileRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "confmod_dev_file_requests_total",
	Help: "Static file requests served by the dev server, by outcome",
}, []string{"outcome"})

// staticHandler serves files from the build output directory with checks
// against path traversal, symlink escapes and directory listing. Requests
// for a directory are rewritten to its index.html.
func (s *Server) staticHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithComponentFromContext(r.Context(), "devserver")

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			fileRequests.WithLabelValues("denied").Inc()
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		path := r.URL.Path
		if path == "" || strings.HasSuffix(path, "/") {
			path += "index.html"
		}

		// Multiple URL-decode passes, Unicode normalization and NUL checks
		// catch encoded traversal attempts before any filesystem access.
		if isPathTraversal(path) {
			logger.Warn().
				Str("event", "devserver.file_denied").
				Str("path", r.URL.Path).
				Str("reason", "path_escape").
				Msg("detected traversal sequence")
			fileRequests.WithLabelValues("denied").Inc()
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		resolved, err := fsutil.ConfineRel(s.outdir, strings.TrimPrefix(path, "/"))
		switch {
		case errors.Is(err, fsutil.ErrPathEscapes):
			logger.Warn().
				Str("event", "devserver.file_denied").
				Str("path", path).
				Str("reason", "path_escape").
				Msg("path escapes output directory")
			fileRequests.WithLabelValues("denied").Inc()
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		case errors.Is(err, fs.ErrNotExist):
			fileRequests.WithLabelValues("not_found").Inc()
			http.Error(w, "Not found", http.StatusNotFound)
			return
		case err != nil:
			logger.Error().Err(err).
				Str("event", "devserver.file_error").
				Str("path", path).
				Msg("could not resolve requested path")
			fileRequests.WithLabelValues("error").Inc()
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if err := fsutil.IsRegularFile(resolved); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				fileRequests.WithLabelValues("not_found").Inc()
				http.Error(w, "Not found", http.StatusNotFound)
				return
			}
			// Directories and special files are never served.
			fileRequests.WithLabelValues("denied").Inc()
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		// #nosec G304 -- resolved is confined to the output directory
		f, err := os.Open(resolved)
		if err != nil {
			logger.Error().Err(err).
				Str("event", "devserver.file_error").
				Str("path", resolved).
				Msg("could not open file for serving")
			fileRequests.WithLabelValues("error").Inc()
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Warn().Err(err).Str("path", resolved).Msg("failed to close file")
			}
		}()

		info, err := f.Stat()
		if err != nil {
			logger.Error().Err(err).
				Str("event", "devserver.file_error").
				Str("path", resolved).
				Msg("could not stat opened file")
			fileRequests.WithLabelValues("error").Inc()
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Weak ETag from modtime and size; rebuilt files revalidate, unchanged
		// ones answer 304 despite the no-cache policy.
		etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
		w.Header().Set("ETag", etag)

		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			fileRequests.WithLabelValues("cache_hit").Inc()
			w.WriteHeader(http.StatusNotModified)
			return
		}

		lowerName := strings.ToLower(info.Name())
		switch {
		case strings.HasSuffix(lowerName, ".json"):
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
		case strings.HasSuffix(lowerName, ".js"), strings.HasSuffix(lowerName, ".mjs"):
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		}

		fileRequests.WithLabelValues("allowed").Inc()
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

// isPathTraversal performs robust checks against path traversal attempts.
// It decodes the input multiple times to catch double-encoding, applies
// Unicode normalization, and searches for dangerous sequences including NULs.
func isPathTraversal(p string) bool {
	decoded := p
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		} else if d2, err2 := url.QueryUnescape(decoded); err2 == nil {
			decoded = d2
		}
		if decoded == prev {
			break
		}
	}

	lower := strings.ToLower(decoded)
	dangerSubstrings := []string{
		"..",        // parent traversal
		"..\\",      // windows-style backslash
		"%00",       // encoded NUL
		"%c0%ae",    // overlong UTF-8 for '.'
		"%e0%80%ae", // another overlong variant
	}
	for _, pat := range dangerSubstrings {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	if strings.Contains(decoded, "\x00") {
		return true
	}

	normalized := strings.ToLower(norm.NFC.String(decoded))
	return strings.Contains(normalized, "..")
}
