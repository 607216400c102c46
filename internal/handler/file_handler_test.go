package handler

import (
	"bufio"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/metrics"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/protocol"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/service"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T, listing bool) (*FileHandler, string, *metrics.Metrics) {
	t.Helper()

	parent, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	root := filepath.Join(parent, "root")

	contents := map[string]string{
		filepath.Join(parent, "secret.txt"):        "top secret",
		filepath.Join(root, "index.html"):          "hello world",
		filepath.Join(root, "globe.js"):            "console.log('spin')",
		filepath.Join(root, "assets", "earth.jpg"): "\xff\xd8\xff\xe0jpeg",
		filepath.Join(root, "assets", "data.bin"):  "\x00\x01\x02",
		filepath.Join(root, "assets", "<b>.txt"):   "tag",
	}
	for path, content := range contents {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets", "textures"), 0o755))

	m := metrics.NewMetrics()
	files := service.NewFileService(root, []string{"index.html", "index.htm"}, listing)
	h := NewFileHandler(files, m)
	h.now = func() time.Time { return fixedNow }
	return h, root, m
}

func do(t *testing.T, h *FileHandler, raw string) (*protocol.Response, string) {
	t.Helper()

	req, err := protocol.ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)

	res := h.Handle(req)
	defer res.Close()

	var body []byte
	if res.Body != nil {
		body, err = io.ReadAll(res.Body)
		require.NoError(t, err)
	}
	return res, string(body)
}

func TestFileHandler_ServeIndexHTML(t *testing.T) {
	h, _, m := newTestHandler(t, true)

	res, body := do(t, h, "GET /index.html HTTP/1.1\r\nHost: localhost\r\n\r\n")

	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "11", res.Headers.Get("Content-Length"))
	assert.Equal(t, "text/html; charset=utf-8", res.Headers.Get("Content-Type"))
	assert.Equal(t, "hello world", body)
	assert.Equal(t, fixedNow.Format(http.TimeFormat), res.Headers.Get("Date"))
	assert.Equal(t, ServerName, res.Headers.Get("Server"))
	assert.NotEmpty(t, res.Headers.Get("Last-Modified"))
	assert.Equal(t, int64(1), m.GetSnapshot()["requests"])
}

func TestFileHandler_BodyMatchesFile(t *testing.T) {
	h, root, _ := newTestHandler(t, true)

	for _, rel := range []string{"globe.js", "assets/earth.jpg", "assets/data.bin"} {
		want, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		require.NoError(t, err)

		res, body := do(t, h, "GET /"+rel+" HTTP/1.1\r\n\r\n")
		assert.Equal(t, http.StatusOK, res.Status, rel)
		assert.Equal(t, string(want), body, rel)
		assert.Equal(t, len(want), mustAtoi(t, res.Headers.Get("Content-Length")), rel)
	}
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}

func TestFileHandler_ContentType(t *testing.T) {
	h, _, _ := newTestHandler(t, true)

	tests := map[string]string{
		"/globe.js":         "text/javascript; charset=utf-8",
		"/assets/earth.jpg": "image/jpeg",
		"/assets/data.bin":  "application/octet-stream",
	}
	for path, want := range tests {
		res, _ := do(t, h, "GET "+path+" HTTP/1.1\r\n\r\n")
		assert.Equal(t, want, res.Headers.Get("Content-Type"), path)
	}
}

func TestFileHandler_NotFound(t *testing.T) {
	h, _, _ := newTestHandler(t, true)

	for _, path := range []string{"/missing.html", "/assets/moon.jpg", "/index.html/"} {
		res, body := do(t, h, "GET "+path+" HTTP/1.1\r\n\r\n")
		assert.Equal(t, http.StatusNotFound, res.Status, path)
		assert.Contains(t, body, "Error code: 404")
	}
}

func TestFileHandler_Traversal(t *testing.T) {
	h, _, _ := newTestHandler(t, true)

	for _, target := range []string{"/../secret.txt", "/assets/../../secret.txt", "/%2e%2e/secret.txt", "/..%2fsecret.txt"} {
		res, body := do(t, h, "GET "+target+" HTTP/1.1\r\n\r\n")
		assert.Equal(t, http.StatusForbidden, res.Status, target)
		assert.NotContains(t, body, "top secret", target)
	}
}

func TestFileHandler_Head(t *testing.T) {
	h, _, _ := newTestHandler(t, true)

	res, body := do(t, h, "HEAD /index.html HTTP/1.1\r\n\r\n")
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "11", res.Headers.Get("Content-Length"))
	assert.Nil(t, res.Body)
	assert.Empty(t, body)

	res, _ = do(t, h, "HEAD /missing HTTP/1.1\r\n\r\n")
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Nil(t, res.Body)
	assert.NotEqual(t, "0", res.Headers.Get("Content-Length"))
}

func TestFileHandler_UnsupportedMethod(t *testing.T) {
	h, _, _ := newTestHandler(t, true)

	res, body := do(t, h, "POST /index.html HTTP/1.1\r\nContent-Length: 0\r\n\r\n")
	assert.Equal(t, http.StatusNotImplemented, res.Status)
	assert.Contains(t, body, "Unsupported method (POST)")
}

func TestFileHandler_DirectoryRedirect(t *testing.T) {
	h, _, _ := newTestHandler(t, true)

	res, _ := do(t, h, "GET /assets?x=1 HTTP/1.1\r\n\r\n")
	assert.Equal(t, http.StatusMovedPermanently, res.Status)
	assert.Equal(t, "/assets/?x=1", res.Headers.Get("Location"))
	assert.Equal(t, "0", res.Headers.Get("Content-Length"))
}

func TestFileHandler_DirectoryRedirectStaysOnHost(t *testing.T) {
	h, root, _ := newTestHandler(t, true)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "evil.com"), 0o755))

	tests := []struct {
		target   string
		location string
	}{
		{"//evil.com", "/evil.com/"},
		{"///evil.com?x=1", "/evil.com/?x=1"},
		{"//assets", "/assets/"},
	}

	for _, tt := range tests {
		res, _ := do(t, h, "GET "+tt.target+" HTTP/1.1\r\n\r\n")
		assert.Equal(t, http.StatusMovedPermanently, res.Status, tt.target)
		assert.Equal(t, tt.location, res.Headers.Get("Location"), tt.target)
	}
}

func TestFileHandler_InternalError(t *testing.T) {
	h, root, m := newTestHandler(t, true)
	require.NoError(t, os.Symlink("loop", filepath.Join(root, "loop")))

	res, body := do(t, h, "GET /loop HTTP/1.1\r\n\r\n")
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Contains(t, body, "Internal server error")
	assert.Equal(t, len(body), mustAtoi(t, res.Headers.Get("Content-Length")))

	res, body = do(t, h, "GET /index.html HTTP/1.1\r\n\r\n")
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "hello world", body)
	assert.Equal(t, int64(2), m.GetSnapshot()["requests"])
}

func TestFileHandler_DirectoryIndex(t *testing.T) {
	h, _, _ := newTestHandler(t, true)

	res, body := do(t, h, "GET / HTTP/1.1\r\n\r\n")
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "hello world", body)
}

func TestFileHandler_DirectoryListing(t *testing.T) {
	h, _, _ := newTestHandler(t, true)

	res, body := do(t, h, "GET /assets/ HTTP/1.1\r\n\r\n")
	require.Equal(t, http.StatusOK, res.Status)

	assert.Equal(t, "text/html; charset=utf-8", res.Headers.Get("Content-Type"))
	assert.Equal(t, len(body), mustAtoi(t, res.Headers.Get("Content-Length")))
	assert.Contains(t, body, "Directory listing for /assets/")
	assert.Contains(t, body, `<a href="earth.jpg">earth.jpg</a>`)
	assert.Contains(t, body, `<a href="textures/">textures/</a>`)
	assert.Contains(t, body, `<a href="%3Cb%3E.txt">&lt;b&gt;.txt</a>`)
	assert.NotContains(t, body, "<b>.txt")
	assert.Less(t, strings.Index(body, "data.bin"), strings.Index(body, "earth.jpg"))
}

func TestFileHandler_ListingDisabled(t *testing.T) {
	h, _, _ := newTestHandler(t, false)

	res, _ := do(t, h, "GET /assets/ HTTP/1.1\r\n\r\n")
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestFileHandler_IfModifiedSince(t *testing.T) {
	h, root, _ := newTestHandler(t, true)

	mtime := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(root, "globe.js"), mtime, mtime))

	res, body := do(t, h, "GET /globe.js HTTP/1.1\r\nIf-Modified-Since: "+mtime.Format(http.TimeFormat)+"\r\n\r\n")
	assert.Equal(t, http.StatusNotModified, res.Status)
	assert.Empty(t, body)
	assert.Equal(t, mtime.Format(http.TimeFormat), res.Headers.Get("Last-Modified"))

	older := mtime.Add(-time.Hour).Format(http.TimeFormat)
	res, body = do(t, h, "GET /globe.js HTTP/1.1\r\nIf-Modified-Since: "+older+"\r\n\r\n")
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "console.log('spin')", body)

	res, _ = do(t, h, "GET /globe.js HTTP/1.1\r\nIf-Modified-Since: yesterday\r\n\r\n")
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestFileHandler_ErrorWithoutRequest(t *testing.T) {
	h, _, _ := newTestHandler(t, true)

	res := h.Error(nil, http.StatusBadRequest, "Bad request syntax")
	require.NotNil(t, res.Body)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Contains(t, string(body), "Message: Bad request syntax.")
}
