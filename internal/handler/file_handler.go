package handler

import (
	"bytes"
	"errors"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/metrics"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/models"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/protocol"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/service"
	"io"
	"io/fs"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

const ServerName = "rotating-globe/1.0"

var allowedMethods = []string{http.MethodGet, http.MethodHead}

// FileHandler turns parsed requests into responses served from a FileService
type FileHandler struct {
	files   *service.FileService
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewFileHandler creates a new file handler
func NewFileHandler(files *service.FileService, metrics *metrics.Metrics) *FileHandler {
	return &FileHandler{
		files:   files,
		metrics: metrics,
		now:     time.Now,
	}
}

// Handle answers a GET or HEAD request. The caller writes the response and
// must call Close on it afterwards.
func (h *FileHandler) Handle(req *protocol.Request) *protocol.Response {
	h.metrics.IncrementRequests()

	if !lo.Contains(allowedMethods, req.Method) {
		return h.Error(req, http.StatusNotImplemented, "Unsupported method ("+req.Method+")")
	}

	asset, err := h.files.Lookup(req.Path)
	if err != nil {
		return h.lookupError(req, err)
	}

	switch asset.Kind {
	case models.AssetRedirect:
		return h.redirect(req)
	case models.AssetListing:
		return h.listing(req, asset)
	default:
		return h.file(req, asset)
	}
}

// Error builds an HTML error response. HEAD requests get the headers only.
func (h *FileHandler) Error(req *protocol.Request, status int, message string) *protocol.Response {
	res := h.newResponse(status)
	body := renderError(status, message)
	res.Headers.Set("Content-Type", "text/html; charset=utf-8")
	res.Headers.Set("Content-Length", strconv.Itoa(len(body)))
	if req == nil || req.Method != http.MethodHead {
		res.Body = bytes.NewReader(body)
	}
	return res
}

func (h *FileHandler) lookupError(req *protocol.Request, err error) *protocol.Response {
	switch {
	case errors.Is(err, service.ErrForbidden):
		log.Printf("path=%s: rejected path outside root", req.Path)
		return h.Error(req, http.StatusForbidden, "Forbidden")
	case errors.Is(err, service.ErrNotFound):
		return h.Error(req, http.StatusNotFound, "File not found")
	case errors.Is(err, fs.ErrPermission):
		return h.Error(req, http.StatusForbidden, "Permission denied")
	default:
		log.Printf("path=%s: error looking up file: %v", req.Path, err)
		return h.Error(req, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *FileHandler) redirect(req *protocol.Request) *protocol.Response {
	// a leading "//" would make Location a protocol-relative URL to another host
	location := "/" + strings.TrimLeft(req.RawPath, "/") + "/"
	if req.RawQuery != "" {
		location += "?" + req.RawQuery
	}

	res := h.newResponse(http.StatusMovedPermanently)
	res.Headers.Set("Location", location)
	res.Headers.Set("Content-Length", "0")
	return res
}

func (h *FileHandler) listing(req *protocol.Request, asset *models.Asset) *protocol.Response {
	body, err := renderListing(req.Path, asset.Entries)
	if err != nil {
		log.Printf("path=%s: error rendering listing: %v", req.Path, err)
		return h.Error(req, http.StatusInternalServerError, "Internal server error")
	}

	res := h.newResponse(http.StatusOK)
	res.Headers.Set("Content-Type", "text/html; charset=utf-8")
	res.Headers.Set("Content-Length", strconv.Itoa(len(body)))
	if req.Method != http.MethodHead {
		res.Body = bytes.NewReader(body)
	}
	return res
}

// fileBody caps the body at the size announced in Content-Length
type fileBody struct {
	io.Reader
	io.Closer
}

func (h *FileHandler) file(req *protocol.Request, asset *models.Asset) *protocol.Response {
	modTime := asset.Info.ModTime().UTC().Truncate(time.Second)

	if notModified(req, modTime) {
		asset.File.Close()
		res := h.newResponse(http.StatusNotModified)
		res.Headers.Set("Last-Modified", modTime.Format(http.TimeFormat))
		return res
	}

	size := asset.Info.Size()
	res := h.newResponse(http.StatusOK)
	res.Headers.Set("Content-Type", contentType(filepath.Base(asset.FullPath)))
	res.Headers.Set("Content-Length", strconv.FormatInt(size, 10))
	res.Headers.Set("Last-Modified", modTime.Format(http.TimeFormat))

	if req.Method == http.MethodHead {
		asset.File.Close()
		return res
	}
	res.Body = fileBody{io.LimitReader(asset.File, size), asset.File}
	return res
}

func notModified(req *protocol.Request, modTime time.Time) bool {
	ims := req.Headers.Get("if-modified-since")
	if ims == "" || req.Headers.Get("if-none-match") != "" {
		return false
	}
	t, err := http.ParseTime(ims)
	if err != nil {
		return false
	}
	return !modTime.After(t)
}

func (h *FileHandler) newResponse(status int) *protocol.Response {
	res := protocol.NewResponse(status)
	res.Headers.Set("Date", h.now().UTC().Format(http.TimeFormat))
	res.Headers.Set("Server", ServerName)
	return res
}
