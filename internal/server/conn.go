package server

import (
	"bufio"
	"errors"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/models"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/protocol"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// request bodies up to this size are drained to keep the connection usable
	maxDiscardBody = 256 << 10

	// how long unread input is drained before closing a connection, so the
	// close does not turn into a reset that eats the response
	lingerTimeout = 500 * time.Millisecond
)

type conn struct {
	srv *Server
	run *run
	id  string
	nc  net.Conn
	br  *bufio.Reader

	// guarded by srv.mu
	idle bool

	closeOnce sync.Once
}

func newConn(s *Server, r *run, nc net.Conn) *conn {
	return &conn{
		srv:  s,
		run:  r,
		id:   uuid.New().String(),
		nc:   nc,
		br:   bufio.NewReader(nc),
		idle: true,
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		c.nc.Close()
	})
}

func (c *conn) serve() {
	defer c.close()

	for first := true; ; first = false {
		if !c.srv.setIdle(c) {
			return
		}

		wait := c.srv.idleTimeout
		if first {
			wait = c.srv.readHeaderTimeout
		}
		c.setReadDeadline(wait)

		if _, err := c.br.Peek(1); err != nil {
			if !errors.Is(err, io.EOF) && !isTimeout(err) && !errors.Is(err, net.ErrClosed) {
				log.Printf("conn_id=%s: read error: %v", c.id, err)
			}
			return
		}
		if !c.srv.setActive(c) {
			return
		}

		c.setReadDeadline(c.srv.readHeaderTimeout)
		if !c.serveRequest() {
			return
		}
	}
}

func (c *conn) setReadDeadline(d time.Duration) {
	var t time.Time
	if d > 0 {
		t = time.Now().Add(d)
	}
	c.nc.SetReadDeadline(t)
}

// serveRequest reads and answers one request. It reports whether the
// connection may be reused.
func (c *conn) serveRequest() bool {
	start := time.Now()

	req, err := protocol.ReadRequest(c.br)
	if err != nil {
		if errors.Is(err, io.EOF) || isTimeout(err) || errors.Is(err, net.ErrClosed) {
			return false
		}
		c.reject(start, err)
		return false
	}

	c.nc.SetReadDeadline(time.Time{})
	keepAlive := req.KeepAlive()

	cl, err := req.ContentLength()
	if err != nil {
		c.reject(start, err)
		return false
	}
	unread := false
	if req.Chunked() || cl > maxDiscardBody {
		unread = true
	} else if cl > 0 {
		if _, err := io.CopyN(io.Discard, c.br, cl); err != nil {
			unread = true
		}
	}
	if unread {
		keepAlive = false
	}

	res := c.srv.handler.Handle(req)
	if c.srv.shuttingDown(c.run) {
		keepAlive = false
	}

	if !c.write(start, req.Method, req.Target, res, keepAlive) {
		return false
	}
	if unread {
		c.closeWriteAndWait()
	}
	return keepAlive
}

// reject answers a request that could not be parsed and closes the connection
func (c *conn) reject(start time.Time, err error) {
	status, message := http.StatusBadRequest, "Bad request syntax"
	switch {
	case errors.Is(err, protocol.ErrHeaderTooLarge):
		status, message = http.StatusRequestHeaderFieldsTooLarge, "Request header too large"
	case errors.Is(err, protocol.ErrVersionNotSupported):
		status, message = http.StatusHTTPVersionNotSupported, "Invalid HTTP version"
	}
	log.Printf("conn_id=%s: rejected request: %v", c.id, err)

	if c.write(start, "-", "-", c.srv.handler.Error(nil, status, message), false) {
		c.closeWriteAndWait()
	}
}

func (c *conn) closeWriteAndWait() {
	if cw, ok := c.nc.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite()
	}
	c.nc.SetReadDeadline(time.Now().Add(lingerTimeout))
	io.Copy(io.Discard, c.br)
}

func (c *conn) write(start time.Time, method, target string, res *protocol.Response, keepAlive bool) bool {
	defer res.Close()

	if keepAlive {
		res.Headers.Set("Connection", "keep-alive")
	} else {
		res.Headers.Set("Connection", "close")
	}

	n, err := protocol.WriteResponse(c.nc, res)
	c.srv.metrics.RecordResponse(res.Status, n)

	if c.srv.access != nil {
		c.srv.access.Record(&models.AccessRecord{
			ConnID:     c.id,
			RemoteAddr: c.nc.RemoteAddr().String(),
			Method:     method,
			Path:       target,
			Status:     res.Status,
			Bytes:      n,
			Duration:   time.Since(start),
		})
	}

	if err != nil {
		log.Printf("conn_id=%s: error writing response: %v", c.id, err)
		return false
	}
	if res.Body != nil {
		if want, ok := announcedLength(res); ok && n < want {
			log.Printf("conn_id=%s: short body for %s: wrote %d of %d bytes", c.id, target, n, want)
			c.closeWriteAndWait()
			return false
		}
	}
	return true
}

func announcedLength(res *protocol.Response) (int64, bool) {
	v := res.Headers.Get("Content-Length")
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
