package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

const (
	maxLineLength  = 8 << 10
	maxHeaderCount = 100

	// blank lines tolerated ahead of a request line
	maxLeadingBlankLines = 4
)

var (
	ErrMalformedRequest    = errors.New("malformed request")
	ErrHeaderTooLarge      = errors.New("request header too large")
	ErrVersionNotSupported = errors.New("http version not supported")
)

// Header holds one value per field, keyed by lower-cased name. Repeated
// fields are joined with ", ".
type Header map[string]string

func (h Header) Get(name string) string {
	return h[strings.ToLower(name)]
}

func (h Header) Set(name, value string) {
	h[strings.ToLower(name)] = value
}

func (h Header) Del(name string) {
	delete(h, strings.ToLower(name))
}

// Request is a parsed HTTP/1.x request head.
type Request struct {
	Method   string
	Target   string
	Path     string // percent-decoded, no query
	RawPath  string // as sent, no query
	RawQuery string
	Version  string
	Headers  Header
}

// KeepAlive reports whether the client asked for the connection to stay open.
func (r *Request) KeepAlive() bool {
	conn := strings.ToLower(r.Headers.Get("connection"))
	if hasToken(conn, "close") {
		return false
	}
	if r.Version == "HTTP/1.0" {
		return hasToken(conn, "keep-alive")
	}
	return true
}

// ContentLength returns the announced body length, 0 if absent.
func (r *Request) ContentLength() (int64, error) {
	cls := r.Headers.Get("content-length")
	if cls == "" {
		return 0, nil
	}
	cls = strings.TrimSpace(cls)
	if !isDigits(cls) {
		return 0, fmt.Errorf("%w: invalid Content-Length %q", ErrMalformedRequest, cls)
	}
	cl, err := strconv.ParseInt(cls, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid Content-Length %q", ErrMalformedRequest, cls)
	}
	return cl, nil
}

// Chunked reports whether the request carries a Transfer-Encoding body.
func (r *Request) Chunked() bool {
	_, ok := r.Headers["transfer-encoding"]
	return ok
}

func hasToken(v, token string) bool {
	for _, f := range strings.Split(v, ",") {
		if strings.TrimSpace(f) == token {
			return true
		}
	}
	return false
}

// ReadRequest reads a request line and its headers from br. It returns io.EOF
// untouched when the peer closes before sending anything.
func ReadRequest(br *bufio.Reader) (*Request, error) {
	var line string
	var err error
	for i := 0; ; i++ {
		line, err = readLine(br)
		if err != nil {
			if i == 0 && errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, err
		}
		if line != "" {
			break
		}
		if i >= maxLeadingBlankLines {
			return nil, fmt.Errorf("%w: empty request line", ErrMalformedRequest)
		}
	}

	req, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	req.Headers, err = readHeaders(br)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// similar to readLineSlice() in net/textproto/reader.go, but bounded
func readLine(br *bufio.Reader) (string, error) {
	var line []byte
	for {
		l, more, err := br.ReadLine()
		if err != nil {
			if line != nil && errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: unexpected EOF", ErrMalformedRequest)
			}
			return "", err
		}
		if len(line)+len(l) > maxLineLength {
			return "", ErrHeaderTooLarge
		}
		if line == nil && !more {
			return string(l), nil
		}
		line = append(line, l...)
		if !more {
			break
		}
	}
	return string(line), nil
}

func parseRequestLine(rl string) (*Request, error) {
	fields := strings.Split(rl, " ")
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: invalid request line %q", ErrMalformedRequest, rl)
	}

	method, target, version := fields[0], fields[1], fields[2]
	if !isToken(method) {
		return nil, fmt.Errorf("%w: invalid method %q", ErrMalformedRequest, method)
	}
	if err := checkVersion(version); err != nil {
		return nil, err
	}

	req := &Request{
		Method:  method,
		Target:  target,
		Version: version,
	}
	if err := req.parseTarget(); err != nil {
		return nil, err
	}
	return req, nil
}

func checkVersion(v string) error {
	rest, ok := strings.CutPrefix(v, "HTTP/")
	if !ok {
		return fmt.Errorf("%w: invalid version %q", ErrMalformedRequest, v)
	}
	major, minor, ok := strings.Cut(rest, ".")
	if !ok || !isDigits(major) || !isDigits(minor) {
		return fmt.Errorf("%w: invalid version %q", ErrMalformedRequest, v)
	}
	if major != "1" {
		if n, _ := strconv.Atoi(major); n >= 2 {
			return fmt.Errorf("%w: %s", ErrVersionNotSupported, v)
		}
		return fmt.Errorf("%w: invalid version %q", ErrMalformedRequest, v)
	}
	return nil
}

func (r *Request) parseTarget() error {
	raw := r.Target
	if !strings.HasPrefix(raw, "/") {
		// absolute-form, as sent to proxies
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: invalid request target %q", ErrMalformedRequest, raw)
		}
		raw = u.EscapedPath()
		if raw == "" {
			raw = "/"
		}
		if u.RawQuery != "" {
			raw += "?" + u.RawQuery
		}
	}

	raw, _, _ = strings.Cut(raw, "#")
	rawPath, rawQuery, _ := strings.Cut(raw, "?")

	p, err := url.PathUnescape(rawPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if strings.ContainsRune(p, 0) {
		return fmt.Errorf("%w: NUL in path", ErrMalformedRequest)
	}

	r.RawPath = rawPath
	r.RawQuery = rawQuery
	r.Path = p
	return nil
}

func readHeaders(br *bufio.Reader) (Header, error) {
	headers := make(Header)
	for n := 0; ; n++ {
		line, err := readLine(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: unexpected EOF in headers", ErrMalformedRequest)
			}
			return nil, err
		}
		if len(line) == 0 {
			break
		}
		if n >= maxHeaderCount {
			return nil, ErrHeaderTooLarge
		}
		if line[0] == ' ' || line[0] == '\t' {
			return nil, fmt.Errorf("%w: folded header line", ErrMalformedRequest)
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || !isToken(name) {
			return nil, fmt.Errorf("%w: invalid header line %q", ErrMalformedRequest, line)
		}
		key := strings.ToLower(name)
		value = strings.TrimSpace(value)
		if prev, exists := headers[key]; exists {
			value = prev + ", " + value
		}
		headers[key] = value
	}
	return headers, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c >= 0x7f || strings.IndexByte(`"(),/:;<=>?@[\]{}`, c) >= 0 {
			return false
		}
	}
	return true
}
