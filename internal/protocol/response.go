package protocol

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"sort"
	"unicode"

	"github.com/samber/lo"
)

// Response is written back to the client by WriteResponse. Body may be nil.
type Response struct {
	Version string
	Status  int
	Headers Header
	Body    io.Reader
}

// NewResponse returns an HTTP/1.1 response with an empty header set.
func NewResponse(status int) *Response {
	return &Response{
		Version: "HTTP/1.1",
		Status:  status,
		Headers: make(Header),
	}
}

// Phrase returns the reason phrase for the status code.
func (r *Response) Phrase() string {
	if p := http.StatusText(r.Status); p != "" {
		return p
	}
	return "Unknown"
}

// Close closes the body if it is an io.Closer.
func (r *Response) Close() error {
	if c, ok := r.Body.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func capitalizeHeader(h string) string {
	ret := []rune(h)
	up := true
	for i, c := range ret {
		if up && unicode.IsLetter(c) {
			ret[i] = unicode.ToUpper(c)
			up = false
		}
		if c == '-' {
			up = true
		}
	}
	return string(ret)
}

// WriteResponse writes the status line, headers in name order and the body.
// It returns the number of body bytes written.
func WriteResponse(w io.Writer, res *Response) (int64, error) {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "%s %d %s\r\n", res.Version, res.Status, res.Phrase()); err != nil {
		return 0, err
	}

	keys := lo.Keys(res.Headers)
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(bw, "%s: %s\r\n", capitalizeHeader(k), res.Headers[k]); err != nil {
			return 0, err
		}
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return 0, err
	}

	var n int64
	if res.Body != nil {
		var err error
		n, err = io.Copy(bw, res.Body)
		if err != nil {
			return n, fmt.Errorf("failed to write body: %w", err)
		}
	}

	return n, bw.Flush()
}
