package server

import (
	"errors"
	"fmt"
)

var ErrServerRunning = errors.New("server already running")

// BindError is returned by Start when the listening socket cannot be opened
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}
