package stream

import (
	"context"
	"errors"
	"fmt"
)

// StatusError reports a non-2xx response. Body holds the response text.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected response: %d", e.Code)
	}
	return fmt.Sprintf("unexpected response: %d: %s", e.Code, truncate(e.Body, 200))
}

// ParseError reports a complete line that is not a valid message record
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid message record %q: %v", e.Line, truncate(e.Text, 80), e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsCanceled reports whether err comes from the caller stopping the request
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
