package corpus

import (
	"errors"
	"fmt"
)

var (
	// ErrReadFailed marks an input file that could not be opened or scanned.
	ErrReadFailed = errors.New("read failed")
	// ErrMalformedRecord marks a row with fewer fields than its table needs.
	ErrMalformedRecord = errors.New("malformed record")
)

// ParseError reports where reading a corpus file went wrong.
// Line is 1-based; 0 means the failure is not tied to a row.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %q line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %q: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
