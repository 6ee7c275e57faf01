package transcript

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported transcript format")
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrMalformedRecord    = errors.New("malformed record")
)

// ParseError locates a parse failure inside a transcript file. Err wraps one
// of the package sentinels.
type ParseError struct {
	Path  string
	Where string // "line 12", "record 3"
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Path != "" && e.Where != "":
		return fmt.Sprintf("%s (%s): %v", e.Path, e.Where, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	case e.Where != "":
		return fmt.Sprintf("%s: %v", e.Where, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func atLine(n int, err error) *ParseError {
	return &ParseError{Where: fmt.Sprintf("line %d", n), Err: err}
}

// withPath attaches the file path to a ParseError produced by the in-memory parsers.
func withPath(path string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Path = path
		return pe
	}
	return &ParseError{Path: path, Err: err}
}
