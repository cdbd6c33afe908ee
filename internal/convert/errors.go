package convert

import (
	"errors"
	"fmt"

	"github.com/jsyml/jsyml/internal/format"
)

// Error kinds returned by conversions.
//
// They can be checked with errors.Is():
//
//	if errors.Is(err, convert.ErrParse) {
//	    // the input was not valid in its declared format
//	}
var (
	// ErrInvalidExtension is returned when a path does not end in one of
	// the recognized extensions. It is detected before any I/O.
	ErrInvalidExtension = errors.New("invalid extension")

	// ErrUnsupportedPair is returned when the input/output format
	// combination is not one the bridge can convert.
	ErrUnsupportedPair = errors.New("unsupported format pair")

	// ErrParse is returned when the input is not valid in its format.
	ErrParse = errors.New("parse error")

	// ErrSerialize is returned when a parsed value cannot be rendered in
	// the target format (non-string mapping keys or non-finite numbers in
	// JSON, for example).
	ErrSerialize = errors.New("serialize error")

	// ErrIO is returned for read, write, create, rename and delete failures.
	ErrIO = errors.New("i/o error")
)

// Error wraps an underlying error with the operation that failed, the format
// or path involved, and one of the kinds above.
type Error struct {
	Op     string
	Kind   error
	Format format.Format // Optional
	Path   string        // Optional
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := e.Op
	if e.Format != "" {
		base += " " + e.Format.String()
	}
	if e.Path != "" {
		base += " " + e.Path
	}
	if e.Kind != nil {
		base += fmt.Sprintf(": %v", e.Kind)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the kind sentinel carried by err, or nil if err is not a
// conversion error.
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalidExtension, ErrUnsupportedPair, ErrParse, ErrSerialize, ErrIO} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
