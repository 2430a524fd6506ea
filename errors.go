package pdfdocx

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. Fatal conversions return a *ConversionError whose kind is one
// of these; recovered per-image failures carry them in a Diagnostic.
var (
	ErrEmptyInput       = errors.New("empty input")
	ErrUnreadableSource = errors.New("unreadable source")
	ErrImageDecode      = errors.New("image decode failed")
	ErrImageEmbed       = errors.New("image embed failed")
	ErrAssembly         = errors.New("document assembly failed")
)

// ConversionError is a fatal conversion failure. Both the kind and the
// underlying cause are reachable through errors.Is / errors.As.
type ConversionError struct {
	Kind error
	Err  error
}

func (e *ConversionError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Unwrap exposes the kind and the cause to errors.Is and errors.As.
func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Cause returns the underlying error for github.com/pkg/errors.Cause.
func (e *ConversionError) Cause() error {
	if e.Err == nil {
		return e.Kind
	}
	return e.Err
}

func newConversionError(kind, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return &ConversionError{Kind: kind, Err: errors.Errorf(format, args...)}
	}
	return &ConversionError{Kind: kind, Err: errors.Wrapf(cause, format, args...)}
}

// Diagnostic records a recovered failure for a single content item.
type Diagnostic struct {
	Page  int   // 1-based page number
	Index int   // Position of the item in the page's image list
	Kind  error // ErrImageDecode or ErrImageEmbed
	Err   error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("page %d item %d: %v: %v", d.Page, d.Index+1, d.Kind, d.Err)
}
