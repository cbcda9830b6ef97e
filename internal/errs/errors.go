package errs

import (
	"errors"
	"fmt"
)

// Kind is a machine-checkable classification for errors that cross
// component boundaries. Handlers map kinds to HTTP status codes and
// the model clients use them to decide whether a retry makes sense.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindUnreadableDocument  Kind = "unreadable_document"
	KindCredential          Kind = "credential"
	KindUpstreamTimeout     Kind = "upstream_timeout"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindCancelled           Kind = "cancelled"
	KindInternal            Kind = "internal"
)

// Error carries a kind tag, a human-readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a kind-tagged error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a kind-tagged error around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err carries no tag.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is tagged with the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
