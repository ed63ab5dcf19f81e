// Package workspace implements the versioned record access layer: every
// agent write is routed into an isolated per-principal workspace, every read
// overlays workspace versions onto the live dataset, and callers only ever
// see stable logical record ids.
package workspace

import (
	"errors"
	"fmt"
)

// Kind is the stable, caller-visible classification of a repository error.
type Kind string

const (
	// KindUnknownCollection: the collection is not registered in the catalog.
	KindUnknownCollection Kind = "unknown_collection"
	// KindNotFound: no live or workspace version is reachable for the id.
	KindNotFound Kind = "not_found"
	// KindAccessDenied: the access gate refused the operation.
	KindAccessDenied Kind = "access_denied"
	// KindFieldRejected: caller-supplied data touched an identity,
	// version-control, or otherwise router-owned field.
	KindFieldRejected Kind = "identity_field_rejected"
	// KindContextUnavailable: no workspace could be selected or created.
	KindContextUnavailable Kind = "context_unavailable"
	// KindWriteFailed: the storage transaction rolled back.
	KindWriteFailed Kind = "write_failed"
	// KindConflict is reserved for lost-update detection. Nothing raises
	// it today; concurrent updates apply last-write-wins.
	KindConflict Kind = "conflict"
)

// Error is a classified repository error. The message is safe to show to
// callers; the wrapped cause (if any) is for logs only.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Errf builds a classified error with a formatted caller-safe message.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// wrap attaches a cause to a classified error.
func wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the classification of err, or "" if err is not a
// repository error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
