// Package cerr implements the typed error taxonomy from spec §7. Every
// failure raised by the front-end or the codec carries one of these Kinds,
// so callers can errors.As a *cerr.Error and switch on Kind, while
// parseCBufSchema collapses all front-end errors into the single diagnostic
// string its external contract calls for (spec §6).
//
// Wrapping follows the teacher's schema/IDL-adjacent code, which reaches
// for github.com/pkg/errors rather than the context-carrying
// gostdlib/base/errors idiom used by its RPC transport tree — this module
// has no context.Context anywhere (spec §5), so the latter has no call
// site.
package cerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the taxonomy of typed diagnostics from spec §7.
type Kind int

const (
	Unknown Kind = iota
	LexError
	ParseError
	ResolveError
	EvalError
	SizeError
	InvalidOffset
	InvalidMagic
	TruncatedRecord
	UnknownHash
	CompactOverflow
	SizeMismatch
	Encoding
	AmbiguousHash
)

var kindNames = [...]string{
	"Unknown", "LexError", "ParseError", "ResolveError", "EvalError",
	"SizeError", "InvalidOffset", "InvalidMagic", "TruncatedRecord",
	"UnknownHash", "CompactOverflow", "SizeMismatch", "Encoding", "AmbiguousHash",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the typed error returned across package boundaries by both the
// schema front-end and the wire codec.
type Error struct {
	Kind         Kind
	Msg          string
	Line, Column int // 0 when no source position applies
	Cause        error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[Line %d, Col %d] %s: %s", e.Line, e.Column, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with no source position.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// At creates an Error carrying a source position.
func At(kind Kind, line, col int, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Line: line, Column: col}
}

// Wrap attaches kind to an existing cause, adding a stack trace via
// pkg/errors the way the teacher's schema/IDL code does.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: errors.WithStack(cause)}
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
