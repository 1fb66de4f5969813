package events

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind rather than matching error strings.
// Use errors.As to extract *Error for the offending index and hash.
type Kind string

const (
	KindInvalidPrevEventHash Kind = "InvalidPrevEventHash"
	KindHashMismatch         Kind = "HashMismatch"
	KindSignatureMismatch    Kind = "SignatureMismatch"
	KindPrevEventMismatch    Kind = "PrevEventMismatch"
	KindUnknownPayloadKind   Kind = "UnknownPayloadKind"
	KindBadPayload           Kind = "BadPayload"
	KindBadEvent             Kind = "BadEvent"
	KindEncoding             Kind = "Encoding"
)

// NoIndex marks an Error that was not raised from a batch call.
const NoIndex = -1

// Error is the package's structured error type.
//
// Index is the position of the offending event within a batch (NoIndex otherwise)
// and Hash is the offending event's stored hash when known.
type Error struct {
	Kind    Kind
	Index   int
	Hash    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Index != NoIndex {
		fmt.Fprintf(&b, " (index %d)", e.Index)
	}
	if e.Hash != "" {
		fmt.Fprintf(&b, " (event %s)", e.Hash)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError builds an *Error outside of any batch. It is exported so the rollup
// and stream layers report failures with the same taxonomy.
func NewError(kind Kind, hash, msg string) *Error {
	return &Error{Kind: kind, Index: NoIndex, Hash: hash, Message: msg}
}

// WrapError is NewError with a cause.
func WrapError(kind Kind, hash, msg string, cause error) *Error {
	e := NewError(kind, hash, msg)
	e.Cause = cause
	return e
}

func newErrorf(kind Kind, hash, format string, args ...any) *Error {
	return NewError(kind, hash, fmt.Sprintf(format, args...))
}

// AtIndex annotates err with its batch position. Errors that are not *Error
// are wrapped as KindBadEvent so batch callers always get the structured form.
func AtIndex(err error, index int, hash string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return &Error{Kind: KindBadEvent, Index: index, Hash: hash, Message: "event rejected", Cause: err}
	}
	annotated := *e
	annotated.Index = index
	if annotated.Hash == "" {
		annotated.Hash = hash
	}
	return &annotated
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}
