package model

import (
	"errors"
	"fmt"

	"github.com/towns-protocol/towns-sub022/events"
	"github.com/towns-protocol/towns-sub022/storage"
)

type ErrorCode string

const (
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"
	ErrInvalidPrevEventHash ErrorCode = "INVALID_PREV_EVENT_HASH"
	ErrHashMismatch         ErrorCode = "HASH_MISMATCH"
	ErrSignatureMismatch    ErrorCode = "SIGNATURE_MISMATCH"
	ErrPrevEventMismatch    ErrorCode = "PREV_EVENT_MISMATCH"
	ErrUnknownPayloadKind   ErrorCode = "UNKNOWN_PAYLOAD_KIND"
	ErrBadEvent             ErrorCode = "BAD_EVENT"
	ErrNotFound             ErrorCode = "NOT_FOUND"
	ErrCIDMismatch          ErrorCode = "CID_MISMATCH"
	ErrRejected             ErrorCode = "REJECTED"
	ErrInternal             ErrorCode = "INTERNAL"
)

// CodedError is a stable error with a machine-readable code and a human message.
// Index and Hash locate the offending event when the error came from a batch.
type CodedError struct {
	Code    ErrorCode `json:"code" yaml:"code"`
	Message string    `json:"message" yaml:"message"`
	Index   *int      `json:"index,omitempty" yaml:"index,omitempty"`
	Hash    string    `json:"hash,omitempty" yaml:"hash,omitempty"`
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

var kindCodes = map[events.Kind]ErrorCode{
	events.KindInvalidPrevEventHash: ErrInvalidPrevEventHash,
	events.KindHashMismatch:         ErrHashMismatch,
	events.KindSignatureMismatch:    ErrSignatureMismatch,
	events.KindPrevEventMismatch:    ErrPrevEventMismatch,
	events.KindUnknownPayloadKind:   ErrUnknownPayloadKind,
	events.KindBadPayload:           ErrBadEvent,
	events.KindBadEvent:             ErrBadEvent,
	events.KindEncoding:             ErrInvalidRequest,
}

// FromError projects err onto a CodedError. Structured event errors keep their
// batch location.
func FromError(err error) *CodedError {
	if err == nil {
		return nil
	}
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce
	}
	var ee *events.Error
	if errors.As(err, &ee) {
		out := &CodedError{Code: ErrInternal, Message: err.Error(), Hash: ee.Hash}
		if code, ok := kindCodes[ee.Kind]; ok {
			out.Code = code
		}
		if ee.Index != events.NoIndex {
			idx := ee.Index
			out.Index = &idx
		}
		return out
	}
	switch {
	case storage.IsNotFound(err):
		return NewError(ErrNotFound, err.Error())
	case errors.Is(err, storage.ErrCIDMismatch):
		return NewError(ErrCIDMismatch, err.Error())
	case storage.IsRejected(err):
		return NewError(ErrRejected, err.Error())
	default:
		return NewError(ErrInternal, err.Error())
	}
}
