package storage

import "errors"

// Sentinel errors shared by every CAS implementation. Wrap them with %w.
var (
	ErrNotFound    = errors.New("storage: not found")
	ErrInvalidCID  = errors.New("storage: invalid cid")
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	ErrImmutable   = errors.New("storage: immutable object mismatch")
	ErrRejected    = errors.New("storage: object rejected")
)

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsImmutable(err error) bool { return errors.Is(err, ErrImmutable) }
func IsRejected(err error) bool  { return errors.Is(err, ErrRejected) }
