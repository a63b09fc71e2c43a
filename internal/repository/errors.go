// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking service and handlers to distinguish between different failure
// scenarios. For example, ErrDuplicateRef indicates a collision on a
// generated booking reference, while ErrConflict signals that an
// operation cannot proceed given the record's current state (e.g.
// initiating payment on a cancelled booking).
package repository

import "errors"

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as starting a payment for a booking that is
// already confirmed. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrDuplicateRef is returned when an insert collides on a unique
// reference or transaction id. Callers may regenerate and retry.
var ErrDuplicateRef = errors.New("duplicate reference")
