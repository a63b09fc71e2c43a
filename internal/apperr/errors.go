// Package apperr defines the error taxonomy shared by the supplier client,
// the booking service and the HTTP handlers.  Each category is a distinct
// type so callers can branch with errors.As instead of matching message
// strings.  Upstream errors keep the supplier's Code and Msg values for
// diagnostics while handlers expose only a generic-safe message.
package apperr

import (
    "fmt"
    "strings"
)

// ValidationError reports every violated input rule at once.  Handlers
// return the full Errors slice to the caller so a form can surface all
// problems in a single round trip.
type ValidationError struct {
    Errors []string
}

func (e *ValidationError) Error() string {
    return "validation failed: " + strings.Join(e.Errors, ", ")
}

// NewValidation builds a ValidationError from the collected rule violations.
func NewValidation(errs []string) *ValidationError { return &ValidationError{Errors: errs} }

// UpstreamAuthError means the signature endpoint failed or returned a
// non-success code.  It is fatal for the current call but the next call
// will retry, because the credential cache clears its in-flight slot.
type UpstreamAuthError struct {
    Err error
}

func (e *UpstreamAuthError) Error() string { return "supplier credential issuance failed: " + e.Err.Error() }
func (e *UpstreamAuthError) Unwrap() error { return e.Err }

// UpstreamTimeoutError marks an outbound supplier call that exceeded its
// per-request timeout.
type UpstreamTimeoutError struct {
    Op  string
    Err error
}

func (e *UpstreamTimeoutError) Error() string { return fmt.Sprintf("supplier %s timed out: %v", e.Op, e.Err) }
func (e *UpstreamTimeoutError) Unwrap() error { return e.Err }

// UpstreamRequestError carries a failed supplier response.  Code is the
// supplier's own response code ("200" is success), Msg the human-readable
// text from its Msg array.
type UpstreamRequestError struct {
    Op   string
    Code string
    Msg  string
    Err  error
}

func (e *UpstreamRequestError) Error() string {
    if e.Msg != "" {
        return fmt.Sprintf("supplier %s failed (code %s): %s", e.Op, e.Code, e.Msg)
    }
    if e.Err != nil {
        return fmt.Sprintf("supplier %s failed: %v", e.Op, e.Err)
    }
    return fmt.Sprintf("supplier %s failed (code %s)", e.Op, e.Code)
}
func (e *UpstreamRequestError) Unwrap() error { return e.Err }

// ProtocolError means a supplier response was missing a field the contract
// requires (e.g. the TUI correlation token).  Not retried; it indicates
// contract drift, not a transient fault.
type ProtocolError struct {
    Op    string
    Field string
}

func (e *ProtocolError) Error() string {
    return fmt.Sprintf("supplier %s response missing required field %s", e.Op, e.Field)
}

// SearchTimeoutError is returned when the polling loop exhausts its
// wall-clock deadline without the supplier completing the search.  It is a
// distinct, user-actionable condition: the caller can simply search again.
type SearchTimeoutError struct {
    TUI string
}

func (e *SearchTimeoutError) Error() string {
    return "flight search timed out before the supplier completed (TUI " + e.TUI + ")"
}

// PricingError is a hard failure from the smart-pricer or live-pricer call.
// A price change (supplier code "1500") is never wrapped in this type; it is
// a normal PricingResult variant.
type PricingError struct {
    Code string
    Msg  string
}

func (e *PricingError) Error() string {
    return fmt.Sprintf("pricing failed (code %s): %s", e.Code, e.Msg)
}

// NotFoundError reports a missing booking or payment.
type NotFoundError struct {
    Resource string
    Ref      string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found: " + e.Ref }

// ConflictError reports an operation that contradicts current state, such as
// initiating payment on a booking whose payment already completed.
type ConflictError struct {
    Reason string
}

func (e *ConflictError) Error() string { return e.Reason }
