package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ParseError means the uploaded statement could not be read as rows at all.
// Distinct from a readable statement with zero credit rows (ValidationError).
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return e.Msg }

func NewParseError(msg string) error { return &ParseError{Msg: msg} }

func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// ValidationError is a caller-correctable input problem: missing required
// field, amount mismatch without confirmation, empty import, etc.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(msg string) error { return &ValidationError{Msg: msg} }

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConflictError means a precondition was violated because the underlying
// record changed since the caller last read it (two operators racing on the
// same mutation or candidate). Never retried silently; the caller must
// re-fetch and decide again.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func NewConflictError(msg string) error { return &ConflictError{Msg: msg} }

func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// LedgerPostingError wraps a rejection from the ledger gateway. The whole
// surrounding transaction is rolled back, so local state is untouched.
type LedgerPostingError struct {
	Msg string
	Err error
}

func (e *LedgerPostingError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *LedgerPostingError) Unwrap() error { return e.Err }

func NewLedgerPostingError(msg string, err error) error {
	return &LedgerPostingError{Msg: msg, Err: err}
}

func IsLedgerPostingError(err error) bool {
	var le *LedgerPostingError
	return errors.As(err, &le)
}
