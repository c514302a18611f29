package contract

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable numeric code external callers match on.
// Fabric clients only see the error message, so Error() always leads with "[code] TAG".
type ErrorCode uint32

const (
	CodeNotAuthorized     ErrorCode = 100
	CodeAlreadyRegistered ErrorCode = 101
	CodeNotFound          ErrorCode = 102
	CodeAlreadyExists     ErrorCode = 103
	CodeLengthMismatch    ErrorCode = 104
	CodeInvalidRating     ErrorCode = 105
	CodeAlreadyRevoked    ErrorCode = 106
	CodeInvalidPermission ErrorCode = 107
	CodeInvalidExpiration ErrorCode = 108
	CodeCredentialRevoked ErrorCode = 109
	CodeSelfEndorsement   ErrorCode = 110
	CodeInvalidArgument   ErrorCode = 111
	CodeStaleSequence     ErrorCode = 112
	CodeLedgerFailure     ErrorCode = 199
)

var codeTags = map[ErrorCode]string{
	CodeNotAuthorized:     "NOT-AUTHORIZED",
	CodeAlreadyRegistered: "ALREADY-REGISTERED",
	CodeNotFound:          "NOT-FOUND",
	CodeAlreadyExists:     "ALREADY-EXISTS",
	CodeLengthMismatch:    "LENGTH-MISMATCH",
	CodeInvalidRating:     "INVALID-RATING",
	CodeAlreadyRevoked:    "ALREADY-REVOKED",
	CodeInvalidPermission: "INVALID-PERMISSION",
	CodeInvalidExpiration: "INVALID-EXPIRATION",
	CodeCredentialRevoked: "CREDENTIAL-REVOKED",
	CodeSelfEndorsement:   "SELF-ENDORSEMENT",
	CodeInvalidArgument:   "INVALID-ARGUMENT",
	CodeStaleSequence:     "STALE-SEQUENCE",
	CodeLedgerFailure:     "LEDGER-FAILURE",
}

// Tag returns the symbolic name of the code, e.g. "NOT-AUTHORIZED".
func (c ErrorCode) Tag() string {
	if tag, ok := codeTags[c]; ok {
		return tag
	}
	return "UNKNOWN"
}

// LedgerError is the structured error returned by every contract operation.
// Message is for humans; branch on Code.
type LedgerError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *LedgerError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %s: %v", e.Code, e.Code.Tag(), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Code, e.Code.Tag(), e.Message)
}

func (e *LedgerError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newLedgerError(code ErrorCode, format string, args ...interface{}) error {
	return &LedgerError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ledgerFailure wraps a world-state or serialization failure.
func ledgerFailure(cause error, format string, args ...interface{}) error {
	return &LedgerError{Code: CodeLedgerFailure, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf returns the code carried by err, or 0 when err is not (and does not wrap) a *LedgerError.
func CodeOf(err error) ErrorCode {
	var le *LedgerError
	if !errors.As(err, &le) {
		return 0
	}
	return le.Code
}

// IsCode reports whether err is (or wraps) a *LedgerError with the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
