package policy

import (
	"errors"
	"fmt"
)

// Code identifies an expected, recoverable guard violation. Every guarded
// transition that fails outside its guard returns one of these; internal
// invariant violations panic instead.
type Code string

const (
	CodeNotFound                Code = "not-found"
	CodeNotGuardian             Code = "not-guardian"
	CodeNotSharedCustody        Code = "not-shared-custody"
	CodeProposalExpired         Code = "proposal-expired"
	CodeAlreadyResponded        Code = "already-responded"
	CodeCannotRespondOwn        Code = "cannot-respond-own"
	CodeCooldownActive          Code = "cooldown-active"
	CodeDisputeExpired          Code = "dispute-expired"
	CodeCannotDisputeOwn        Code = "cannot-dispute-own"
	CodeRateLimit               Code = "rate-limit"
	CodeInvalidSetting          Code = "invalid-setting"
	CodeInvalidValue            Code = "invalid-value"
	CodeNotInCoolingPeriod      Code = "not-in-cooling-period"
	CodeCoolingPeriodExpired    Code = "cooling-period-expired"
	CodeCoolingAlreadyCancelled Code = "cooling-already-cancelled"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

func errf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the guard code from err, or "" for non-policy errors.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
