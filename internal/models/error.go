package models

import (
	"errors"
	"fmt"
)

// ==============================================
// PREDEFINED ERRORS
// ==============================================
// Every recovery failure is client-correctable and surfaced
// synchronously; nothing here is retried internally.

// User/Auth Errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidEmailDomain = errors.New("email is not a campus address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidToken       = errors.New("invalid token")
)

// OTP Errors
var (
	ErrOTPInvalid         = errors.New("invalid OTP")
	ErrOTPExpired         = errors.New("OTP expired")
	ErrOTPNotVerified     = errors.New("OTP not verified")
	ErrOTPAlreadyVerified = errors.New("OTP already verified")
	ErrOTPAlreadyActive   = errors.New("an OTP is already active")
	ErrTooManyRequests    = errors.New("too many OTP requests")
	ErrInvalidOTPKind     = errors.New("invalid OTP request type")
)

// ==============================================
// PARAMETERIZED ERRORS
// ==============================================
// These carry the numeric wait hints a client needs to build
// backoff UI. Both still match their sentinel via errors.Is.

// OTPAlreadyActiveError reports that an unexpired unverified OTP
// exists, with the seconds left until it expires.
type OTPAlreadyActiveError struct {
	RemainingSeconds int
}

func (e *OTPAlreadyActiveError) Error() string {
	return fmt.Sprintf("OTP already sent, please wait %d seconds", e.RemainingSeconds)
}

func (e *OTPAlreadyActiveError) Is(target error) bool {
	return target == ErrOTPAlreadyActive
}

// TooManyRequestsError reports that the issuance ceiling for the
// trailing rate window has been reached.
type TooManyRequestsError struct {
	RetryAfterSeconds int
}

func (e *TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many OTP requests, retry after %d seconds", e.RetryAfterSeconds)
}

func (e *TooManyRequestsError) Is(target error) bool {
	return target == ErrTooManyRequests
}

// ==============================================
// ERROR CODES (for API responses)
// ==============================================
const (
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
	ErrCodeInvalidCreds    = "INVALID_CREDENTIALS"
	ErrCodeAccountInactive = "ACCOUNT_INACTIVE"
	ErrCodeWeakPassword    = "WEAK_PASSWORD"

	ErrCodeOTPInvalid       = "OTP_INVALID"
	ErrCodeOTPExpired       = "OTP_EXPIRED"
	ErrCodeOTPNotVerified   = "OTP_NOT_VERIFIED"
	ErrCodeOTPAlreadyActive = "OTP_ALREADY_ACTIVE"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"

	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
)

// ==============================================
// HELPER FUNCTIONS
// ==============================================

// IsClientError checks if error belongs to the recovery/auth taxonomy
// (maps to a 4xx response rather than a 500)
func IsClientError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrAccountInactive) ||
		errors.Is(err, ErrEmailAlreadyExists) ||
		errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrInvalidEmailDomain) ||
		errors.Is(err, ErrWeakPassword) ||
		errors.Is(err, ErrOTPInvalid) ||
		errors.Is(err, ErrOTPExpired) ||
		errors.Is(err, ErrOTPNotVerified) ||
		errors.Is(err, ErrOTPAlreadyActive) ||
		errors.Is(err, ErrTooManyRequests) ||
		errors.Is(err, ErrInvalidOTPKind)
}
