package models

import (
	"time"

	"github.com/google/uuid"
)

// ==============================================
// PASSWORD RESET OTP MODEL
// ==============================================

// OTPKind distinguishes a first send from a resend. It only affects
// the notification copy, never the validation logic.
type OTPKind string

const (
	OTPKindSend   OTPKind = "send"
	OTPKindResend OTPKind = "resend"
)

// IsValid reports whether the kind is one of the known values.
func (k OTPKind) IsValid() bool {
	return k == OTPKindSend || k == OTPKindResend
}

// PasswordResetOTP is a one-time passcode issued for password recovery.
// Expiry is computed lazily from CreatedAt; there is no stored expiry
// column and no background sweeper.
type PasswordResetOTP struct {
	ID        uuid.UUID `db:"id"`
	UserID    int       `db:"user_id"`
	Code      string    `db:"code"` // short numeric string, fixed length
	Kind      OTPKind   `db:"kind"`
	Verified  bool      `db:"verified"`
	CreatedAt time.Time `db:"created_at"`
}

// IsExpired reports whether the code is past its TTL at the given instant.
func (o *PasswordResetOTP) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(o.CreatedAt) > ttl
}

// RemainingSeconds returns the whole seconds until expiry, floored at 0.
func (o *PasswordResetOTP) RemainingSeconds(now time.Time, ttl time.Duration) int {
	remaining := int(ttl.Seconds()) - int(now.Sub(o.CreatedAt).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ==============================================
// OTP DEFAULTS
// ==============================================
// TTL and ceiling drifted across product revisions; these are the
// current values and every one of them is overridable in config.
const (
	DefaultOTPCodeLength  = 6
	DefaultOTPTTL         = 120 * time.Second
	DefaultOTPRateCeiling = 8
	OTPRateWindow         = time.Hour
)
