package service

import (
	"context"
	"time"

	"github.com/campuslink/campuslink/internal/models"
)

// ==============================================
// PORTS
// ==============================================
// The recovery core talks to the rest of the system only through these
// interfaces. The pgx repositories satisfy the store interfaces; tests
// substitute in-memory fakes.

// OTPStore is the persistent record of issued one-time passcodes.
type OTPStore interface {
	Create(ctx context.Context, userID int, kind models.OTPKind) (*models.PasswordResetOTP, error)
	ActiveUnverified(ctx context.Context, userID int) (*models.PasswordResetOTP, error)
	FindUnverified(ctx context.Context, userID int, code string) (*models.PasswordResetOTP, error)
	CountSince(ctx context.Context, userID int, since time.Time) (int, error)
	OldestSince(ctx context.Context, userID int, since time.Time) (time.Time, error)
	HasVerified(ctx context.Context, userID int) (bool, error)
	MarkVerified(ctx context.Context, otp *models.PasswordResetOTP) error
	PurgeAll(ctx context.Context, userID int) (int64, error)
}

// IdentityStore locates users and mutates their credentials. Password
// hashing happens in the service layer before the hash reaches the store.
type IdentityStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
	SetMustChangePassword(ctx context.Context, userID int, must bool) error
}

// Notifier delivers an outbound message. A failed send never rolls back
// state that was already persisted; callers log and move on.
type Notifier interface {
	Send(to, subject, body string) error
}
