package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/clock"
	"github.com/campuslink/campuslink/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ==============================================
// ERRORS
// ==============================================

var (
	ErrOTPNotFound = errors.New("OTP not found")
)

// ==============================================
// OTP REPOSITORY
// ==============================================

// OTPRepository persists password-reset OTPs. Expiry is never stored;
// it is derived from created_at at read time by the service layer.
type OTPRepository struct {
	db         *pgxpool.Pool
	clock      clock.Clock
	codeLength int
}

func NewOTPRepository(db *pgxpool.Pool, clk clock.Clock, codeLength int) *OTPRepository {
	if codeLength <= 0 {
		codeLength = models.DefaultOTPCodeLength
	}
	return &OTPRepository{db: db, clock: clk, codeLength: codeLength}
}

// ==============================================
// CREATE
// ==============================================

// Create generates a fresh random code and persists an unverified record.
func (r *OTPRepository) Create(ctx context.Context, userID int, kind models.OTPKind) (*models.PasswordResetOTP, error) {
	otp := &models.PasswordResetOTP{
		ID:        uuid.New(),
		UserID:    userID,
		Code:      auth.GenerateOTP(r.codeLength),
		Kind:      kind,
		Verified:  false,
		CreatedAt: r.clock.Now(),
	}

	query := `
		INSERT INTO password_reset_otps (id, user_id, code, kind, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		otp.ID,
		otp.UserID,
		otp.Code,
		string(otp.Kind),
		otp.Verified,
		otp.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTP: %w", err)
	}

	return otp, nil
}

// ==============================================
// READS
// ==============================================

// ActiveUnverified returns the most recently created unverified OTP for
// the user. The caller decides whether it is still within TTL.
func (r *OTPRepository) ActiveUnverified(ctx context.Context, userID int) (*models.PasswordResetOTP, error) {
	query := `
		SELECT id, user_id, code, kind, verified, created_at
		FROM password_reset_otps
		WHERE user_id = $1 AND verified = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanOne(ctx, query, userID)
}

// FindUnverified returns the most recent unverified OTP matching the
// submitted code. Most-recent is the tie-break when duplicate codes exist.
func (r *OTPRepository) FindUnverified(ctx context.Context, userID int, code string) (*models.PasswordResetOTP, error) {
	query := `
		SELECT id, user_id, code, kind, verified, created_at
		FROM password_reset_otps
		WHERE user_id = $1 AND code = $2 AND verified = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanOne(ctx, query, userID, code)
}

// CountSince counts OTPs created at or after the given instant,
// feeding the rolling-window rate check.
func (r *OTPRepository) CountSince(ctx context.Context, userID int, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM password_reset_otps
		WHERE user_id = $1 AND created_at >= $2
	`

	var count int
	if err := r.db.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recent OTPs: %w", err)
	}

	return count, nil
}

// OldestSince returns the creation time of the oldest OTP created at or
// after the given instant. Used to compute when a full rate window frees up.
func (r *OTPRepository) OldestSince(ctx context.Context, userID int, since time.Time) (time.Time, error) {
	query := `
		SELECT MIN(created_at)
		FROM password_reset_otps
		WHERE user_id = $1 AND created_at >= $2
	`

	var oldest *time.Time
	if err := r.db.QueryRow(ctx, query, userID, since).Scan(&oldest); err != nil {
		return time.Time{}, fmt.Errorf("failed to get oldest OTP: %w", err)
	}
	if oldest == nil {
		return time.Time{}, ErrOTPNotFound
	}

	return *oldest, nil
}

// HasVerified reports whether any verified OTP exists for the user.
func (r *OTPRepository) HasVerified(ctx context.Context, userID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM password_reset_otps
			WHERE user_id = $1 AND verified = TRUE
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check verified OTP: %w", err)
	}

	return exists, nil
}

// ==============================================
// MUTATIONS
// ==============================================

// MarkVerified flips the one-way verified flag. A record can only move
// false -> true; re-verifying reports ErrOTPAlreadyVerified.
func (r *OTPRepository) MarkVerified(ctx context.Context, otp *models.PasswordResetOTP) error {
	query := `
		UPDATE password_reset_otps
		SET verified = TRUE
		WHERE id = $1 AND verified = FALSE
	`

	tag, err := r.db.Exec(ctx, query, otp.ID)
	if err != nil {
		return fmt.Errorf("failed to mark OTP verified: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrOTPAlreadyVerified
	}

	otp.Verified = true
	return nil
}

// PurgeAll deletes every OTP for the user, verified or not.
func (r *OTPRepository) PurgeAll(ctx context.Context, userID int) (int64, error) {
	query := `DELETE FROM password_reset_otps WHERE user_id = $1`

	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge OTPs: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ==============================================
// HELPERS
// ==============================================

func (r *OTPRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*models.PasswordResetOTP, error) {
	var otp models.PasswordResetOTP
	var kind string

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&otp.ID,
		&otp.UserID,
		&otp.Code,
		&kind,
		&otp.Verified,
		&otp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOTPNotFound
		}
		return nil, fmt.Errorf("failed to get OTP: %w", err)
	}

	otp.Kind = models.OTPKind(kind)
	return &otp, nil
}
