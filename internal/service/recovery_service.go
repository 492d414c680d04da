package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/campuslink/campuslink/internal/api/dto"
	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/clock"
	"github.com/campuslink/campuslink/internal/models"
	"github.com/campuslink/campuslink/internal/repository"
)

// ==============================================
// RECOVERY SERVICE
// ==============================================
// Drives the password recovery cycle for a user:
// request OTP -> verify OTP -> reset password.
// Each step is serialized per user so a double-clicked "resend" can
// never issue two active codes or race verification against the purge.

type RecoveryService struct {
	users    IdentityStore
	otps     OTPStore
	limiter  *RateLimiter
	notifier Notifier
	clock    clock.Clock
	ttl      time.Duration
	locks    *userLocks
}

func NewRecoveryService(
	users IdentityStore,
	otps OTPStore,
	limiter *RateLimiter,
	notifier Notifier,
	clk clock.Clock,
	ttl time.Duration,
) *RecoveryService {
	if ttl <= 0 {
		ttl = models.DefaultOTPTTL
	}
	return &RecoveryService{
		users:    users,
		otps:     otps,
		limiter:  limiter,
		notifier: notifier,
		clock:    clk,
		ttl:      ttl,
		locks:    newUserLocks(),
	}
}

// ==============================================
// REQUEST OTP
// ==============================================

// RequestOTP issues a fresh recovery code, or rejects if the user is
// throttled or an unexpired code is still active. Repeating the call
// before expiry is rejected, never duplicated.
func (s *RecoveryService) RequestOTP(ctx context.Context, req dto.RequestOTPRequest) (*dto.RequestOTPResponse, error) {
	kind := models.OTPKind(req.Kind)
	if kind == "" {
		kind = models.OTPKindSend
	}
	if !kind.IsValid() {
		return nil, models.ErrInvalidOTPKind
	}

	// 1. Resolve user
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Rate check, active check and creation must be one atomic unit,
	// otherwise two concurrent requests both observe "no active OTP"
	lock := s.locks.get(user.ID)
	lock.Lock()
	defer lock.Unlock()

	now := s.clock.Now()

	// 2. Rate ceiling over the trailing window
	if err := s.limiter.CheckAndAdmit(ctx, user.ID, now); err != nil {
		return nil, err
	}

	// 3. Reject while an unexpired code is still active
	active, err := s.otps.ActiveUnverified(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrOTPNotFound) {
		return nil, fmt.Errorf("failed to check active OTP: %w", err)
	}
	if active != nil && !active.IsExpired(now, s.ttl) {
		return nil, &models.OTPAlreadyActiveError{
			RemainingSeconds: active.RemainingSeconds(now, s.ttl),
		}
	}

	// 4. Issue
	otp, err := s.otps.Create(ctx, user.ID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTP: %w", err)
	}

	// 5. Deliver. The code is already persisted; a failed send must not
	// roll it back, the user can ask for a resend instead.
	subject, body := passwordResetEmail(user.FirstName, otp.Code, kind, s.ttl)
	if err := s.notifier.Send(user.Email, subject, body); err != nil {
		log.Printf("failed to send OTP email to %s: %v", user.Email, err)
	}

	return &dto.RequestOTPResponse{
		Message:   "OTP sent successfully",
		ExpiresIn: int(s.ttl.Seconds()),
	}, nil
}

// ==============================================
// VERIFY OTP
// ==============================================

// VerifyOTP matches the submitted code and flips its one-way verified
// flag. A second call with the same code finds nothing (the match
// filters on unverified) and fails, which is what keeps codes single-use.
func (s *RecoveryService) VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (*dto.VerifyOTPResponse, error) {
	// 1. Resolve user
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	lock := s.locks.get(user.ID)
	lock.Lock()
	defer lock.Unlock()

	// 2. Find the most recent unverified match
	otp, err := s.otps.FindUnverified(ctx, user.ID, req.Code)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return nil, models.ErrOTPInvalid
		}
		return nil, fmt.Errorf("failed to look up OTP: %w", err)
	}

	// 3. An expired record is found but is not a success; report it
	// distinctly from a wrong code
	if otp.IsExpired(s.clock.Now(), s.ttl) {
		return nil, models.ErrOTPExpired
	}

	// 4. One-way flag flip
	if err := s.otps.MarkVerified(ctx, otp); err != nil {
		if errors.Is(err, models.ErrOTPAlreadyVerified) {
			return nil, models.ErrOTPInvalid
		}
		return nil, fmt.Errorf("failed to mark OTP verified: %w", err)
	}

	return &dto.VerifyOTPResponse{
		Success: true,
		Message: "OTP verified successfully",
	}, nil
}

// ==============================================
// RESET PASSWORD
// ==============================================

// ResetPassword sets a new credential once a verified OTP exists, then
// purges every OTP for the user, verified and stale unverified alike.
func (s *RecoveryService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) (*dto.ResetPasswordResponse, error) {
	// 1. Validate before any transition runs
	if len(req.NewPassword) < auth.MinPasswordLength {
		return nil, models.ErrWeakPassword
	}

	// 2. Resolve user
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	lock := s.locks.get(user.ID)
	lock.Lock()
	defer lock.Unlock()

	// 3. Require a completed verification step
	verified, err := s.otps.HasVerified(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check verified OTP: %w", err)
	}
	if !verified {
		return nil, models.ErrOTPNotVerified
	}

	// 4. Set the new credential
	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.users.SetMustChangePassword(ctx, user.ID, false); err != nil {
		return nil, fmt.Errorf("failed to clear must_change_password: %w", err)
	}

	// 5. Close the cycle: drop the verified record and any stale
	// unverified siblings
	if _, err := s.otps.PurgeAll(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to purge OTPs: %w", err)
	}

	return &dto.ResetPasswordResponse{
		Success: true,
		Message: "Password reset successfully. You can now login with your new password.",
	}, nil
}
