package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campuslink/campuslink/internal/models"
	"github.com/campuslink/campuslink/internal/repository"
)

// ==============================================
// RATE LIMITER
// ==============================================

// RateLimiter enforces the per-user issuance ceiling over a rolling
// window. It only checks; recording happens when the caller creates the
// OTP, so a rejected request is never counted.
type RateLimiter struct {
	store   OTPStore
	ceiling int
	window  time.Duration
}

func NewRateLimiter(store OTPStore, ceiling int, window time.Duration) *RateLimiter {
	if ceiling <= 0 {
		ceiling = models.DefaultOTPRateCeiling
	}
	if window <= 0 {
		window = models.OTPRateWindow
	}
	return &RateLimiter{store: store, ceiling: ceiling, window: window}
}

// CheckAndAdmit admits the request if the user is under the ceiling for
// the trailing window. At or over the ceiling it fails with a
// TooManyRequestsError carrying the seconds until the oldest counted
// request ages out of the window.
func (l *RateLimiter) CheckAndAdmit(ctx context.Context, userID int, now time.Time) error {
	since := now.Add(-l.window)

	count, err := l.store.CountSince(ctx, userID, since)
	if err != nil {
		return fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count < l.ceiling {
		return nil
	}

	retryAfter := int(l.window.Seconds())
	oldest, err := l.store.OldestSince(ctx, userID, since)
	if err == nil {
		retryAfter = int(oldest.Add(l.window).Sub(now).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
	} else if !errors.Is(err, repository.ErrOTPNotFound) {
		return fmt.Errorf("failed to compute retry window: %w", err)
	}

	return &models.TooManyRequestsError{RetryAfterSeconds: retryAfter}
}
