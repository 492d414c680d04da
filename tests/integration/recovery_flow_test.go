package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/campuslink/campuslink/internal/api/dto"
	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/clock"
	"github.com/campuslink/campuslink/internal/handlers"
	"github.com/campuslink/campuslink/internal/models"
	"github.com/campuslink/campuslink/internal/repository"
	"github.com/campuslink/campuslink/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full-stack recovery cycle over HTTP: real handler, real service, real
// rate limiter, with in-memory stores and a captured outbox standing in
// for postgres and SMTP.

// ==============================================
// IN-MEMORY STORES
// ==============================================

type memOTPStore struct {
	mu      sync.Mutex
	clk     clock.Clock
	records []*models.PasswordResetOTP
}

func (s *memOTPStore) Create(_ context.Context, userID int, kind models.OTPKind) (*models.PasswordResetOTP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp := &models.PasswordResetOTP{
		ID:        uuid.New(),
		UserID:    userID,
		Code:      auth.GenerateOTP(models.DefaultOTPCodeLength),
		Kind:      kind,
		CreatedAt: s.clk.Now(),
	}
	s.records = append(s.records, otp)
	return otp, nil
}

func (s *memOTPStore) ActiveUnverified(_ context.Context, userID int) (*models.PasswordResetOTP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.PasswordResetOTP
	for _, r := range s.records {
		if r.UserID != userID || r.Verified {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, repository.ErrOTPNotFound
	}
	return latest, nil
}

func (s *memOTPStore) FindUnverified(_ context.Context, userID int, code string) (*models.PasswordResetOTP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.PasswordResetOTP
	for _, r := range s.records {
		if r.UserID != userID || r.Verified || r.Code != code {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, repository.ErrOTPNotFound
	}
	return latest, nil
}

func (s *memOTPStore) CountSince(_ context.Context, userID int, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, r := range s.records {
		if r.UserID == userID && !r.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *memOTPStore) OldestSince(_ context.Context, userID int, since time.Time) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldest time.Time
	for _, r := range s.records {
		if r.UserID != userID || r.CreatedAt.Before(since) {
			continue
		}
		if oldest.IsZero() || r.CreatedAt.Before(oldest) {
			oldest = r.CreatedAt
		}
	}
	if oldest.IsZero() {
		return time.Time{}, repository.ErrOTPNotFound
	}
	return oldest, nil
}

func (s *memOTPStore) HasVerified(_ context.Context, userID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.UserID == userID && r.Verified {
			return true, nil
		}
	}
	return false, nil
}

func (s *memOTPStore) MarkVerified(_ context.Context, otp *models.PasswordResetOTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == otp.ID {
			if r.Verified {
				return models.ErrOTPAlreadyVerified
			}
			r.Verified = true
			otp.Verified = true
			return nil
		}
	}
	return models.ErrOTPAlreadyVerified
}

func (s *memOTPStore) PurgeAll(_ context.Context, userID int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	var purged int64
	for _, r := range s.records {
		if r.UserID == userID {
			purged++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return purged, nil
}

func (s *memOTPStore) count(userID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if r.UserID == userID {
			n++
		}
	}
	return n
}

type memIdentityStore struct {
	mu    sync.Mutex
	users map[string]*models.User // keyed by email
}

func (s *memIdentityStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memIdentityStore) UpdatePassword(_ context.Context, userID int, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == userID {
			user.PasswordHash = passwordHash
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (s *memIdentityStore) SetMustChangePassword(_ context.Context, userID int, must bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == userID {
			user.MustChangePassword = must
			return nil
		}
	}
	return repository.ErrUserNotFound
}

type outbox struct {
	mu     sync.Mutex
	bodies []string
}

func (o *outbox) Send(_, _, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bodies = append(o.bodies, body)
	return nil
}

// lastCode pulls the numeric code out of the most recent email body.
func (o *outbox) lastCode(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.bodies, "no email was sent")
	code := regexp.MustCompile(`\b\d{6}\b`).FindString(o.bodies[len(o.bodies)-1])
	require.NotEmpty(t, code, "no code found in email body")
	return code
}

// ==============================================
// TEST SETUP
// ==============================================

type flowEnv struct {
	router *gin.Engine
	clk    *clock.Mock
	otps   *memOTPStore
	users  *memIdentityStore
	mail   *outbox
}

const testEmail = "ada@campus.edu"

func setupFlow(t *testing.T) *flowEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewMock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	hash, err := auth.HashPassword("OldPass123")
	require.NoError(t, err)

	users := &memIdentityStore{users: map[string]*models.User{
		testEmail: {
			ID:                 1,
			FirstName:          "Ada",
			Email:              testEmail,
			PasswordHash:       hash,
			Role:               models.RoleStudent,
			Status:             models.UserStatusActive,
			MustChangePassword: true,
		},
	}}
	otps := &memOTPStore{clk: clk}
	mail := &outbox{}

	limiter := service.NewRateLimiter(otps, models.DefaultOTPRateCeiling, models.OTPRateWindow)
	svc := service.NewRecoveryService(users, otps, limiter, mail, clk, models.DefaultOTPTTL)

	router := gin.New()
	handlers.NewRecoveryHandler(svc).RegisterRoutes(router)

	return &flowEnv{router: router, clk: clk, otps: otps, users: users, mail: mail}
}

func (e *flowEnv) post(t *testing.T, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// ==============================================
// FLOW TESTS
// ==============================================

func TestRecoveryFlow_EndToEnd(t *testing.T) {
	env := setupFlow(t)

	// Request a code
	w := env.post(t, "/api/v1/recovery/request", dto.RequestOTPRequest{Email: testEmail})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var issued dto.RequestOTPResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issued))
	assert.Equal(t, 120, issued.ExpiresIn)

	code := env.mail.lastCode(t)
	env.clk.Advance(30 * time.Second)

	// Verify it
	w = env.post(t, "/api/v1/recovery/verify", dto.VerifyOTPRequest{Email: testEmail, Code: code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Reset the password
	w = env.post(t, "/api/v1/recovery/reset", dto.ResetPasswordRequest{Email: testEmail, NewPassword: "Str0ngPass!"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	user, err := env.users.GetUserByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("Str0ngPass!", user.PasswordHash))
	assert.False(t, auth.CheckPassword("OldPass123", user.PasswordHash))
	assert.False(t, user.MustChangePassword)

	// The cycle closes completely: nothing left to replay
	assert.Equal(t, 0, env.otps.count(user.ID))
}

func TestRecoveryFlow_RepeatRequestRejected(t *testing.T) {
	env := setupFlow(t)

	w := env.post(t, "/api/v1/recovery/request", dto.RequestOTPRequest{Email: testEmail})
	require.Equal(t, http.StatusOK, w.Code)

	env.clk.Advance(45 * time.Second)

	w = env.post(t, "/api/v1/recovery/request", dto.RequestOTPRequest{Email: testEmail, Kind: "resend"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, models.ErrCodeOTPAlreadyActive, errResp.Error)
	assert.Equal(t, 75, errResp.RetryAfter)
}

func TestRecoveryFlow_ResetRequiresVerification(t *testing.T) {
	env := setupFlow(t)

	w := env.post(t, "/api/v1/recovery/request", dto.RequestOTPRequest{Email: testEmail})
	require.Equal(t, http.StatusOK, w.Code)

	// Skip verification and go straight for the reset
	w = env.post(t, "/api/v1/recovery/reset", dto.ResetPasswordRequest{Email: testEmail, NewPassword: "Str0ngPass!"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrCodeOTPNotVerified)

	user, err := env.users.GetUserByEmail(context.Background(), testEmail)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("OldPass123", user.PasswordHash))
}

func TestRecoveryFlow_WrongCodeRejected(t *testing.T) {
	env := setupFlow(t)

	w := env.post(t, "/api/v1/recovery/request", dto.RequestOTPRequest{Email: testEmail})
	require.Equal(t, http.StatusOK, w.Code)

	wrong := "000000"
	if env.mail.lastCode(t) == wrong {
		wrong = "000001"
	}

	w = env.post(t, "/api/v1/recovery/verify", dto.VerifyOTPRequest{Email: testEmail, Code: wrong})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrCodeOTPInvalid)
}

func TestRecoveryFlow_CodeIsSingleUse(t *testing.T) {
	env := setupFlow(t)

	w := env.post(t, "/api/v1/recovery/request", dto.RequestOTPRequest{Email: testEmail})
	require.Equal(t, http.StatusOK, w.Code)
	code := env.mail.lastCode(t)

	w = env.post(t, "/api/v1/recovery/verify", dto.VerifyOTPRequest{Email: testEmail, Code: code})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.post(t, "/api/v1/recovery/verify", dto.VerifyOTPRequest{Email: testEmail, Code: code})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrCodeOTPInvalid)
}
