package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campuslink/campuslink/internal/api/dto"
	"github.com/campuslink/campuslink/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==============================================
// MOCK SERVICE
// ==============================================

type MockRecoveryService struct {
	mock.Mock
}

func (m *MockRecoveryService) RequestOTP(ctx context.Context, req dto.RequestOTPRequest) (*dto.RequestOTPResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RequestOTPResponse), args.Error(1)
}

func (m *MockRecoveryService) VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (*dto.VerifyOTPResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.VerifyOTPResponse), args.Error(1)
}

func (m *MockRecoveryService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) (*dto.ResetPasswordResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ResetPasswordResponse), args.Error(1)
}

// ==============================================
// TEST SETUP
// ==============================================

func setupRecoveryTest() (*gin.Engine, *MockRecoveryService) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	mockService := new(MockRecoveryService)
	handler := NewRecoveryHandler(mockService)
	handler.RegisterRoutes(router)

	return router, mockService
}

func postJSON(router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ==============================================
// REQUEST OTP TESTS
// ==============================================

func TestRequestOTPHandler_Success(t *testing.T) {
	router, mockService := setupRecoveryTest()

	reqBody := dto.RequestOTPRequest{Email: "a@x.edu", Kind: "send"}
	mockService.On("RequestOTP", mock.Anything, reqBody).Return(&dto.RequestOTPResponse{
		Message:   "OTP sent successfully",
		ExpiresIn: 120,
	}, nil)

	w := postJSON(router, "/api/v1/recovery/request", reqBody)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.RequestOTPResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 120, resp.ExpiresIn)
	mockService.AssertExpectations(t)
}

func TestRequestOTPHandler_InvalidKind(t *testing.T) {
	router, mockService := setupRecoveryTest()

	w := postJSON(router, "/api/v1/recovery/request", map[string]string{
		"email": "a@x.edu",
		"kind":  "broadcast",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "RequestOTP")
}

func TestRequestOTPHandler_ThrottledCarriesRetryHint(t *testing.T) {
	router, mockService := setupRecoveryTest()

	reqBody := dto.RequestOTPRequest{Email: "a@x.edu"}
	mockService.On("RequestOTP", mock.Anything, reqBody).
		Return(nil, &models.TooManyRequestsError{RetryAfterSeconds: 1800})

	w := postJSON(router, "/api/v1/recovery/request", reqBody)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrCodeTooManyRequests, resp.Error)
	assert.Equal(t, 1800, resp.RetryAfter)
}

func TestRequestOTPHandler_ActiveOTPCarriesRemaining(t *testing.T) {
	router, mockService := setupRecoveryTest()

	reqBody := dto.RequestOTPRequest{Email: "a@x.edu"}
	mockService.On("RequestOTP", mock.Anything, reqBody).
		Return(nil, &models.OTPAlreadyActiveError{RemainingSeconds: 75})

	w := postJSON(router, "/api/v1/recovery/request", reqBody)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrCodeOTPAlreadyActive, resp.Error)
	assert.Equal(t, 75, resp.RetryAfter)
}

// ==============================================
// VERIFY OTP TESTS
// ==============================================

func TestVerifyOTPHandler_InvalidCode(t *testing.T) {
	router, mockService := setupRecoveryTest()

	reqBody := dto.VerifyOTPRequest{Email: "a@x.edu", Code: "123456"}
	mockService.On("VerifyOTP", mock.Anything, reqBody).Return(nil, models.ErrOTPInvalid)

	w := postJSON(router, "/api/v1/recovery/verify", reqBody)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrCodeOTPInvalid, resp.Error)
}

func TestVerifyOTPHandler_ExpiredCode(t *testing.T) {
	router, mockService := setupRecoveryTest()

	reqBody := dto.VerifyOTPRequest{Email: "a@x.edu", Code: "123456"}
	mockService.On("VerifyOTP", mock.Anything, reqBody).Return(nil, models.ErrOTPExpired)

	w := postJSON(router, "/api/v1/recovery/verify", reqBody)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrCodeOTPExpired, resp.Error)
}

// ==============================================
// RESET PASSWORD TESTS
// ==============================================

func TestResetPasswordHandler_Success(t *testing.T) {
	router, mockService := setupRecoveryTest()

	reqBody := dto.ResetPasswordRequest{Email: "a@x.edu", NewPassword: "Str0ngPass!"}
	mockService.On("ResetPassword", mock.Anything, reqBody).Return(&dto.ResetPasswordResponse{
		Success: true,
		Message: "Password reset successfully. You can now login with your new password.",
	}, nil)

	w := postJSON(router, "/api/v1/recovery/reset", reqBody)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestResetPasswordHandler_ShortPasswordRejectedByBinding(t *testing.T) {
	router, mockService := setupRecoveryTest()

	w := postJSON(router, "/api/v1/recovery/reset", map[string]string{
		"email":        "a@x.edu",
		"new_password": "short",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ResetPassword")
}

func TestResetPasswordHandler_NotVerified(t *testing.T) {
	router, mockService := setupRecoveryTest()

	reqBody := dto.ResetPasswordRequest{Email: "a@x.edu", NewPassword: "Str0ngPass!"}
	mockService.On("ResetPassword", mock.Anything, reqBody).Return(nil, models.ErrOTPNotVerified)

	w := postJSON(router, "/api/v1/recovery/reset", reqBody)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrCodeOTPNotVerified, resp.Error)
}

func TestRecoveryHandler_InternalErrorIsOpaque(t *testing.T) {
	router, mockService := setupRecoveryTest()

	reqBody := dto.RequestOTPRequest{Email: "a@x.edu"}
	mockService.On("RequestOTP", mock.Anything, reqBody).
		Return(nil, assert.AnError)

	w := postJSON(router, "/api/v1/recovery/request", reqBody)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrCodeInternalError, resp.Error)
	assert.NotContains(t, resp.Message, assert.AnError.Error())
}
