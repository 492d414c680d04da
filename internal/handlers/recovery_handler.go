package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/campuslink/campuslink/internal/api/dto"
	"github.com/campuslink/campuslink/internal/models"
	"github.com/gin-gonic/gin"
)

// ==============================================
// SERVICE INTERFACE (for testing)
// ==============================================

type RecoveryService interface {
	RequestOTP(ctx context.Context, req dto.RequestOTPRequest) (*dto.RequestOTPResponse, error)
	VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (*dto.VerifyOTPResponse, error)
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) (*dto.ResetPasswordResponse, error)
}

// ==============================================
// HANDLER (HTTP Layer ONLY)
// ==============================================

type RecoveryHandler struct {
	service RecoveryService
}

func NewRecoveryHandler(service RecoveryService) *RecoveryHandler {
	return &RecoveryHandler{service: service}
}

// ==============================================
// ENDPOINTS
// ==============================================

// RequestOTP handles POST /api/v1/recovery/request
func (h *RecoveryHandler) RequestOTP(c *gin.Context) {
	var req dto.RequestOTPRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidationFailed, err.Error())
		return
	}

	resp, err := h.service.RequestOTP(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// VerifyOTP handles POST /api/v1/recovery/verify
func (h *RecoveryHandler) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidationFailed, err.Error())
		return
	}

	resp, err := h.service.VerifyOTP(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ResetPassword handles POST /api/v1/recovery/reset
func (h *RecoveryHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeValidationFailed, err.Error())
		return
	}

	resp, err := h.service.ResetPassword(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ==============================================
// ROUTE REGISTRATION
// ==============================================

func (h *RecoveryHandler) RegisterRoutes(router *gin.Engine) {
	recovery := router.Group("/api/v1/recovery")
	{
		recovery.POST("/request", h.RequestOTP)
		recovery.POST("/verify", h.VerifyOTP)
		recovery.POST("/reset", h.ResetPassword)
	}
}

// ==============================================
// HELPER FUNCTIONS
// ==============================================

// respondError sends an error JSON response
func respondError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// respondServiceError maps service errors to HTTP responses. Every
// recovery failure is client-correctable (400); only persistence-layer
// failures surface as 500.
func respondServiceError(c *gin.Context, err error) {
	// Parameterized failures carry a structured wait hint
	var activeErr *models.OTPAlreadyActiveError
	if errors.As(err, &activeErr) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:      models.ErrCodeOTPAlreadyActive,
			Message:    activeErr.Error(),
			RetryAfter: activeErr.RemainingSeconds,
		})
		return
	}

	var throttledErr *models.TooManyRequestsError
	if errors.As(err, &throttledErr) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:      models.ErrCodeTooManyRequests,
			Message:    throttledErr.Error(),
			RetryAfter: throttledErr.RetryAfterSeconds,
		})
		return
	}

	code := mapErrorCode(err)
	if code == models.ErrCodeInternalError {
		respondError(c, http.StatusInternalServerError, code, "Internal server error")
		return
	}

	respondError(c, http.StatusBadRequest, code, err.Error())
}

func mapErrorCode(err error) string {
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		return models.ErrCodeUserNotFound
	case errors.Is(err, models.ErrOTPInvalid):
		return models.ErrCodeOTPInvalid
	case errors.Is(err, models.ErrOTPExpired):
		return models.ErrCodeOTPExpired
	case errors.Is(err, models.ErrOTPNotVerified):
		return models.ErrCodeOTPNotVerified
	case errors.Is(err, models.ErrWeakPassword):
		return models.ErrCodeWeakPassword
	case errors.Is(err, models.ErrInvalidCredentials):
		return models.ErrCodeInvalidCreds
	case errors.Is(err, models.ErrAccountInactive):
		return models.ErrCodeAccountInactive
	case models.IsClientError(err):
		return models.ErrCodeValidationFailed
	default:
		return models.ErrCodeInternalError
	}
}
