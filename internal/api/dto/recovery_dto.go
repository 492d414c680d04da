package dto

// ==============================================
// PASSWORD RECOVERY REQUEST DTOs
// ==============================================

// RequestOTPRequest - Start (or restart) a password recovery cycle
type RequestOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Kind  string `json:"kind" binding:"omitempty,oneof=send resend"` // defaults to "send"
}

// VerifyOTPRequest - Submit the emailed code
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,numeric"`
}

// ResetPasswordRequest - Set a new password after OTP verification
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// ==============================================
// PASSWORD RECOVERY RESPONSE DTOs
// ==============================================

// RequestOTPResponse
type RequestOTPResponse struct {
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in"` // seconds until the code expires
}

// VerifyOTPResponse
type VerifyOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ResetPasswordResponse
type ResetPasswordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
