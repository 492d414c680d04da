package dto

import "github.com/campuslink/campuslink/internal/models"

// ==============================================
// AUTH REQUEST DTOs
// ==============================================

// RegisterRequest - No password field: an initial password is generated
// and emailed to the user, who must change it on first login.
type RegisterRequest struct {
	FirstName    string `json:"first_name" binding:"required,min=2,max=100"`
	LastName     string `json:"last_name" binding:"required,min=2,max=100"`
	Username     string `json:"username" binding:"required,min=3,max=30,alphanum"`
	Email        string `json:"email" binding:"required,email"`
	Course       string `json:"course,omitempty"`
	Bio          string `json:"bio,omitempty"`
	LinkedinLink string `json:"linkedin_link,omitempty" binding:"omitempty,url"`
	GithubLink   string `json:"github_link,omitempty" binding:"omitempty,url"`
}

// LoginRequest - Email + password
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ==============================================
// AUTH RESPONSE DTOs
// ==============================================

// RegisterResponse
type RegisterResponse struct {
	User    *models.PublicUser `json:"user"`
	Message string             `json:"message"`
}

// LoginResponse
type LoginResponse struct {
	User               *models.PublicUser `json:"user"`
	AccessToken        string             `json:"access_token"`
	ExpiresIn          int                `json:"expires_in"` // seconds
	TokenType          string             `json:"token_type"` // "Bearer"
	MustChangePassword bool               `json:"must_change_password"`
}
