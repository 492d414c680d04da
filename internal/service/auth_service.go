package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/campuslink/campuslink/internal/api/dto"
	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/models"
	"github.com/campuslink/campuslink/internal/repository"
)

// ==============================================
// AUTH SERVICE
// ==============================================

// UserStore is the superset of IdentityStore that registration needs.
type UserStore interface {
	IdentityStore
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userID int) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type AuthService struct {
	users         UserStore
	notifier      Notifier
	jwtSecret     string
	allowedDomain string // e.g. "@heraldcollege.edu.np"; empty allows any
}

func NewAuthService(users UserStore, notifier Notifier, jwtSecret, allowedDomain string) *AuthService {
	return &AuthService{
		users:         users,
		notifier:      notifier,
		jwtSecret:     jwtSecret,
		allowedDomain: strings.ToLower(allowedDomain),
	}
}

// ==============================================
// REGISTER
// ==============================================

// Register creates an account with an auto-generated password and emails
// it to the user. The account carries must_change_password until the
// user resets it.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 1. Campus domain restriction
	if s.allowedDomain != "" && !strings.HasSuffix(email, s.allowedDomain) {
		return nil, models.ErrInvalidEmailDomain
	}

	// 2. Uniqueness checks
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, models.ErrEmailAlreadyExists
	}

	exists, err = s.users.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, models.ErrUsernameTaken
	}

	// 3. Generate and hash the initial password
	autoPassword := auth.GenerateAutoPassword(12)
	passwordHash, err := auth.HashPassword(autoPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 4. Create user
	user := &models.User{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Username:           req.Username,
		Email:              email,
		PasswordHash:       passwordHash,
		Role:               models.RoleStudent,
		Status:             models.UserStatusActive,
		Course:             nullString(req.Course),
		Bio:                nullString(req.Bio),
		LinkedinLink:       nullString(req.LinkedinLink),
		GithubLink:         nullString(req.GithubLink),
		MustChangePassword: true,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// 5. Email the credentials. The account already exists; a failed
	// send is logged, the user can go through password recovery.
	subject, body := welcomeEmail(user.FirstName, autoPassword)
	if err := s.notifier.Send(user.Email, subject, body); err != nil {
		log.Printf("failed to send welcome email to %s: %v", user.Email, err)
	}

	return &dto.RegisterResponse{
		User:    user.ToPublic(),
		Message: "Account created successfully. Check your email for your login credentials.",
	}, nil
}

// ==============================================
// LOGIN
// ==============================================

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 1. Resolve user
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// 2. Blocked or deleted accounts cannot log in
	if !user.IsActive() {
		return nil, models.ErrAccountInactive
	}

	// 3. Verify password
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}

	// 4. Issue access token
	token, expiresIn, err := auth.GenerateJWT(user.ID, user.Role, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &dto.LoginResponse{
		User:               user.ToPublic(),
		AccessToken:        token,
		ExpiresIn:          expiresIn,
		TokenType:          "Bearer",
		MustChangePassword: user.MustChangePassword,
	}, nil
}

// ==============================================
// PROFILE
// ==============================================

func (s *AuthService) GetProfile(ctx context.Context, userID int) (*models.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user.ToPublic(), nil
}

// ==============================================
// HELPER FUNCTIONS
// ==============================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
