package models

import (
	"database/sql"
	"time"
)

// ==============================================
// USER MODEL (Database mapping)
// ==============================================

// User represents a platform account (student, community or admin)
type User struct {
	ID                 int            `db:"id"`
	FirstName          string         `db:"first_name"`
	LastName           string         `db:"last_name"`
	Username           string         `db:"username"`
	Email              string         `db:"email"` // login identifier, unique
	PasswordHash       string         `db:"password_hash"`
	Role               string         `db:"role"`
	Status             string         `db:"status"`
	Course             sql.NullString `db:"course"`
	Bio                sql.NullString `db:"bio"`
	LinkedinLink       sql.NullString `db:"linkedin_link"`
	GithubLink         sql.NullString `db:"github_link"`
	MustChangePassword bool           `db:"must_change_password"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

// PublicUser is the safe version to return to clients (no sensitive fields)
type PublicUser struct {
	ID        int       `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Course    *string   `json:"course,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to PublicUser (removes sensitive fields)
func (u *User) ToPublic() *PublicUser {
	pu := &PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}

	// Handle nullable fields
	if u.Course.Valid {
		pu.Course = &u.Course.String
	}
	if u.Bio.Valid {
		pu.Bio = &u.Bio.String
	}

	return pu
}

// IsActive checks if the account can log in
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// ==============================================
// ROLE / STATUS CONSTANTS
// ==============================================
const (
	RoleStudent   = "student"
	RoleCommunity = "community"
	RoleAdmin     = "admin"
)

const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
	UserStatusDeleted = "deleted"
)
