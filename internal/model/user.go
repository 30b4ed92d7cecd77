package model

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the identity record owned by the credential store. A refresh
// token and its expiry travel together: both set or both nil. Same for
// the password-reset pair.
type User struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	RefreshToken        *string    `json:"-"`
	RefreshTokenExpiry  *time.Time `json:"-"`
	PasswordResetToken  *string    `json:"-"`
	PasswordResetExpiry *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// AccessClaims is the decoded payload of a verified token.
type AccessClaims struct {
	UserID int64
	Role   string
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
