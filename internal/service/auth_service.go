package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-blog-api/internal/model"
)

// UserStore is the credential store contract the auth service runs
// against. Save is an upsert: a zero ID means insert and the returned
// user carries the generated ID.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByRefreshToken(ctx context.Context, token string) (model.User, error)
	FindByPasswordResetToken(ctx context.Context, token string) (model.User, error)
	Save(ctx context.Context, user model.User) (model.User, error)
}

// TokenCodec issues and verifies the signed access/refresh tokens.
type TokenCodec interface {
	IssueAccessToken(userID int64, role string) (string, error)
	IssueRefreshToken(userID int64) (string, error)
	VerifyAccessToken(token string) (*model.AccessClaims, error)
	VerifyRefreshToken(token string) (*model.AccessClaims, error)
	RefreshTTL() time.Duration
}

// Mailer delivers the password-reset link. A failure here must not roll
// back auth state that was already persisted.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, to string, token string) error
}

type AuthService struct {
	users    UserStore
	codec    TokenCodec
	mailer   Mailer
	resetTTL time.Duration
}

const bcryptCost = 12

func NewAuthService(users UserStore, codec TokenCodec, mailer Mailer, resetTTL time.Duration) *AuthService {
	if resetTTL <= 0 {
		resetTTL = 15 * time.Minute
	}

	return &AuthService{users: users, codec: codec, mailer: mailer, resetTTL: resetTTL}
}

func (s *AuthService) Register(ctx context.Context, email string, password string, role string) (model.AuthResponse, error) {
	if email == "" || password == "" {
		return model.AuthResponse{}, fmt.Errorf("%w: email and password are required", model.ErrInvalidInput)
	}
	if role == "" {
		role = model.RoleUser
	}
	if !model.ValidRole(role) {
		return model.AuthResponse{}, fmt.Errorf("%w: unknown role %q", model.ErrInvalidInput, role)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return model.AuthResponse{}, model.ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := model.User{
		Name:         "User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// First save assigns the ID the tokens are keyed by.
	user, err = s.users.Save(ctx, user)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("create user: %w", err)
	}

	return s.openSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (model.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return model.AuthResponse{}, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.AuthResponse{}, model.ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// openSession issues the token pair and persists the refresh token on
// the user record so later refresh calls can be checked against it.
func (s *AuthService) openSession(ctx context.Context, user model.User) (model.AuthResponse, error) {
	accessToken, err := s.codec.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.codec.IssueRefreshToken(user.ID)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("issue refresh token: %w", err)
	}

	expiry := time.Now().UTC().Add(s.codec.RefreshTTL())
	user.RefreshToken = &refreshToken
	user.RefreshTokenExpiry = &expiry

	if _, err := s.users.Save(ctx, user); err != nil {
		return model.AuthResponse{}, fmt.Errorf("store refresh token: %w", err)
	}

	return model.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         user.Role,
	}, nil
}

// RefreshToken exchanges a valid refresh token for a new access token.
// The refresh token itself is not rotated: the caller keeps using the
// same one until login, logout or a password change replaces it.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (model.AuthResponse, error) {
	claims, err := s.codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return model.AuthResponse{}, model.ErrUserNotFound
	}

	// Revocation check: only the token currently on the record is live.
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return model.AuthResponse{}, model.ErrInvalidToken
	}

	accessToken, err := s.codec.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("issue access token: %w", err)
	}

	return model.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         user.Role,
	}, nil
}

// Logout clears the stored refresh token. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	user, err := s.users.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil
	}

	user.RefreshToken = nil
	user.RefreshTokenExpiry = nil

	if _, err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, email string, req model.PasswordChangeRequest) error {
	if req.NewPassword == "" {
		return fmt.Errorf("%w: new password cannot be empty", model.ErrInvalidInput)
	}
	if req.NewPassword != req.ConfirmNewPassword {
		return fmt.Errorf("%w: new password and confirmation do not match", model.ErrInvalidInput)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return model.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return model.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.NewPassword)) == nil {
		return fmt.Errorf("%w: new password must be different from the current one", model.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	// Force re-login everywhere the old password was used.
	user.RefreshToken = nil
	user.RefreshTokenExpiry = nil

	if _, err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

// InitiatePasswordReset stores a fresh reset token and mails the reset
// link. An unknown email succeeds silently so callers cannot probe which
// accounts exist.
func (s *AuthService) InitiatePasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil
	}

	resetToken := uuid.NewString()
	expiry := time.Now().UTC().Add(s.resetTTL)
	user.PasswordResetToken = &resetToken
	user.PasswordResetExpiry = &expiry

	if _, err := s.users.Save(ctx, user); err != nil {
		slog.Error("password reset token persist failed", "email", email, "error", err)
		return fmt.Errorf("store reset token: %w", err)
	}

	// The token is already persisted at this point: a delivery failure
	// is surfaced but leaves the reset usable.
	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, resetToken); err != nil {
		slog.Error("password reset email failed", "email", email, "error", err)
		return fmt.Errorf("%w: %v", model.ErrMailDelivery, err)
	}

	slog.Info("password reset initiated", "email", email)
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	if req.Token == "" {
		return fmt.Errorf("%w: reset token cannot be empty", model.ErrInvalidInput)
	}
	if req.NewPassword == "" {
		return fmt.Errorf("%w: new password cannot be empty", model.ErrInvalidInput)
	}
	if req.NewPassword != req.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", model.ErrInvalidInput)
	}

	user, err := s.users.FindByPasswordResetToken(ctx, req.Token)
	if err != nil {
		return model.ErrInvalidToken
	}

	// An expiry equal to now counts as expired.
	if user.PasswordResetExpiry == nil || !user.PasswordResetExpiry.After(time.Now().UTC()) {
		return model.ErrTokenExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.PasswordResetToken = nil
	user.PasswordResetExpiry = nil
	// Every open session dies with the old password.
	user.RefreshToken = nil
	user.RefreshTokenExpiry = nil

	if _, err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	slog.Info("password reset completed", "email", user.Email)
	return nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id int64) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.AuthUser{}, model.ErrUserNotFound
	}

	return model.AuthUser{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}, nil
}

// ValidateAccessToken is what the auth middleware runs on every request.
func (s *AuthService) ValidateAccessToken(tokenString string) (*model.AccessClaims, error) {
	return s.codec.VerifyAccessToken(tokenString)
}
