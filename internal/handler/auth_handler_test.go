package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-blog-api/internal/config"
	"go-blog-api/internal/handler"
	"go-blog-api/internal/middleware"
	"go-blog-api/internal/model"
	"go-blog-api/internal/router"
	"go-blog-api/internal/service"
	"go-blog-api/internal/token"
)

type memoryUserStore struct {
	users  map[int64]model.User
	nextID int64
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[int64]model.User{}, nextID: 1}
}

func (s *memoryUserStore) FindByEmail(ctx context.Context, email string) (model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memoryUserStore) FindByID(ctx context.Context, id int64) (model.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memoryUserStore) FindByRefreshToken(ctx context.Context, tok string) (model.User, error) {
	for _, u := range s.users {
		if u.RefreshToken != nil && *u.RefreshToken == tok {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memoryUserStore) FindByPasswordResetToken(ctx context.Context, tok string) (model.User, error) {
	for _, u := range s.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == tok {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memoryUserStore) Save(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == 0 {
		u.ID = s.nextID
		s.nextID++
	}
	s.users[u.ID] = u
	return u, nil
}

type captureMailer struct {
	tokens []string
}

func (m *captureMailer) SendPasswordResetEmail(ctx context.Context, to string, tok string) error {
	m.tokens = append(m.tokens, tok)
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
}

func newTestServer(t *testing.T) (http.Handler, *captureMailer) {
	t.Helper()

	codec, err := token.NewCodec("handler-access-secret", "handler-refresh-secret", 15*time.Minute, 168*time.Hour)
	require.NoError(t, err)

	mailer := &captureMailer{}
	authService := service.NewAuthService(newMemoryUserStore(), codec, mailer, 15*time.Minute)

	cfg := &config.Config{
		RequestTimeout:   30 * time.Second,
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
	}

	h := router.Handlers{
		Auth: handler.NewAuthHandler(authService),
	}
	// Posts/comments are not under test here; a nil handler is fine as
	// long as those routes are never hit.

	return router.New(cfg, middleware.NewAuthMiddleware(authService), h), mailer
}

func doJSON(t *testing.T, h http.Handler, method string, path string, body any, bearer string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func authData(t *testing.T, env envelope) model.AuthResponse {
	t.Helper()

	var resp model.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp
}

func TestAuthEndpoints_RegisterLoginRefresh(t *testing.T) {
	h, _ := newTestServer(t)

	rec, env := doJSON(t, h, "POST", "/api/v1/auth/register",
		model.AuthRequest{Email: "a@x.com", Password: "pw1"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, env.Success)
	reg := authData(t, env)
	assert.Equal(t, model.RoleUser, reg.Role)
	assert.NotEmpty(t, reg.AccessToken)
	assert.NotEmpty(t, reg.RefreshToken)

	rec, env = doJSON(t, h, "POST", "/api/v1/auth/register",
		model.AuthRequest{Email: "a@x.com", Password: "pw1"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ALREADY_EXISTS", env.Error.Code)

	rec, env = doJSON(t, h, "POST", "/api/v1/auth/login",
		model.AuthRequest{Email: "a@x.com", Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	rec, env = doJSON(t, h, "POST", "/api/v1/auth/login",
		model.AuthRequest{Email: "a@x.com", Password: "pw1"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	login := authData(t, env)

	rec, env = doJSON(t, h, "POST", "/api/v1/auth/refresh",
		model.RefreshRequest{RefreshToken: login.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	refreshed := authData(t, env)
	assert.Equal(t, login.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestAuthEndpoints_MeRequiresToken(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := doJSON(t, h, "GET", "/api/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, env := doJSON(t, h, "POST", "/api/v1/auth/register",
		model.AuthRequest{Email: "a@x.com", Password: "pw1"}, "")
	reg := authData(t, env)

	rec, env = doJSON(t, h, "GET", "/api/v1/auth/me", nil, reg.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var me model.AuthUser
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "a@x.com", me.Email)
}

func TestAuthEndpoints_PasswordResetFlow(t *testing.T) {
	h, mailer := newTestServer(t)

	_, env := doJSON(t, h, "POST", "/api/v1/auth/register",
		model.AuthRequest{Email: "a@x.com", Password: "pw1"}, "")
	require.True(t, env.Success)

	// Unknown email answers with the same neutral message.
	rec, env := doJSON(t, h, "POST", "/api/v1/auth/forgot-password",
		model.ForgotPasswordRequest{Email: "nobody@x.com"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Empty(t, mailer.tokens)

	rec, _ = doJSON(t, h, "POST", "/api/v1/auth/forgot-password",
		model.ForgotPasswordRequest{Email: "a@x.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, mailer.tokens, 1)

	rec, env = doJSON(t, h, "POST", "/api/v1/auth/reset-password",
		model.ResetPasswordRequest{Token: mailer.tokens[0], NewPassword: "pw2", ConfirmPassword: "pw2"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, h, "POST", "/api/v1/auth/login",
		model.AuthRequest{Email: "a@x.com", Password: "pw2"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Consumed token cannot be replayed.
	rec, env = doJSON(t, h, "POST", "/api/v1/auth/reset-password",
		model.ResetPasswordRequest{Token: mailer.tokens[0], NewPassword: "pw3", ConfirmPassword: "pw3"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_TOKEN", env.Error.Code)
}

func TestAuthEndpoints_ChangePassword(t *testing.T) {
	h, _ := newTestServer(t)

	_, env := doJSON(t, h, "POST", "/api/v1/auth/register",
		model.AuthRequest{Email: "a@x.com", Password: "pw1"}, "")
	reg := authData(t, env)

	rec, env := doJSON(t, h, "POST", "/api/v1/auth/change-password",
		model.PasswordChangeRequest{CurrentPassword: "pw1", NewPassword: "pw2", ConfirmNewPassword: "pw3"},
		reg.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	rec, _ = doJSON(t, h, "POST", "/api/v1/auth/change-password",
		model.PasswordChangeRequest{CurrentPassword: "pw1", NewPassword: "pw2", ConfirmNewPassword: "pw2"},
		reg.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	// The refresh token issued before the change is revoked.
	rec, env = doJSON(t, h, "POST", "/api/v1/auth/refresh",
		model.RefreshRequest{RefreshToken: reg.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_TOKEN", env.Error.Code)
}

func TestAuthEndpoints_Logout(t *testing.T) {
	h, _ := newTestServer(t)

	_, env := doJSON(t, h, "POST", "/api/v1/auth/register",
		model.AuthRequest{Email: "a@x.com", Password: "pw1"}, "")
	reg := authData(t, env)

	rec, _ := doJSON(t, h, "POST", "/api/v1/auth/logout",
		model.RefreshRequest{RefreshToken: reg.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, h, "POST", "/api/v1/auth/refresh",
		model.RefreshRequest{RefreshToken: reg.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logging out twice is harmless.
	rec, _ = doJSON(t, h, "POST", "/api/v1/auth/logout",
		model.RefreshRequest{RefreshToken: reg.RefreshToken}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
