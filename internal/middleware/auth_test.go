package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-blog-api/internal/model"
)

type stubValidator struct {
	claims *model.AccessClaims
	err    error
}

func (v *stubValidator) ValidateAccessToken(tokenString string) (*model.AccessClaims, error) {
	return v.claims, v.err
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	claims := &model.AccessClaims{UserID: 1, Role: model.RoleUser}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := ClaimsFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, claims, got)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("accepts a valid bearer token", func(t *testing.T) {
		mw := NewAuthMiddleware(&stubValidator{claims: claims})
		req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer sometoken")
		rec := httptest.NewRecorder()

		mw.RequireAuth(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		mw := NewAuthMiddleware(&stubValidator{claims: claims})
		req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
		rec := httptest.NewRecorder()

		mw.RequireAuth(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects an invalid token", func(t *testing.T) {
		mw := NewAuthMiddleware(&stubValidator{err: model.ErrInvalidToken})
		req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rec := httptest.NewRecorder()

		mw.RequireAuth(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthMiddleware_RequireRoles(t *testing.T) {
	adminClaims := &model.AccessClaims{UserID: 1, Role: model.RoleAdmin}
	userClaims := &model.AccessClaims{UserID: 2, Role: model.RoleUser}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	run := func(claims *model.AccessClaims) *httptest.ResponseRecorder {
		mw := NewAuthMiddleware(&stubValidator{claims: claims})
		chain := mw.RequireAuth(mw.RequireRoles(model.RoleAdmin)(next))
		req := httptest.NewRequest("GET", "/api/v1/admin", nil)
		req.Header.Set("Authorization", "Bearer sometoken")
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, run(adminClaims).Code)
	assert.Equal(t, http.StatusForbidden, run(userClaims).Code)
}
