package token

import (
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-blog-api/internal/model"
)

func newTestCodec(t *testing.T, accessTTL time.Duration, refreshTTL time.Duration) *Codec {
	t.Helper()

	codec, err := NewCodec("access-secret", "refresh-secret", accessTTL, refreshTTL)
	require.NoError(t, err)
	return codec
}

func TestDeriveSigningKey(t *testing.T) {
	t.Run("base64 secret of 32 bytes is used as-is", func(t *testing.T) {
		raw := make([]byte, 32)
		_, err := rand.Read(raw)
		require.NoError(t, err)

		key := deriveSigningKey(base64.StdEncoding.EncodeToString(raw))
		assert.Equal(t, raw, key)
	})

	t.Run("short secret is grown to at least 32 bytes", func(t *testing.T) {
		key := deriveSigningKey("tiny")
		assert.GreaterOrEqual(t, len(key), 32)
		assert.Equal(t, "tinytinytinytinytinytinytinytiny", string(key))
	})

	t.Run("short base64 secret is still grown", func(t *testing.T) {
		// Valid base64 but decodes to fewer than 32 bytes.
		key := deriveSigningKey("c2VjcmV0")
		assert.GreaterOrEqual(t, len(key), 32)
	})

	t.Run("different secrets derive different keys", func(t *testing.T) {
		assert.NotEqual(t, deriveSigningKey("one"), deriveSigningKey("two"))
	})
}

func TestNewCodec_RequiresSecrets(t *testing.T) {
	_, err := NewCodec("", "refresh", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewCodec("access", "", time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestCodec_AccessTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t, 15*time.Minute, 168*time.Hour)

	tokenString, err := codec.IssueAccessToken(42, model.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := codec.VerifyAccessToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestCodec_RefreshTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t, 15*time.Minute, 168*time.Hour)

	tokenString, err := codec.IssueRefreshToken(7)
	require.NoError(t, err)

	claims, err := codec.VerifyRefreshToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Empty(t, claims.Role)
}

func TestCodec_KeysAreIndependent(t *testing.T) {
	codec := newTestCodec(t, 15*time.Minute, 168*time.Hour)

	accessToken, err := codec.IssueAccessToken(1, model.RoleUser)
	require.NoError(t, err)
	refreshToken, err := codec.IssueRefreshToken(1)
	require.NoError(t, err)

	_, err = codec.VerifyRefreshToken(accessToken)
	assert.ErrorIs(t, err, model.ErrInvalidToken)

	_, err = codec.VerifyAccessToken(refreshToken)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestCodec_RejectsForeignSignature(t *testing.T) {
	codec := newTestCodec(t, 15*time.Minute, 168*time.Hour)
	other, err := NewCodec("other-access", "other-refresh", 15*time.Minute, 168*time.Hour)
	require.NoError(t, err)

	tokenString, err := other.IssueAccessToken(1, model.RoleUser)
	require.NoError(t, err)

	_, err = codec.VerifyAccessToken(tokenString)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestCodec_ExpiredToken(t *testing.T) {
	codec := newTestCodec(t, -time.Minute, -time.Minute)

	accessToken, err := codec.IssueAccessToken(1, model.RoleUser)
	require.NoError(t, err)
	_, err = codec.VerifyAccessToken(accessToken)
	assert.ErrorIs(t, err, model.ErrTokenExpired)

	refreshToken, err := codec.IssueRefreshToken(1)
	require.NoError(t, err)
	_, err = codec.VerifyRefreshToken(refreshToken)
	assert.ErrorIs(t, err, model.ErrTokenExpired)
}

func TestCodec_MalformedToken(t *testing.T) {
	codec := newTestCodec(t, 15*time.Minute, 168*time.Hour)

	for _, tokenString := range []string{"", "garbage", "a.b.c"} {
		_, err := codec.VerifyAccessToken(tokenString)
		assert.ErrorIs(t, err, model.ErrInvalidToken, "token %q", tokenString)
	}
}
