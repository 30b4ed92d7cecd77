package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-blog-api/internal/model"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// Codec produces and verifies the signed access and refresh tokens. The
// two token families are signed with independent keys derived from two
// independently configured secrets, so leaking one secret does not
// compromise the other family.
type Codec struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) (*Codec, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets are required")
	}

	return &Codec{
		accessKey:  deriveSigningKey(accessSecret),
		refreshKey: deriveSigningKey(refreshSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// deriveSigningKey turns an operator-supplied secret into HS256 key
// material of at least 256 bits. A secret that decodes as base64 to 32
// bytes or more is used as-is; anything else is self-concatenated until
// its UTF-8 byte length reaches 32.
func deriveSigningKey(secret string) []byte {
	if raw, err := base64.StdEncoding.DecodeString(secret); err == nil && len(raw) >= 32 {
		return raw
	}

	grown := secret
	for len(grown) < 32 {
		grown += secret
	}

	return []byte(grown)
}

func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *Codec) IssueAccessToken(userID int64, role string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"typ":  typeAccess,
		"iat":  now.Unix(),
		"exp":  now.Add(c.accessTTL).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessKey)
}

func (c *Codec) IssueRefreshToken(userID int64) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"typ": typeRefresh,
		"iat": now.Unix(),
		"exp": now.Add(c.refreshTTL).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshKey)
}

func (c *Codec) VerifyAccessToken(tokenString string) (*model.AccessClaims, error) {
	return c.verify(tokenString, c.accessKey, typeAccess)
}

func (c *Codec) VerifyRefreshToken(tokenString string) (*model.AccessClaims, error) {
	return c.verify(tokenString, c.refreshKey, typeRefresh)
}

func (c *Codec) verify(tokenString string, key []byte, expectedType string) (*model.AccessClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, model.ErrInvalidToken
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrInvalidToken
	}

	typ, _ := claimsMap["typ"].(string)
	if typ != expectedType {
		return nil, model.ErrInvalidToken
	}

	sub, _ := claimsMap["sub"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return nil, model.ErrInvalidToken
	}

	claims := &model.AccessClaims{UserID: userID}
	claims.Role, _ = claimsMap["role"].(string)

	return claims, nil
}
