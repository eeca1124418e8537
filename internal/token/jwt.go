package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/vverify-server/internal/model"
)

var _ model.TokenManager = (*JWT)(nil)

// Claims represents JWT claims carrying the caller identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID  `json:"id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewJWT creates a new JWT token manager with the provided secret key and token lifetime.
func NewJWT(secretKey string, ttl time.Duration) *JWT {
	return &JWT{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}
}

// GenerateToken signs a session token for identity. Every call yields a distinct token.
func (j *JWT) GenerateToken(identity model.Identity) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		UserID: identity.UserID,
		Email:  identity.Email,
		Role:   identity.Role,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// ParseToken validates signature and expiry and returns the embedded identity.
func (j *JWT) ParseToken(tokenString string) (model.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return model.Identity{}, fmt.Errorf("%w: %w", model.ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return model.Identity{}, fmt.Errorf("%w: %w", model.ErrTokenMalformed, err)
		default:
			return model.Identity{}, fmt.Errorf("%w: %w", model.ErrTokenInvalid, err)
		}
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return model.Identity{}, model.ErrTokenInvalid
	}

	return model.Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
