package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const resetPurpose = "password_reset"

// ResetTokenManager issues and validates signed password-reset tokens. The
// tokens are stateless; the TTL is the only revocation mechanism.
type ResetTokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewResetTokenManager builds a new manager.
func NewResetTokenManager(secret string, ttl time.Duration) *ResetTokenManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ResetTokenManager{secret: []byte(secret), ttl: ttl}
}

// ResetClaims describes the reset token payload.
type ResetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Generate builds and signs a reset token for the user.
func (tm *ResetTokenManager) Generate(userID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.ttl)
	claims := &ResetClaims{
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Parse validates a reset token and returns the user id it was issued for.
func (tm *ResetTokenManager) Parse(tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &ResetClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(*ResetClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid token claims")
	}
	if claims.Purpose != resetPurpose {
		return "", errors.New("token is not a reset token")
	}
	return claims.Subject, nil
}
