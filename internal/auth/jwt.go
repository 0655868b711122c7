package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/godutch/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

const (
	purposeSession = "session"
	purposeReset   = "password-reset"
)

// JWTManager handles JWT token generation and validation.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	resetDuration time.Duration
}

// Claims represents the custom JWT claims for a user session.
type Claims struct {
	UserID      string `json:"user_id"`
	Phonenumber string `json:"phonenumber"`
	Purpose     string `json:"purpose"`
	jwt.RegisteredClaims
}

// NewJWTManager creates a new JWT manager with the given secret and token durations.
// tokenDuration bounds session tokens, resetDuration bounds password reset tokens.
func NewJWTManager(secretKey string, tokenDuration, resetDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		resetDuration: resetDuration,
	}
}

// Generate creates a new session token for the given user.
func (m *JWTManager) Generate(user *models.User) (string, error) {
	return m.sign(user, purposeSession, m.tokenDuration)
}

// GenerateReset creates a short-lived token that only allows changing the
// user's password.
func (m *JWTManager) GenerateReset(user *models.User) (string, error) {
	return m.sign(user, purposeReset, m.resetDuration)
}

func (m *JWTManager) sign(user *models.User, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:      user.ID,
		Phonenumber: user.Phonenumber,
		Purpose:     purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate parses and validates a session token, returning the claims if valid.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	return m.validate(tokenString, purposeSession)
}

// ValidateReset parses and validates a password reset token.
func (m *JWTManager) ValidateReset(tokenString string) (*Claims, error) {
	return m.validate(tokenString, purposeReset)
}

func (m *JWTManager) validate(tokenString, purpose string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Verify the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: wrong token purpose %q", ErrInvalidToken, claims.Purpose)
	}

	return claims, nil
}
