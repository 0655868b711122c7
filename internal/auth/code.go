package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/mmynk/godutch/internal/models"
)

var (
	ErrInvalidCode     = errors.New("verification code is invalid")
	ErrCodeExpired     = errors.New("verification code has expired")
	ErrTooManyAttempts = errors.New("too many wrong codes, request a new one")
)

const codeDigits = 6

// MaxCodeAttempts is the number of wrong codes after which a code is burned.
const MaxCodeAttempts = 5

var codeSpace = big.NewInt(1_000_000)

// NewVerifyCode returns a random six digit code valid for ttl from now.
func NewVerifyCode(now time.Time, ttl time.Duration) (models.VerifyCode, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return models.VerifyCode{}, fmt.Errorf("failed to generate code: %w", err)
	}
	return models.VerifyCode{
		Code:       fmt.Sprintf("%0*d", codeDigits, n.Int64()),
		ExpireTime: now.Add(ttl).Unix(),
	}, nil
}

// CheckCode compares a submitted code with the stored one.
func CheckCode(stored models.VerifyCode, submitted string, now time.Time) error {
	if stored.Attempts >= MaxCodeAttempts {
		return ErrTooManyAttempts
	}
	if stored.Code == "" || subtle.ConstantTimeCompare([]byte(stored.Code), []byte(submitted)) != 1 {
		return ErrInvalidCode
	}
	if stored.Expired(now) {
		return ErrCodeExpired
	}
	return nil
}

// RecordFailure counts a wrong submission against c. Once the attempts run
// out the code is cleared and ErrTooManyAttempts returned; before that it
// returns ErrInvalidCode.
func RecordFailure(c *models.VerifyCode) error {
	c.Attempts++
	if c.Attempts >= MaxCodeAttempts {
		c.Code = ""
		return ErrTooManyAttempts
	}
	return ErrInvalidCode
}
