package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account, identified by its phone number.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Phonenumber is the unique login identity. It is also the identity
	// matched against group members.
	Phonenumber string

	// Name is the display name of the user.
	Name string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// Verified is set once the user has confirmed the SMS verification code.
	Verified bool

	// VerifyCode is the pending verification or password reset code.
	VerifyCode VerifyCode

	// Role is "user" for every self-registered account.
	Role string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// VerifyCode is a one-time code delivered by SMS.
type VerifyCode struct {
	Code       string
	ExpireTime int64

	// Attempts counts wrong submissions against this code.
	Attempts int
}

// Expired reports whether the code is no longer usable at now.
func (c VerifyCode) Expired(now time.Time) bool {
	return c.ExpireTime == 0 || now.Unix() > c.ExpireTime
}

// NewUser creates an unverified user with a fresh ID and timestamps.
func NewUser(phonenumber, name, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Phonenumber:  phonenumber,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         "user",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
