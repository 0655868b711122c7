package auth

import (
	"context"

	"github.com/mmynk/godutch/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, OTP, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new, unverified user account for the phone number.
	// Returns the created user or an error if registration fails.
	Register(ctx context.Context, phonenumber, name, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	// Unverified accounts are rejected with ErrNotVerified.
	Authenticate(ctx context.Context, phonenumber, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error

	// HashCredential returns the stored form of a new credential.
	HashCredential(credential string) (string, error)
}
