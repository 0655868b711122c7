package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/godutch/internal/models"
	"github.com/mmynk/godutch/internal/storage"
)

type memUsers struct {
	users map[string]*models.User
}

func (m *memUsers) CreateUser(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.Phonenumber]; ok {
		return storage.ErrConflict
	}
	m.users[user.Phonenumber] = user
	return nil
}

func (m *memUsers) GetUserByPhone(ctx context.Context, phonenumber string) (*models.User, error) {
	u, ok := m.users[phonenumber]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func TestPasswordAuthenticator(t *testing.T) {
	store := &memUsers{users: map[string]*models.User{}}
	a := NewPasswordAuthenticator(store, bcrypt.MinCost)
	ctx := context.Background()

	user, err := a.Register(ctx, "+1555", "Alice", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.PasswordHash == "password123" {
		t.Error("password stored in clear")
	}

	tests := []struct {
		name     string
		phone    string
		password string
		verified bool
		wantErr  error
	}{
		{"unverified", "+1555", "password123", false, ErrNotVerified},
		{"wrong password", "+1555", "nope-nope", true, ErrInvalidCredentials},
		{"unknown phone", "+1999", "password123", true, ErrInvalidCredentials},
		{"ok", "+1555", "password123", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user.Verified = tt.verified
			_, err := a.Authenticate(ctx, tt.phone, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := a.Register(ctx, "+1555", "Again", "password123"); !errors.Is(err, ErrPhoneExists) {
		t.Errorf("duplicate Register error = %v, want ErrPhoneExists", err)
	}
	if _, err := a.Register(ctx, "+1666", "Short", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("weak Register error = %v, want ErrWeakPassword", err)
	}
	long := strings.Repeat("p", 80)
	if _, err := a.Register(ctx, "+1777", "Long", long); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("long Register error = %v, want ErrPasswordTooLong", err)
	}
	if _, err := a.HashCredential(strings.Repeat("p", 72)); err != nil {
		t.Errorf("HashCredential(72 bytes) error = %v", err)
	}
}

func TestVerifyCode(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	code, err := NewVerifyCode(now, 5*time.Minute)
	if err != nil {
		t.Fatalf("NewVerifyCode failed: %v", err)
	}
	if len(code.Code) != 6 {
		t.Errorf("code %q should have 6 digits", code.Code)
	}
	if code.ExpireTime != now.Add(5*time.Minute).Unix() {
		t.Errorf("ExpireTime = %d", code.ExpireTime)
	}

	if err := CheckCode(code, code.Code, now.Add(time.Minute)); err != nil {
		t.Errorf("valid code rejected: %v", err)
	}
	if err := CheckCode(code, "xxxxxx", now); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("error = %v, want ErrInvalidCode", err)
	}
	if err := CheckCode(code, code.Code, now.Add(6*time.Minute)); !errors.Is(err, ErrCodeExpired) {
		t.Errorf("error = %v, want ErrCodeExpired", err)
	}
	if err := CheckCode(models.VerifyCode{}, "", now); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("empty stored code should never match, got %v", err)
	}
}

func TestRecordFailure(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	code, err := NewVerifyCode(now, 5*time.Minute)
	if err != nil {
		t.Fatalf("NewVerifyCode failed: %v", err)
	}
	valid := code.Code

	for i := 1; i < MaxCodeAttempts; i++ {
		if err := RecordFailure(&code); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("attempt %d: error = %v, want ErrInvalidCode", i, err)
		}
	}
	if err := CheckCode(code, valid, now); err != nil {
		t.Errorf("code should still work before the last attempt, got %v", err)
	}

	if err := RecordFailure(&code); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("last attempt: error = %v, want ErrTooManyAttempts", err)
	}
	if code.Code != "" {
		t.Errorf("code was not cleared: %+v", code)
	}
	if err := CheckCode(code, valid, now); !errors.Is(err, ErrTooManyAttempts) {
		t.Errorf("burned code: error = %v, want ErrTooManyAttempts", err)
	}
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, time.Minute)
	user := &models.User{ID: "u1", Phonenumber: "+1555"}

	session, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	claims, err := m.Validate(session)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != "u1" || claims.Phonenumber != "+1555" {
		t.Errorf("claims = %+v", claims)
	}

	reset, err := m.GenerateReset(user)
	if err != nil {
		t.Fatalf("GenerateReset failed: %v", err)
	}
	if _, err := m.Validate(reset); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reset token accepted as session: %v", err)
	}
	if _, err := m.ValidateReset(session); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("session token accepted as reset: %v", err)
	}
	if _, err := m.ValidateReset(reset); err != nil {
		t.Errorf("ValidateReset failed: %v", err)
	}

	other := NewJWTManager("other-secret", time.Hour, time.Minute)
	if _, err := other.Validate(session); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign token accepted: %v", err)
	}

	expired := NewJWTManager("test-secret", -time.Minute, time.Minute)
	old, _ := expired.Generate(user)
	if _, err := m.Validate(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token accepted: %v", err)
	}
}
