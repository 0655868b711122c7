package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mmynk/godutch/internal/models"
	"github.com/mmynk/godutch/internal/storage"
)

const userColumns = `id, phonenumber, name, password_hash, verified, verify_code, verify_expire, verify_attempts, role, created_at, updated_at`

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Phonenumber,
		user.Name,
		user.PasswordHash,
		user.Verified,
		user.VerifyCode.Code,
		user.VerifyCode.ExpireTime,
		user.VerifyCode.Attempts,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", wrapConflict(err))
	}

	return nil
}

// GetUserByPhone retrieves a user by their phone number.
func (s *SQLiteStore) GetUserByPhone(ctx context.Context, phonenumber string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phonenumber = ?`, phonenumber)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", phonenumber, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by phone: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// UpdateUser saves the mutable fields of a user.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, password_hash = ?, verified = ?, verify_code = ?, verify_expire = ?, verify_attempts = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name, user.PasswordHash, user.Verified, user.VerifyCode.Code, user.VerifyCode.ExpireTime,
		user.VerifyCode.Attempts, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check user update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", user.ID, storage.ErrNotFound)
	}
	return nil
}

// GetUsersByPhones retrieves the registered users among phonenumbers.
// Returns a map of phone number to User. Unregistered numbers are omitted.
func (s *SQLiteStore) GetUsersByPhones(ctx context.Context, phonenumbers []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User)
	if len(phonenumbers) == 0 {
		return users, nil
	}

	// Build the IN clause with placeholders
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(phonenumbers)), ", ")
	query := `SELECT ` + userColumns + ` FROM users WHERE phonenumber IN (` + placeholders + `)`

	args := make([]any, len(phonenumbers))
	for i, p := range phonenumbers {
		args[i] = p
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by phone: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.Phonenumber] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Phonenumber,
		&user.Name,
		&user.PasswordHash,
		&user.Verified,
		&user.VerifyCode.Code,
		&user.VerifyCode.ExpireTime,
		&user.VerifyCode.Attempts,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
