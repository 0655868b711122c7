// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/godutch/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("already exists")
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser persists a new user. Returns ErrConflict if the phone number
	// is already registered.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByPhone retrieves a user by phone number.
	// Returns ErrNotFound if no user has that phone number.
	GetUserByPhone(ctx context.Context, phonenumber string) (*models.User, error)

	// GetUserByID retrieves a user by ID. Returns ErrNotFound if missing.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// UpdateUser saves name, password hash, verification state and code.
	UpdateUser(ctx context.Context, user *models.User) error

	// GetUsersByPhones returns the registered users among phonenumbers,
	// keyed by phone number.
	GetUsersByPhones(ctx context.Context, phonenumbers []string) (map[string]*models.User, error)
}

// GroupStore persists groups, their members and items.
type GroupStore interface {
	// CreateGroup persists a new group with its members.
	// The group.ID, Key and timestamps are populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with members and items.
	// Returns ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// GetGroupByKey retrieves a group by its join key.
	GetGroupByKey(ctx context.Context, key string) (*models.Group, error)

	// ListGroupsForUser returns every group linked to the user, fully
	// populated, oldest first.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// LinkUserToGroup makes the group visible to the user. Linking twice is a no-op.
	LinkUserToGroup(ctx context.Context, userID, groupID string) error

	// AddItems appends items to a group. IDs and timestamps are populated
	// when empty.
	AddItems(ctx context.Context, groupID string, items []models.Item) error

	// AdjustBalance atomically adds adj.Amount to the member's balance and
	// records the adjustment. Returns ErrNotFound if the phone number is not
	// a member of the group.
	AdjustBalance(ctx context.Context, adj *models.BalanceAdjustment) error

	// SetGroupDisabled turns item recording for the group off or on.
	// Returns ErrNotFound if the group does not exist.
	SetGroupDisabled(ctx context.Context, groupID string, disabled bool) error

	// ListAdjustments returns the group's balance adjustments, newest first.
	ListAdjustments(ctx context.Context, groupID string) ([]*models.BalanceAdjustment, error)
}

// Store is the complete storage backend used by the services.
// This abstraction allows swapping storage backends without changing the
// service layer.
type Store interface {
	UserStore
	GroupStore

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
