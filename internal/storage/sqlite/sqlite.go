// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlitedrv "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/godutch/internal/models"
	"github.com/mmynk/godutch/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps PRAGMAs and write ordering consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateGroup persists a new group with its members.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.Key == "" {
		group.Key = newJoinKey(time.Now())
	}
	now := time.Now().Unix()
	if group.CreatedAt == 0 {
		group.CreatedAt = now
	}
	group.UpdatedAt = group.CreatedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, image, join_key, wallet, disabled, creator, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		group.ID, group.Name, group.Image, group.Key, group.Wallet, group.Disabled, group.Creator,
		group.CreatedAt, group.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", wrapConflict(err))
	}

	for _, m := range group.Members {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, phonenumber, num, balance) VALUES (?, ?, ?, ?)",
			group.ID, m.Phonenumber, m.Num, m.Balance,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", wrapConflict(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetGroup retrieves a group by ID, including members and items.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.loadGroup(ctx, "id = ?", groupID)
}

// GetGroupByKey retrieves a group by its join key.
func (s *SQLiteStore) GetGroupByKey(ctx context.Context, key string) (*models.Group, error) {
	return s.loadGroup(ctx, "join_key = ?", key)
}

func (s *SQLiteStore) loadGroup(ctx context.Context, where string, arg any) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, image, join_key, wallet, disabled, creator, version, created_at, updated_at
		 FROM groups WHERE `+where,
		arg,
	).Scan(&group.ID, &group.Name, &group.Image, &group.Key, &group.Wallet, &group.Disabled,
		&group.Creator, &group.Version, &group.CreatedAt, &group.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %v: %w", arg, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if err := s.populate(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroupsForUser returns the user's groups, oldest first.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.image, g.join_key, g.wallet, g.disabled, g.creator, g.version, g.created_at, g.updated_at
		 FROM groups g
		 JOIN user_groups ug ON ug.group_id = g.id
		 WHERE ug.user_id = ?
		 ORDER BY g.created_at, g.rowid`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.Image, &group.Key, &group.Wallet, &group.Disabled,
			&group.Creator, &group.Version, &group.CreatedAt, &group.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	rows.Close()

	for _, group := range groups {
		if err := s.populate(ctx, group); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// populate loads members and items of a group in insertion order.
func (s *SQLiteStore) populate(ctx context.Context, group *models.Group) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT phonenumber, num, balance FROM group_members WHERE group_id = ? ORDER BY rowid",
		group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	group.Members = nil
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.Phonenumber, &m.Num, &m.Balance); err != nil {
			return fmt.Errorf("failed to scan member: %w", err)
		}
		group.Members = append(group.Members, m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate members: %w", err)
	}
	rows.Close()

	itemRows, err := s.db.QueryContext(ctx,
		"SELECT id, name, count, unit, creator, status, created_at FROM items WHERE group_id = ? ORDER BY rowid",
		group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get items: %w", err)
	}
	defer itemRows.Close()

	group.Items = nil
	for itemRows.Next() {
		var item models.Item
		var status string
		if err := itemRows.Scan(&item.ID, &item.Name, &item.Count, &item.Unit, &item.Creator, &status, &item.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan item: %w", err)
		}
		item.Status = models.SplitPolicy(status)
		group.Items = append(group.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate items: %w", err)
	}

	return nil
}

// LinkUserToGroup records that the user can see the group.
func (s *SQLiteStore) LinkUserToGroup(ctx context.Context, userID, groupID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_groups (user_id, group_id, created_at) VALUES (?, ?, ?)",
		userID, groupID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to link user to group: %w", err)
	}
	return nil
}

// AddItems appends items to a group and bumps its version.
func (s *SQLiteStore) AddItems(ctx context.Context, groupID string, items []models.Item) error {
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := touchGroup(ctx, tx, groupID, now); err != nil {
		return err
	}

	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if item.CreatedAt == 0 {
			item.CreatedAt = now
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO items (id, group_id, name, count, unit, creator, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			item.ID, groupID, item.Name, item.Count, item.Unit, item.Creator, string(item.Status), item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SetGroupDisabled flips the disabled flag and bumps the group version.
func (s *SQLiteStore) SetGroupDisabled(ctx context.Context, groupID string, disabled bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := touchGroup(ctx, tx, groupID, time.Now().Unix()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE groups SET disabled = ? WHERE id = ?", disabled, groupID); err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// touchGroup bumps version and updated_at, failing if the group is missing.
func touchGroup(ctx context.Context, tx *sql.Tx, groupID string, now int64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE groups SET version = version + 1, updated_at = ? WHERE id = ?",
		now, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check group update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// newJoinKey builds a short shareable key: base36 milliseconds with a dash
// after the fourth character, plus a random tail against same-millisecond
// collisions.
func newJoinKey(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 36)
	tail := strings.ReplaceAll(uuid.New().String(), "-", "")[:3]
	if len(ms) <= 4 {
		return ms + "-" + tail
	}
	return ms[:4] + "-" + ms[4:] + tail
}

// wrapConflict maps unique constraint violations to storage.ErrConflict.
func wrapConflict(err error) error {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", storage.ErrConflict, err)
		case sqlite3.SQLITE_CONSTRAINT:
			if strings.Contains(se.Error(), "UNIQUE") {
				return fmt.Errorf("%w: %v", storage.ErrConflict, err)
			}
		}
	}
	return err
}
