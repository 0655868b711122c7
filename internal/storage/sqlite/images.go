package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmynk/godutch/internal/storage"
)

// SaveImage stores an image blob under filename.
func (s *SQLiteStore) SaveImage(ctx context.Context, filename, contentType string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO images (filename, content_type, size, data, created_at) VALUES (?, ?, ?, ?, ?)",
		filename, contentType, len(data), data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save image: %w", wrapConflict(err))
	}
	return nil
}

// LoadImage returns the content type and bytes of a stored image.
func (s *SQLiteStore) LoadImage(ctx context.Context, filename string) (string, []byte, error) {
	var contentType string
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT content_type, data FROM images WHERE filename = ?",
		filename,
	).Scan(&contentType, &data)
	if err == sql.ErrNoRows {
		return "", nil, fmt.Errorf("image %s: %w", filename, storage.ErrNotFound)
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load image: %w", err)
	}
	return contentType, data, nil
}
