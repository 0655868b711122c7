package images

import (
	"context"
	"errors"

	"github.com/mmynk/godutch/internal/storage"
)

// blobStore is implemented by sqlite.SQLiteStore.
type blobStore interface {
	SaveImage(ctx context.Context, filename, contentType string, data []byte) error
	LoadImage(ctx context.Context, filename string) (string, []byte, error)
}

// DBStore keeps images in the application database.
type DBStore struct {
	db blobStore
}

func NewDBStore(db blobStore) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Put(ctx context.Context, name, contentType string, data []byte) error {
	return s.db.SaveImage(ctx, name, contentType, data)
}

func (s *DBStore) Get(ctx context.Context, name string) (*Image, error) {
	contentType, data, err := s.db.LoadImage(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Image{ContentType: contentType, Data: data}, nil
}
