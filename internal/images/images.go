// Package images stores group pictures under generated file names.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"
)

var (
	ErrNotFound        = errors.New("image not found")
	ErrUnsupportedType = errors.New("only jpeg, png and svg images are allowed")
	ErrTooLarge        = errors.New("image too large")
	ErrInvalidName     = errors.New("invalid image name")
)

// extensions maps the accepted content types to file extensions.
var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/svg+xml": ".svg",
}

// Image is a stored picture.
type Image struct {
	ContentType string
	Data        []byte
}

// Store is a blob backend keyed by file name.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
	Get(ctx context.Context, name string) (*Image, error)
}

// Service validates uploads and names them before handing them to a Store.
type Service struct {
	store    Store
	maxBytes int64
}

func NewService(store Store, maxBytes int64) *Service {
	return &Service{store: store, maxBytes: maxBytes}
}

// Upload stores the image read from r and returns its generated file name.
// contentType is the type declared by the client; jpeg and png bodies must
// also sniff as what they claim to be.
func (s *Service) Upload(ctx context.Context, contentType string, r io.Reader) (string, error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := extensions[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.maxBytes)
	}
	if contentType != "image/svg+xml" && http.DetectContentType(data) != contentType {
		return "", ErrUnsupportedType
	}
	if contentType == "image/svg+xml" && !bytes.Contains(data, []byte("<svg")) {
		return "", ErrUnsupportedType
	}

	name := ulid.Make().String() + ext
	if err := s.store.Put(ctx, name, contentType, data); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return name, nil
}

// Fetch returns a stored image. Names that could not have been generated
// by Upload are rejected without touching the store.
func (s *Service) Fetch(ctx context.Context, name string) (*Image, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, name)
}

func validName(name string) error {
	ext := path.Ext(name)
	known := false
	for _, e := range extensions {
		if e == ext {
			known = true
			break
		}
	}
	if !known {
		return ErrInvalidName
	}
	if _, err := ulid.ParseStrict(strings.TrimSuffix(name, ext)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	return nil
}
