package images

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmynk/godutch/internal/storage/sqlite"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestService(t *testing.T, maxBytes int64) *Service {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "images.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(NewDBStore(db), maxBytes)
}

func TestUploadAndFetch(t *testing.T) {
	svc := newTestService(t, 1024)
	ctx := context.Background()

	name, err := svc.Upload(ctx, "image/png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("name = %s, want .png suffix", name)
	}

	img, err := svc.Fetch(ctx, name)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if img.ContentType != "image/png" || !bytes.Equal(img.Data, pngHeader) {
		t.Errorf("got %s %v", img.ContentType, img.Data)
	}

	svg := `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`
	svgName, err := svc.Upload(ctx, "image/svg+xml", strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Upload svg failed: %v", err)
	}
	if !strings.HasSuffix(svgName, ".svg") {
		t.Errorf("name = %s, want .svg suffix", svgName)
	}
}

func TestUpload_Rejects(t *testing.T) {
	svc := newTestService(t, 16)
	ctx := context.Background()

	tests := []struct {
		name        string
		contentType string
		body        []byte
		wantErr     error
	}{
		{"gif", "image/gif", []byte("GIF89a"), ErrUnsupportedType},
		{"text claiming png", "image/png", []byte("hello"), ErrUnsupportedType},
		{"svg without svg element", "image/svg+xml", []byte("<html>"), ErrUnsupportedType},
		{"too large", "image/png", append(pngHeader, make([]byte, 16)...), ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.contentType, bytes.NewReader(tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetch_Errors(t *testing.T) {
	svc := newTestService(t, 1024)
	ctx := context.Background()

	for _, name := range []string{"../etc/passwd", "abc.png", "01ARZ3NDEKTSV4RRFFQ69G5FAV.exe"} {
		if _, err := svc.Fetch(ctx, name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Fetch(%q) error = %v, want ErrInvalidName", name, err)
		}
	}

	if _, err := svc.Fetch(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
