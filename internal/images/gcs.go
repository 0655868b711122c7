package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const objectPrefix = "groups/"

// GCSStore keeps images in a Google Cloud Storage bucket.
type GCSStore struct {
	client     *storage.Client
	bucketName string
}

// NewGCSStore connects to the bucket. An empty credentialsFile uses the
// application default credentials.
func NewGCSStore(ctx context.Context, bucketName, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStore{
		client:     client,
		bucketName: bucketName,
	}, nil
}

func (s *GCSStore) Put(ctx context.Context, name, contentType string, data []byte) error {
	object := s.client.Bucket(s.bucketName).Object(objectPrefix + name)

	writer := object.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType
	writer.Metadata = map[string]string{
		"uploaded_at": time.Now().Format(time.RFC3339),
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("failed to upload image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, name string) (*Image, error) {
	reader, err := s.client.Bucket(s.bucketName).Object(objectPrefix + name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return &Image{ContentType: reader.Attrs.ContentType, Data: data}, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
