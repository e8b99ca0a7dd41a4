package storage

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSMirror struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSMirror(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSMirror, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSMirror{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (m *GCSMirror) Name() string { return "gcs" }

// Upload creates the object only if it does not already exist.
func (m *GCSMirror) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	name := path.Join(m.prefix, key)
	obj := m.client.Bucket(m.bucket).Object(name).If(storage.Conditions{DoesNotExist: true})

	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", &WriteError{Op: "upload", Path: m.uri(name), Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &WriteError{Op: "upload", Path: m.uri(name), Err: err}
	}

	return m.uri(name), nil
}

func (m *GCSMirror) uri(name string) string {
	return fmt.Sprintf("gs://%s/%s", m.bucket, name)
}

func (m *GCSMirror) Close() error {
	return m.client.Close()
}

var _ Mirror = (*GCSMirror)(nil)
