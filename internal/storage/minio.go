package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOUploader implements Uploader using a MinIO (or any S3-compatible) server.
type MinIOUploader struct {
	client   *minio.Client
	endpoint string
	bucket   string
	useSSL   bool
}

// MinIOOptions configures MinIO client initialization.
type MinIOOptions struct {
	// Endpoint is the MinIO server address (host:port).
	Endpoint string
	// AccessKey is the access key ID.
	AccessKey string
	// SecretKey is the secret access key.
	SecretKey string
	// Bucket is the bucket that holds uploaded objects.
	Bucket string
	// UseSSL toggles TLS for MinIO connections.
	UseSSL bool
}

// NewMinIOUploader constructs a MinIO-backed uploader.
func NewMinIOUploader(opts MinIOOptions) (*MinIOUploader, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIOUploader{
		client:   client,
		endpoint: opts.Endpoint,
		bucket:   opts.Bucket,
		useSSL:   opts.UseSSL,
	}, nil
}

// Upload stores the data under key and returns the object's public URL.
// The bucket is expected to exist and allow public reads.
func (u *MinIOUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	scheme := "http"
	if u.useSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s/%s/%s", scheme, u.endpoint, u.bucket, key), nil
}
