package storage

import "context"

// Uploader stores named blobs and returns a publicly reachable URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
