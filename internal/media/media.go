// Package media defines the interface to the object storage holding the
// input recordings. The core never writes media; transport of resource
// bytes into storage belongs to an external collaborator.
package media

import (
	"context"
	"errors"
)

// ErrResourceNotFound is returned when the referenced resource does not
// exist or is unreadable.
var ErrResourceNotFound = errors.New("media resource not found")

// ResourceInfo describes a stored resource without fetching its bytes.
type ResourceInfo struct {
	Key      string
	Size     int64
	MIMEType string
}

// Store provides read access to stored media resources.
// Version: 1.0
type Store interface {
	// Head returns size and mime type for the resource at key.
	// Returns ErrResourceNotFound if the resource does not exist.
	Head(ctx context.Context, key string) (*ResourceInfo, error)

	// Get fetches the resource bytes.
	// Returns ErrResourceNotFound if the resource does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
}
