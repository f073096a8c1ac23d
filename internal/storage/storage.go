// Package storage defines the interface for object storage operations.
// Implementations are chosen at startup: MinIO for local and self-hosted
// deployments, the AWS SDK for S3 proper.
package storage

import (
	"context"
	"strings"
)

// CacheControl is attached to every uploaded object.
const CacheControl = "max-age=3600"

// Storage is the interface for uploading, addressing and removing objects.
type Storage interface {
	// Upload stores body under path in bucket.
	Upload(ctx context.Context, bucket, path string, body []byte, contentType string) error
	// PublicURL constructs the browser-accessible URL for path in bucket.
	PublicURL(bucket, path string) string
	// Remove deletes the objects at paths from bucket.
	Remove(ctx context.Context, bucket string, paths []string) error
}

// joinPublicURL builds "<base>/<bucket>/<path>".
func joinPublicURL(base, bucket, path string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.TrimLeft(path, "/")
}
