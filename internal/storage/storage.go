package storage

import (
	"context"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

// AttachmentKey builds the object key for a new attachment of a plan,
// e.g. "plans/<planID>/<uuid>.pdf".
func AttachmentKey(planID string, contentType string) string {
	ext := ""
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return PlanObjectKey(planID, uuid.New().String()+ext)
}

// PlanObjectKey is the full object key of the attachment `name` of a plan.
func PlanObjectKey(planID, name string) string {
	return path.Join("plans", planID, name)
}

// BelongsToPlan reports whether objectKey was issued for planID by AttachmentKey.
func BelongsToPlan(objectKey, planID string) bool {
	prefix := path.Join("plans", planID) + "/"
	return strings.HasPrefix(objectKey, prefix) && !strings.Contains(objectKey[len(prefix):], "/")
}
