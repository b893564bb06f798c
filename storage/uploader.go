package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// UploadResult describes a stored crest object.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader keeps faculty crests in a public bucket. Keys are produced by
// CrestKey; GetPublicURL returns "" for an empty key.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}

// CrestKey returns a fresh object key for a faculty crest. Each upload gets
// its own key so cached copies of the previous crest never shadow the new one.
func CrestKey(facultyID int, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("faculties/%d/crest-%s%s", facultyID, uuid.NewString(), ext)
}
