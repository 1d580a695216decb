package catalog

import (
	"context"
	"io"
	"time"

	"github.com/reelfeed/reelfeed/internal/database"
	"github.com/reelfeed/reelfeed/internal/validate"
)

const (
	DefaultFeedLimit = 10
	MaxFeedLimit     = 50

	downloadURLExpiry = 6 * time.Hour
)

type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

type Handler struct {
	db             database.DBTX
	storage        ObjectStorage
	maxUploadBytes int64
	validator      *validate.Validator
}

func NewHandler(db database.DBTX, s ObjectStorage, maxUploadBytes int64) *Handler {
	return &Handler{
		db:             db,
		storage:        s,
		maxUploadBytes: maxUploadBytes,
		validator:      validate.New(),
	}
}

var allowedContentTypes = map[string]string{
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
}

// extensionForContentType reports the blob extension for an accepted upload type.
func extensionForContentType(ct string) (string, bool) {
	ext, ok := allowedContentTypes[ct]
	return ext, ok
}
