package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"chatnet/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// UploadStore writes client-submitted images to a served directory.
// Content type is sniffed from the bytes; declared names and extensions
// are never trusted.
type UploadStore struct {
	dir string
	log *slog.Logger
}

func NewUploadStore(dir string, log *slog.Logger) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload directory: %w", err)
	}
	return &UploadStore{dir: dir, log: log}, nil
}

// Save persists one image and returns its public URL path. Anything
// that does not sniff as an image is rejected.
func (s *UploadStore) Save(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.ErrUnsupportedMedia
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedMedia, mime.String())
	}

	name := uuid.NewString() + mime.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("upload write: %w", err)
	}

	s.log.Debug("Image stored", "file", name, "mime", mime.String(), "bytes", len(data))
	return "/uploads/" + name, nil
}
