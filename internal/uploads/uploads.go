// Package uploads stores caregiver verification documents in an object
// store before they are referenced from a registration.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/wolfman30/carely-portal/pkg/logging"
)

// MaxDocumentSize is the largest document accepted for upload.
const MaxDocumentSize = 5 << 20

var (
	// ErrFileTooLarge is returned before any upload when a file exceeds MaxDocumentSize
	ErrFileTooLarge = errors.New("file must be under 5MB")

	// ErrNoFiles is returned when nothing was selected
	ErrNoFiles = errors.New("select documents first")
)

// File is a document waiting to be uploaded.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// Document is an uploaded file.
type Document struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Name is the last segment of the public id.
func (d Document) Name() string {
	return path.Base(d.PublicID)
}

// Uploader stores and removes documents.
type Uploader interface {
	Upload(ctx context.Context, f File) (Document, error)
	Delete(ctx context.Context, publicIDs []string) error
}

// CheckSizes rejects the batch if any file is over the limit.
func CheckSizes(files []File) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	for _, f := range files {
		if f.Size > MaxDocumentSize {
			return fmt.Errorf("%w: %s", ErrFileTooLarge, f.Name)
		}
	}
	return nil
}

// UploadAll uploads every file or none: sizes are checked first, and a
// failure midway removes what was already stored.
func UploadAll(ctx context.Context, u Uploader, files []File, logger *logging.Logger) ([]Document, error) {
	if err := CheckSizes(files); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}
	docs := make([]Document, 0, len(files))
	for _, f := range files {
		doc, err := u.Upload(ctx, f)
		if err != nil {
			if len(docs) > 0 {
				if derr := u.Delete(ctx, PublicIDs(docs)); derr != nil {
					logger.Warn("orphaned uploads after failed batch", "count", len(docs), "error", derr)
				}
			}
			return nil, fmt.Errorf("upload %s: %w", f.Name, err)
		}
		docs = append(docs, doc)
	}
	logger.Info("documents uploaded", "count", len(docs))
	return docs, nil
}

// PublicIDs collects the ids of docs.
func PublicIDs(docs []Document) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.PublicID)
	}
	return ids
}

func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 || name == "." || name == "/" {
		return "document"
	}
	return b.String()
}
