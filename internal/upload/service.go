package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/revlinehq/revline-api/internal/models"
	"github.com/revlinehq/revline-api/internal/storage"
	"github.com/revlinehq/revline-api/pkg/logger"
	"github.com/revlinehq/revline-api/pkg/metrics"
)

var (
	// ErrNoFiles is returned before any external call when the batch is empty.
	ErrNoFiles = errors.New("no files selected")
	// ErrNotAuthenticated is returned before any external call when no
	// identity is present.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ObjectStore is the bucket surface the upload flow needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// File is one user-selected image held in memory; the same bytes are written
// to both buckets.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// BatchRequest carries the files plus the descriptive car context.
type BatchRequest struct {
	CarID       string
	Make        string
	Model       string
	Year        int
	Description string
	Files       []File
}

// Service persists each selected photo as two storage objects plus one
// metadata row. Files are processed strictly sequentially: concurrency here
// would blur failure attribution and multiply quota usage.
type Service struct {
	photos ObjectStore
	thumbs ObjectStore
	repo   Repository
	now    func() time.Time
}

func NewService(photos, thumbs ObjectStore, repo Repository) *Service {
	return &Service{photos: photos, thumbs: thumbs, repo: repo, now: time.Now}
}

// UploadBatch processes the files in order. Per file the side effects are
// fixed: full image, then thumbnail, then metadata row — the row assumes the
// key already exists in the photo bucket. A full-image or row-insert failure
// aborts the batch; a thumbnail failure is logged and the row still inserted
// pointing at the full-image key. Returns the number of fully persisted files.
func (s *Service) UploadBatch(ctx context.Context, userID string, req BatchRequest) (int, error) {
	if len(req.Files) == 0 {
		return 0, ErrNoFiles
	}
	if userID == "" {
		return 0, ErrNotAuthenticated
	}

	caption := Caption(req.Make, req.Model, req.Year, req.Description)
	for i, f := range req.Files {
		key := storage.ObjectKey(userID, req.CarID, f.Name, s.now())

		if err := s.photos.Upload(ctx, key, bytes.NewReader(f.Data), int64(len(f.Data)), f.ContentType); err != nil {
			metrics.PhotoUploads.WithLabelValues("failure").Inc()
			return i, fmt.Errorf("upload %q: %w", f.Name, err)
		}

		if err := s.thumbs.Upload(ctx, key, bytes.NewReader(f.Data), int64(len(f.Data)), f.ContentType); err != nil {
			metrics.ThumbnailFailures.Inc()
			logger.Warnf("upload: thumbnail for %q failed, keeping full image only: %v", f.Name, err)
		}

		photo := &models.Photo{
			ID:       uuid.NewString(),
			UserID:   userID,
			CarID:    req.CarID,
			Key:      key,
			ThumbKey: key,
			Caption:  caption,
			Tags:     []string{},
			Specs:    map[string]string{},
		}
		if err := s.repo.Insert(ctx, photo); err != nil {
			metrics.PhotoUploads.WithLabelValues("failure").Inc()
			return i, fmt.Errorf("save metadata for %q: %w", f.Name, err)
		}
	}
	metrics.PhotoUploads.WithLabelValues("success").Inc()
	return len(req.Files), nil
}

// ListByCar returns the stored photo rows for a car, newest first.
func (s *Service) ListByCar(ctx context.Context, carID string) ([]models.Photo, error) {
	return s.repo.ListByCar(ctx, carID)
}
