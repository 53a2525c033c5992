package services

import (
	"context"
	"fmt"
	"time"

	"portfolio-photo-backend/internal/gallery"
	"portfolio-photo-backend/internal/imgproc"
	"portfolio-photo-backend/internal/models"
	"portfolio-photo-backend/internal/repository"
	"portfolio-photo-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UploadService runs the admin upload pipeline: compress, generate a
// blur-up placeholder, store the object, insert the photo row.
type UploadService struct {
	photoRepo   *repository.PhotoRepository
	storage     *storage.ObjectStorage
	pipeline    *imgproc.Pipeline
	store       *gallery.Store
	concurrency int
}

// NewUploadService creates a new upload service
func NewUploadService(
	photoRepo *repository.PhotoRepository,
	objectStorage *storage.ObjectStorage,
	pipeline *imgproc.Pipeline,
	store *gallery.Store,
	concurrency int,
) *UploadService {
	return &UploadService{
		photoRepo:   photoRepo,
		storage:     objectStorage,
		pipeline:    pipeline,
		store:       store,
		concurrency: concurrency,
	}
}

// UploadItem is one file of a batch upload request.
type UploadItem struct {
	Filename string
	Title    string
	Data     []byte
}

// UploadResult reports the outcome for one file of a batch. A failed
// item carries its error so the admin can retry just that file.
type UploadResult struct {
	Filename string        `json:"filename"`
	Photo    *models.Photo `json:"photo,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// UploadBatch processes a batch of files for one category with bounded
// concurrency. Results come back in the order the files were
// submitted; one file failing never aborts the rest.
func (s *UploadService) UploadBatch(ctx context.Context, categoryID string, items []UploadItem) []UploadResult {
	tasks := make([]imgproc.Task, len(items))
	for i, item := range items {
		item := item
		tasks[i] = func(ctx context.Context) (any, error) {
			return s.uploadOne(ctx, categoryID, item)
		}
	}

	runs := imgproc.RunLimited(ctx, tasks, s.concurrency)

	results := make([]UploadResult, len(items))
	for i, run := range runs {
		results[i].Filename = items[i].Filename
		if run.Err != nil {
			log.Error().
				Err(run.Err).
				Str("category_id", categoryID).
				Str("filename", items[i].Filename).
				Msg("Upload failed")
			results[i].Error = run.Err.Error()
			continue
		}
		photo := run.Value.(models.Photo)
		results[i].Photo = &photo
	}
	return results
}

func (s *UploadService) uploadOne(ctx context.Context, categoryID string, item UploadItem) (models.Photo, error) {
	if len(item.Data) == 0 {
		return models.Photo{}, fmt.Errorf("empty file")
	}

	compressed := s.pipeline.Compress(item.Data)
	placeholder, _ := s.pipeline.Placeholder(compressed.Data)

	photoID := uuid.New().String()
	key := fmt.Sprintf("%s/%s%s", categoryID, photoID, extensionFor(compressed.ContentType))

	url, err := s.storage.Upload(ctx, key, compressed.ContentType, compressed.Data)
	if err != nil {
		return models.Photo{}, fmt.Errorf("failed to store file: %w", err)
	}

	photo := models.Photo{
		ID:          photoID,
		CategoryID:  categoryID,
		URL:         url,
		Title:       item.Title,
		Placeholder: placeholder,
		Active:      true,
		CreatedAt:   time.Now(),
	}
	if err := s.photoRepo.Create(ctx, &photo); err != nil {
		// The object is already stored; keep the row and object in
		// sync by removing the orphan.
		if delErr := s.storage.Delete(ctx, url); delErr != nil {
			log.Warn().Err(delErr).Str("url", url).Msg("Failed to clean up orphaned object")
		}
		return models.Photo{}, fmt.Errorf("failed to create photo record: %w", err)
	}

	s.store.AddPhoto(categoryID, photo)
	return photo, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case imgproc.ContentTypeWebP:
		return ".webp"
	case imgproc.ContentTypeJPEG:
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
