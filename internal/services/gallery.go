package services

import (
	"context"
	"fmt"
	"time"

	"portfolio-photo-backend/internal/gallery"
	"portfolio-photo-backend/internal/models"
	"portfolio-photo-backend/internal/repository"
	"portfolio-photo-backend/internal/storage"
)

// GalleryService handles structural category/photo changes: it
// persists them to the backing store and keeps the in-memory gallery
// cache in step.
type GalleryService struct {
	store        *gallery.Store
	categoryRepo *repository.CategoryRepository
	photoRepo    *repository.PhotoRepository
	storage      *storage.ObjectStorage
}

// NewGalleryService creates a new gallery service
func NewGalleryService(
	store *gallery.Store,
	categoryRepo *repository.CategoryRepository,
	photoRepo *repository.PhotoRepository,
	objectStorage *storage.ObjectStorage,
) *GalleryService {
	return &GalleryService{
		store:        store,
		categoryRepo: categoryRepo,
		photoRepo:    photoRepo,
		storage:      objectStorage,
	}
}

// CreateCategory persists a new category. An empty tag is derived from
// the slug and label.
func (s *GalleryService) CreateCategory(ctx context.Context, id, label, tag string) (*models.Category, error) {
	if id == "" || label == "" {
		return nil, fmt.Errorf("category id and label are required")
	}
	if tag == "" {
		tag = models.DeriveTag(id, label)
	}

	category := models.Category{
		ID:        id,
		Label:     label,
		Tag:       tag,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := s.categoryRepo.Create(ctx, &category); err != nil {
		return nil, err
	}
	s.store.AddCategory(category)
	return &category, nil
}

// UpdateCategory updates a category's label and tag
func (s *GalleryService) UpdateCategory(ctx context.Context, id, label, tag string) error {
	if tag == "" {
		tag = models.DeriveTag(id, label)
	}
	if err := s.categoryRepo.Update(ctx, id, label, tag); err != nil {
		return err
	}
	s.store.UpdateCategory(id, label, tag)
	return nil
}

// SetCategoryActive hides or shows a category on the public site
func (s *GalleryService) SetCategoryActive(ctx context.Context, id string, active bool) error {
	if err := s.categoryRepo.SetActive(ctx, id, active); err != nil {
		return err
	}
	if !active {
		s.store.RemoveCategory(id)
	}
	return nil
}

// DeleteCategory removes a category and, through the FK cascade, its
// photo rows. Stored objects are kept for out-of-band cleanup.
func (s *GalleryService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.store.RemoveCategory(id)
	return nil
}

// ListCategoryPhotos returns every photo of a category, including
// deactivated ones, for the admin console.
func (s *GalleryService) ListCategoryPhotos(ctx context.Context, categoryID string) ([]models.Photo, error) {
	return s.photoRepo.ListByCategoryAll(ctx, categoryID)
}

// SetPhotoActive soft-deactivates or reactivates a photo. The row and
// the stored object are kept either way.
func (s *GalleryService) SetPhotoActive(ctx context.Context, photoID string, active bool) error {
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if err := s.photoRepo.SetActive(ctx, photoID, active); err != nil {
		return err
	}
	if active {
		s.store.InvalidateCategory(photo.CategoryID)
	} else {
		s.store.RemovePhoto(photo.CategoryID, photoID)
	}
	return nil
}

// DeletePhoto removes both the stored object and the database row
func (s *GalleryService) DeletePhoto(ctx context.Context, photoID string) error {
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, photo.URL); err != nil {
		return err
	}
	if err := s.photoRepo.Delete(ctx, photoID); err != nil {
		return err
	}
	s.store.RemovePhoto(photo.CategoryID, photoID)
	return nil
}
