package repository

import (
	"context"

	"portfolio-photo-backend/internal/models"
)

// GalleryDataSource adapts the category and photo repositories to the
// gallery store's data source surface.
type GalleryDataSource struct {
	categories *CategoryRepository
	photos     *PhotoRepository
}

// NewGalleryDataSource creates a new gallery data source
func NewGalleryDataSource(categories *CategoryRepository, photos *PhotoRepository) *GalleryDataSource {
	return &GalleryDataSource{categories: categories, photos: photos}
}

// ListActiveCategories returns the active categories ordered by label
func (s *GalleryDataSource) ListActiveCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.ListActive(ctx)
}

// CategoryCovers returns the most recent photo per requested category
func (s *GalleryDataSource) CategoryCovers(ctx context.Context, categoryIDs []string) ([]models.CategoryCover, error) {
	return s.photos.CategoryCovers(ctx, categoryIDs)
}

// CategoryPhotos returns a category's active photos, most recent first
func (s *GalleryDataSource) CategoryPhotos(ctx context.Context, categoryID string) ([]models.Photo, error) {
	return s.photos.ListByCategory(ctx, categoryID)
}

// UpdateCounter pushes an engagement counter value
func (s *GalleryDataSource) UpdateCounter(ctx context.Context, photoID, field string, value int) error {
	return s.photos.UpdateCounter(ctx, photoID, field, value)
}
