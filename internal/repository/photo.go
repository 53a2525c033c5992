package repository

import (
	"context"
	"fmt"

	"portfolio-photo-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PhotoRepository handles database operations for photos
type PhotoRepository struct {
	db *pgxpool.Pool
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Create creates a new photo
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (id, category_id, url, title, placeholder, views, likes, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		photo.ID, photo.CategoryID, photo.URL, photo.Title, photo.Placeholder,
		photo.Views, photo.Likes, photo.Active, photo.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// GetByID retrieves a photo by ID
func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	query := `
		SELECT id, category_id, url, COALESCE(title, ''), COALESCE(placeholder, ''),
		       views, likes, active, created_at
		FROM photos
		WHERE id = $1
	`
	var photo models.Photo
	err := r.db.QueryRow(ctx, query, id).Scan(
		&photo.ID, &photo.CategoryID, &photo.URL, &photo.Title, &photo.Placeholder,
		&photo.Views, &photo.Likes, &photo.Active, &photo.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("photo not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return &photo, nil
}

// ListByCategory retrieves the active photos of a category, most recent first
func (r *PhotoRepository) ListByCategory(ctx context.Context, categoryID string) ([]models.Photo, error) {
	query := `
		SELECT id, category_id, url, COALESCE(title, ''), COALESCE(placeholder, ''),
		       views, likes, active, created_at
		FROM photos
		WHERE category_id = $1 AND active = true
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	return scanPhotos(rows)
}

// ListByCategoryAll retrieves every photo of a category including
// deactivated ones, for the admin console.
func (r *PhotoRepository) ListByCategoryAll(ctx context.Context, categoryID string) ([]models.Photo, error) {
	query := `
		SELECT id, category_id, url, COALESCE(title, ''), COALESCE(placeholder, ''),
		       views, likes, active, created_at
		FROM photos
		WHERE category_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	return scanPhotos(rows)
}

// CategoryCovers retrieves the most recent active photo of each
// requested category in a single query.
func (r *PhotoRepository) CategoryCovers(ctx context.Context, categoryIDs []string) ([]models.CategoryCover, error) {
	query := `
		SELECT DISTINCT ON (category_id)
		       id, category_id, url, COALESCE(title, ''), COALESCE(placeholder, ''),
		       views, likes, active, created_at
		FROM photos
		WHERE category_id = ANY($1) AND active = true
		ORDER BY category_id, created_at DESC
	`
	rows, err := r.db.Query(ctx, query, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get category covers: %w", err)
	}
	defer rows.Close()

	photos, err := scanPhotos(rows)
	if err != nil {
		return nil, err
	}

	covers := make([]models.CategoryCover, 0, len(photos))
	for _, photo := range photos {
		covers = append(covers, models.CategoryCover{CategoryID: photo.CategoryID, Photo: photo})
	}
	return covers, nil
}

// SetActive toggles a photo's visibility without deleting it
func (r *PhotoRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE photos SET active = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("failed to update photo active flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("photo not found")
	}
	return nil
}

// Delete removes a photo row
func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM photos WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("photo not found")
	}
	return nil
}

// UpdateCounter sets an engagement counter to a new value, clamped at
// zero. Likes may legitimately decrease on unlike, so this is a plain
// last-write-wins set; stale reads are reconciled on the cache side.
func (r *PhotoRepository) UpdateCounter(ctx context.Context, photoID, field string, value int) error {
	if field != models.CounterViews && field != models.CounterLikes {
		return fmt.Errorf("unknown counter field %q", field)
	}
	// field is restricted to the fixed set above, never raw caller input.
	query := fmt.Sprintf(`UPDATE photos SET %s = GREATEST($1, 0) WHERE id = $2`, field)
	_, err := r.db.Exec(ctx, query, value, photoID)
	if err != nil {
		return fmt.Errorf("failed to update %s counter: %w", field, err)
	}
	return nil
}

func scanPhotos(rows pgx.Rows) ([]models.Photo, error) {
	var photos []models.Photo
	for rows.Next() {
		var photo models.Photo
		err := rows.Scan(
			&photo.ID, &photo.CategoryID, &photo.URL, &photo.Title, &photo.Placeholder,
			&photo.Views, &photo.Likes, &photo.Active, &photo.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}
	return photos, nil
}
