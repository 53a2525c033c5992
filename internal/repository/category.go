package repository

import (
	"context"
	"fmt"

	"portfolio-photo-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository handles database operations for categories
type CategoryRepository struct {
	db *pgxpool.Pool
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListActive retrieves all active categories ordered by label
func (r *CategoryRepository) ListActive(ctx context.Context) ([]models.Category, error) {
	query := `
		SELECT id, label, tag, active, created_at
		FROM categories
		WHERE active = true
		ORDER BY label
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Label, &c.Tag, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetByID retrieves a category by its slug
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	query := `
		SELECT id, label, tag, active, created_at
		FROM categories
		WHERE id = $1
	`
	var c models.Category
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Label, &c.Tag, &c.Active, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("category not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, label, tag, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		category.ID, category.Label, category.Tag, category.Active, category.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Update updates a category's label and tag
func (r *CategoryRepository) Update(ctx context.Context, id, label, tag string) error {
	query := `UPDATE categories SET label = $1, tag = $2 WHERE id = $3`
	result, err := r.db.Exec(ctx, query, label, tag, id)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("category not found")
	}
	return nil
}

// SetActive toggles a category's visibility
func (r *CategoryRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE categories SET active = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("failed to update category active flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("category not found")
	}
	return nil
}

// Delete removes a category. Its photo rows are removed with it
// through the FK cascade.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM categories WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("category not found")
	}
	return nil
}
