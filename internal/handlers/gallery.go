package handlers

import (
	"encoding/json"
	"net/http"

	"portfolio-photo-backend/internal/gallery"
	"portfolio-photo-backend/internal/imgurl"
	"portfolio-photo-backend/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// GalleryHandler handles the public gallery HTTP requests
type GalleryHandler struct {
	store    *gallery.Store
	resolver *imgurl.Resolver
	opts     imgurl.Options
}

// NewGalleryHandler creates a new gallery handler
func NewGalleryHandler(store *gallery.Store, resolver *imgurl.Resolver, opts imgurl.Options) *GalleryHandler {
	return &GalleryHandler{
		store:    store,
		resolver: resolver,
		opts:     opts,
	}
}

// PhotoView is a photo decorated with its responsive image descriptor
// and the current viewer's like state.
type PhotoView struct {
	models.Photo
	Sources imgurl.Sources `json:"sources"`
	Liked   bool           `json:"liked"`
}

// CategoryView is a category with its cover photo, if any.
type CategoryView struct {
	models.Category
	Cover *PhotoView `json:"cover,omitempty"`
}

// ListCategories handles GET /api/v1/categories
func (h *GalleryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.store.Categories()

	views := make([]CategoryView, 0, len(categories))
	for _, category := range categories {
		view := CategoryView{Category: category}
		if photos, ok := h.store.Photos(category.ID); ok && len(photos) > 0 {
			cover := h.photoView(category.ID, photos[0])
			view.Cover = &cover
		}
		views = append(views, view)
	}

	respondJSON(w, map[string]interface{}{"categories": views}, http.StatusOK)
}

// GetCategoryPhotos handles GET /api/v1/categories/{category_id}/photos
func (h *GalleryHandler) GetCategoryPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categoryID := chi.URLParam(r, "category_id")
	force := r.URL.Query().Get("force") == "true"

	if !h.categoryExists(categoryID) {
		respondError(w, "category not found", http.StatusNotFound)
		return
	}

	if err := h.store.EnsureCategoryLoaded(ctx, categoryID, force); err != nil {
		log.Error().
			Err(err).
			Str("category_id", categoryID).
			Msg("Failed to load category photos")
		// Stale-but-consistent: serve whatever the cache holds.
	}

	photos, _ := h.store.Photos(categoryID)
	views := make([]PhotoView, 0, len(photos))
	for _, photo := range photos {
		views = append(views, h.photoView(categoryID, photo))
	}

	respondJSON(w, map[string]interface{}{
		"photos":  views,
		"loading": h.store.IsLoading(categoryID),
	}, http.StatusOK)
}

// RegisterView handles POST /api/v1/categories/{category_id}/photos/{photo_id}/view
func (h *GalleryHandler) RegisterView(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "category_id")
	photoID := chi.URLParam(r, "photo_id")

	photo, err := h.store.IncrementView(categoryID, photoID)
	if err != nil {
		respondError(w, err.Error(), http.StatusNotFound)
		return
	}

	respondJSON(w, h.photoView(categoryID, photo), http.StatusOK)
}

// LikeRequest is the body of a like toggle
type LikeRequest struct {
	WillLike bool `json:"will_like"`
}

// ToggleLike handles POST /api/v1/categories/{category_id}/photos/{photo_id}/like
func (h *GalleryHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "category_id")
	photoID := chi.URLParam(r, "photo_id")

	var req LikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	photo, err := h.store.ToggleLike(categoryID, photoID, req.WillLike)
	if err != nil {
		respondError(w, err.Error(), http.StatusNotFound)
		return
	}

	respondJSON(w, h.photoView(categoryID, photo), http.StatusOK)
}

// ResolveImage handles GET /api/v1/resolve?url=...
func (h *GalleryHandler) ResolveImage(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.resolver.Resolve(r.URL.Query().Get("url"), h.opts), http.StatusOK)
}

func (h *GalleryHandler) photoView(categoryID string, photo models.Photo) PhotoView {
	return PhotoView{
		Photo:   photo,
		Sources: h.resolver.Resolve(photo.URL, h.opts),
		Liked:   h.store.IsLiked(categoryID, photo.ID),
	}
}

func (h *GalleryHandler) categoryExists(categoryID string) bool {
	for _, c := range h.store.Categories() {
		if c.ID == categoryID {
			return true
		}
	}
	return false
}
