package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"portfolio-photo-backend/internal/middleware"
	"portfolio-photo-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// maxUploadMemory bounds the in-memory portion of a multipart parse.
const maxUploadMemory = 32 << 20

// AdminHandler handles the authenticated admin-console HTTP requests
type AdminHandler struct {
	authService    *services.AuthService
	galleryService *services.GalleryService
	uploadService  *services.UploadService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	authService *services.AuthService,
	galleryService *services.GalleryService,
	uploadService *services.UploadService,
) *AdminHandler {
	return &AdminHandler{
		authService:    authService,
		galleryService: galleryService,
		uploadService:  uploadService,
	}
}

// LoginRequest is the body of a login call
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	session, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Warn().Str("email", req.Email).Msg("Failed login attempt")
		respondError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	respondJSON(w, session, http.StatusOK)
}

// Logout handles POST /api/v1/admin/logout. Sessions are stateless
// JWTs, so logout is the client discarding its token.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]bool{"ok": true}, http.StatusOK)
}

// Session handles GET /api/v1/admin/session
func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, err := h.authService.GetSession(r.Context(), middleware.GetAdminID(r.Context()))
	if err != nil {
		respondError(w, "invalid session", http.StatusUnauthorized)
		return
	}
	respondJSON(w, session, http.StatusOK)
}

// UploadPhotos handles POST /api/v1/admin/photos/upload (multipart form with
// a category_id field and one or more files)
func (h *AdminHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	categoryID := r.FormValue("category_id")
	if categoryID == "" {
		respondError(w, "category_id is required", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondError(w, "no files provided", http.StatusBadRequest)
		return
	}

	items := make([]services.UploadItem, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			respondError(w, "failed to read uploaded file", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			respondError(w, "failed to read uploaded file", http.StatusBadRequest)
			return
		}
		items = append(items, services.UploadItem{
			Filename: header.Filename,
			Title:    r.FormValue("title"),
			Data:     data,
		})
	}

	results := h.uploadService.UploadBatch(r.Context(), categoryID, items)

	log.Info().
		Str("category_id", categoryID).
		Int("files", len(items)).
		Msg("Upload batch processed")

	respondJSON(w, map[string]interface{}{"results": results}, http.StatusOK)
}

// ActiveRequest is the body of an activation toggle
type ActiveRequest struct {
	Active bool `json:"active"`
}

// SetPhotoActive handles PATCH /api/v1/admin/photos/{photo_id}/active
func (h *AdminHandler) SetPhotoActive(w http.ResponseWriter, r *http.Request) {
	var req ActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	photoID := chi.URLParam(r, "photo_id")
	if err := h.galleryService.SetPhotoActive(r.Context(), photoID, req.Active); err != nil {
		respondError(w, err.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, map[string]bool{"ok": true}, http.StatusOK)
}

// DeletePhoto handles DELETE /api/v1/admin/photos/{photo_id}
func (h *AdminHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	photoID := chi.URLParam(r, "photo_id")
	if err := h.galleryService.DeletePhoto(r.Context(), photoID); err != nil {
		log.Error().Err(err).Str("photo_id", photoID).Msg("Failed to delete photo")
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]bool{"ok": true}, http.StatusOK)
}

// ListCategoryPhotos handles GET /api/v1/admin/categories/{category_id}/photos,
// returning deactivated photos as well
func (h *AdminHandler) ListCategoryPhotos(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "category_id")
	photos, err := h.galleryService.ListCategoryPhotos(r.Context(), categoryID)
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]interface{}{"photos": photos}, http.StatusOK)
}

// CategoryRequest is the body of category create/update calls
type CategoryRequest struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Tag   string `json:"tag"`
}

// CreateCategory handles POST /api/v1/admin/categories
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	category, err := h.galleryService.CreateCategory(r.Context(), req.ID, req.Label, req.Tag)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, category, http.StatusCreated)
}

// UpdateCategory handles PUT /api/v1/admin/categories/{category_id}
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	categoryID := chi.URLParam(r, "category_id")
	if err := h.galleryService.UpdateCategory(r.Context(), categoryID, req.Label, req.Tag); err != nil {
		respondError(w, err.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, map[string]bool{"ok": true}, http.StatusOK)
}

// SetCategoryActive handles PATCH /api/v1/admin/categories/{category_id}/active
func (h *AdminHandler) SetCategoryActive(w http.ResponseWriter, r *http.Request) {
	var req ActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	categoryID := chi.URLParam(r, "category_id")
	if err := h.galleryService.SetCategoryActive(r.Context(), categoryID, req.Active); err != nil {
		respondError(w, err.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, map[string]bool{"ok": true}, http.StatusOK)
}

// DeleteCategory handles DELETE /api/v1/admin/categories/{category_id}
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "category_id")
	if err := h.galleryService.DeleteCategory(r.Context(), categoryID); err != nil {
		respondError(w, err.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, map[string]bool{"ok": true}, http.StatusOK)
}
