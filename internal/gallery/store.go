package gallery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"portfolio-photo-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// DataSource is the backing-store surface the gallery needs. The
// repository layer implements it against Postgres.
type DataSource interface {
	ListActiveCategories(ctx context.Context) ([]models.Category, error)
	CategoryCovers(ctx context.Context, categoryIDs []string) ([]models.CategoryCover, error)
	CategoryPhotos(ctx context.Context, categoryID string) ([]models.Photo, error)
	UpdateCounter(ctx context.Context, photoID, field string, value int) error
}

// ErrorPolicy is the single place best-effort failures go. Counter
// pushes and viewer-state writes are not business-critical, so their
// errors are logged and dropped rather than surfaced.
type ErrorPolicy func(op string, err error)

// CounterUpdate describes one engagement counter change, delivered to
// the update hook (the websocket hub broadcasts these).
type CounterUpdate struct {
	CategoryID string `json:"category_id"`
	PhotoID    string `json:"photo_id"`
	Field      string `json:"field"`
	Value      int    `json:"value"`
}

const pushTimeout = 5 * time.Second

// Store is the in-memory gallery cache: categories and their ordered
// photo lists, loaded lazily per category, with optimistic engagement
// counters reconciled against the backing store. All mutation goes
// through the Store; consumers receive it by injection, never as a
// package global.
type Store struct {
	mu     sync.RWMutex
	source DataSource
	state  *ViewerState

	categories []models.Category
	photos     map[string][]models.Photo
	loaded     map[string]bool
	loading    map[string]bool
	generation map[string]uint64

	onError  ErrorPolicy
	onUpdate func(CounterUpdate)
}

// NewStore creates a gallery store over source, with viewer engagement
// state persisted through state.
func NewStore(source DataSource, state *ViewerState) *Store {
	return &Store{
		source:     source,
		state:      state,
		photos:     make(map[string][]models.Photo),
		loaded:     make(map[string]bool),
		loading:    make(map[string]bool),
		generation: make(map[string]uint64),
		onError: func(op string, err error) {
			log.Warn().Err(err).Str("op", op).Msg("Best-effort operation failed")
		},
	}
}

// SetErrorPolicy replaces the swallow-and-log policy for best-effort
// failures.
func (s *Store) SetErrorPolicy(policy ErrorPolicy) {
	if policy != nil {
		s.onError = policy
	}
}

// SetUpdateHook registers a callback invoked after every counter
// mutation.
func (s *Store) SetUpdateHook(hook func(CounterUpdate)) {
	s.onUpdate = hook
}

// Sync fetches the active category list and one cover photo per
// category, in two round trips total regardless of photo count. A
// category that is already fully loaded keeps its complete list across
// re-sync. On any fetch error the previous state is retained.
func (s *Store) Sync(ctx context.Context) error {
	categories, err := s.source.ListActiveCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to sync categories: %w", err)
	}

	coversByCategory := make(map[string]models.Photo)
	if len(categories) > 0 {
		ids := make([]string, len(categories))
		for i, c := range categories {
			ids[i] = c.ID
		}
		covers, err := s.source.CategoryCovers(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to sync category covers: %w", err)
		}
		for _, cover := range covers {
			coversByCategory[cover.CategoryID] = cover.Photo
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	photos := make(map[string][]models.Photo, len(categories))
	for _, c := range categories {
		if s.loaded[c.ID] {
			photos[c.ID] = s.photos[c.ID]
			continue
		}
		if cover, ok := coversByCategory[c.ID]; ok {
			photos[c.ID] = []models.Photo{s.mergeCountersLocked(cover)}
		} else {
			photos[c.ID] = []models.Photo{}
		}
	}
	s.categories = categories
	s.photos = photos
	s.pruneRemovedLocked(photos)
	return nil
}

// pruneRemovedLocked drops load bookkeeping for category ids no longer
// in the cache, so a removed category that later reappears starts from
// the unloaded state instead of serving its old list.
func (s *Store) pruneRemovedLocked(current map[string][]models.Photo) {
	for id := range s.loaded {
		if _, ok := current[id]; !ok {
			delete(s.loaded, id)
		}
	}
	for id := range s.loading {
		if _, ok := current[id]; !ok {
			delete(s.loading, id)
		}
	}
	for id := range s.generation {
		if _, ok := current[id]; !ok {
			delete(s.generation, id)
		}
	}
}

// EnsureCategoryLoaded fetches the full photo list for a category. A
// load already in flight, or a completed load without force, is a
// no-op. Previously displayed photos stay visible until the new list
// arrives; the replacement is atomic.
func (s *Store) EnsureCategoryLoaded(ctx context.Context, categoryID string, force bool) error {
	if categoryID == "" {
		return nil
	}

	s.mu.Lock()
	if s.loading[categoryID] || (s.loaded[categoryID] && !force) {
		s.mu.Unlock()
		return nil
	}
	s.loading[categoryID] = true
	s.generation[categoryID]++
	gen := s.generation[categoryID]
	s.mu.Unlock()

	photos, err := s.source.CategoryPhotos(ctx, categoryID)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loading, categoryID)

	if err != nil {
		return fmt.Errorf("failed to load category %q: %w", categoryID, err)
	}
	if gen != s.generation[categoryID] {
		// A newer load superseded this one; drop the stale response.
		return nil
	}

	merged := make([]models.Photo, len(photos))
	for i, photo := range photos {
		merged[i] = s.mergeCountersLocked(photo)
	}
	s.photos[categoryID] = merged
	s.loaded[categoryID] = true
	return nil
}

// InvalidateCategory marks a category so its next load bypasses the
// cache and discards any response still in flight.
func (s *Store) InvalidateCategory(categoryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded[categoryID] = false
	s.generation[categoryID]++
}

// mergeCountersLocked reconciles a server photo row with the locally
// cached counters. Max-merge in both directions keeps counters
// monotonically non-decreasing whichever side is stale.
func (s *Store) mergeCountersLocked(photo models.Photo) models.Photo {
	if photo.Views < 0 {
		photo.Views = 0
	}
	if photo.Likes < 0 {
		photo.Likes = 0
	}
	if override, ok := s.state.Counters(photo.ID); ok {
		photo.Views = MergeCounter(override.Views, photo.Views)
		photo.Likes = MergeCounter(override.Likes, photo.Likes)
	}
	return photo
}

// MergeCounter reconciles a local and a server counter value.
func MergeCounter(local, server int) int {
	if local > server {
		return local
	}
	return server
}

// IncrementView optimistically bumps a photo's view counter by one,
// persists the new value locally, and pushes it to the backing store
// in the background. Push failures are swallowed through the error
// policy; view counts are best-effort.
func (s *Store) IncrementView(categoryID, photoID string) (models.Photo, error) {
	s.mu.Lock()
	photo, err := s.updatePhotoLocked(categoryID, photoID, func(p *models.Photo) {
		p.Views++
	})
	s.mu.Unlock()
	if err != nil {
		return models.Photo{}, err
	}

	s.persistCounters(photo)
	s.pushCounter(categoryID, photoID, models.CounterViews, photo.Views)
	return photo, nil
}

// ToggleLike applies a like (+1) or unlike (-1) for the current
// viewer. The delta is computed from the viewer's current liked-set
// membership, so repeating the same direction is a no-op and rapid
// alternation converges without double counting. Likes never go below
// zero.
func (s *Store) ToggleLike(categoryID, photoID string, willLike bool) (models.Photo, error) {
	s.mu.Lock()
	if s.state.IsLiked(categoryID, photoID) == willLike {
		photo, err := s.findPhotoLocked(categoryID, photoID)
		s.mu.Unlock()
		return photo, err
	}

	photo, err := s.updatePhotoLocked(categoryID, photoID, func(p *models.Photo) {
		if willLike {
			p.Likes++
		} else if p.Likes > 0 {
			p.Likes--
		}
	})
	if err != nil {
		s.mu.Unlock()
		return models.Photo{}, err
	}
	s.state.SetLiked(categoryID, photoID, willLike)
	s.mu.Unlock()

	s.persistCounters(photo)
	s.pushCounter(categoryID, photoID, models.CounterLikes, photo.Likes)
	return photo, nil
}

// IsLiked reports whether the current viewer has liked a photo.
func (s *Store) IsLiked(categoryID, photoID string) bool {
	return s.state.IsLiked(categoryID, photoID)
}

func (s *Store) persistCounters(photo models.Photo) {
	s.state.SetCounters(photo.ID, photo.Views, photo.Likes)
	if err := s.state.Save(); err != nil {
		s.onError("save viewer state", err)
	}
}

// pushCounter sends the new counter value to the backing store without
// blocking the caller. The write is fire-and-forget.
func (s *Store) pushCounter(categoryID, photoID, field string, value int) {
	if s.onUpdate != nil {
		s.onUpdate(CounterUpdate{CategoryID: categoryID, PhotoID: photoID, Field: field, Value: value})
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := s.source.UpdateCounter(ctx, photoID, field, value); err != nil {
			s.onError("push "+field+" counter", err)
		}
	}()
}

func (s *Store) findPhotoLocked(categoryID, photoID string) (models.Photo, error) {
	for _, p := range s.photos[categoryID] {
		if p.ID == photoID {
			return p, nil
		}
	}
	return models.Photo{}, fmt.Errorf("photo %q not found in category %q", photoID, categoryID)
}

func (s *Store) updatePhotoLocked(categoryID, photoID string, mutate func(*models.Photo)) (models.Photo, error) {
	list := s.photos[categoryID]
	for i := range list {
		if list[i].ID == photoID {
			mutate(&list[i])
			return list[i], nil
		}
	}
	return models.Photo{}, fmt.Errorf("photo %q not found in category %q", photoID, categoryID)
}

// Cache accessors.

// Categories returns the cached category list.
func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Photos returns the cached photo list for a category and whether the
// category is known to the cache at all.
func (s *Store) Photos(categoryID string) ([]models.Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.photos[categoryID]
	if !ok {
		return nil, false
	}
	out := make([]models.Photo, len(list))
	copy(out, list)
	return out, true
}

// AllPhotos flattens every cached category list.
func (s *Store) AllPhotos() []models.Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Photo
	for _, c := range s.categories {
		out = append(out, s.photos[c.ID]...)
	}
	return out
}

// IsLoading reports whether a full-category load is in flight.
func (s *Store) IsLoading(categoryID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[categoryID]
}

// IsLoaded reports whether a category's full photo list is cached.
func (s *Store) IsLoaded(categoryID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded[categoryID]
}

// CRUD passthroughs. These mutate only the in-memory cache; callers persist structural
// changes to the backing store separately.

// AddCategory appends a category to the cache.
func (s *Store) AddCategory(category models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, category)
	if _, ok := s.photos[category.ID]; !ok {
		s.photos[category.ID] = []models.Photo{}
	}
}

// RemoveCategory drops a category and its cached photos.
func (s *Store) RemoveCategory(categoryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.categories[:0]
	for _, c := range s.categories {
		if c.ID != categoryID {
			kept = append(kept, c)
		}
	}
	s.categories = kept
	delete(s.photos, categoryID)
	delete(s.loaded, categoryID)
	delete(s.loading, categoryID)
	delete(s.generation, categoryID)
}

// UpdateCategory replaces a cached category's label and tag.
func (s *Store) UpdateCategory(categoryID, label, tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == categoryID {
			s.categories[i].Label = label
			s.categories[i].Tag = tag
			return
		}
	}
}

// AddPhoto appends a photo to a category's cached list.
func (s *Store) AddPhoto(categoryID string, photo models.Photo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos[categoryID] = append(s.photos[categoryID], photo)
}

// RemovePhoto drops a photo from a category's cached list.
func (s *Store) RemovePhoto(categoryID, photoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.photos[categoryID]
	kept := make([]models.Photo, 0, len(list))
	for _, p := range list {
		if p.ID != photoID {
			kept = append(kept, p)
		}
	}
	s.photos[categoryID] = kept
}

// ReorderPhotos rearranges a category's cached list to follow
// orderedIDs; photos not named keep their relative order at the end.
func (s *Store) ReorderPhotos(categoryID string, orderedIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.photos[categoryID]
	byID := make(map[string]models.Photo, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}

	reordered := make([]models.Photo, 0, len(list))
	taken := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if p, ok := byID[id]; ok && !taken[id] {
			reordered = append(reordered, p)
			taken[id] = true
		}
	}
	for _, p := range list {
		if !taken[p.ID] {
			reordered = append(reordered, p)
		}
	}
	s.photos[categoryID] = reordered
}

// SetCoverPhoto moves a photo to the front of its category's list,
// making it the cover.
func (s *Store) SetCoverPhoto(categoryID, photoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.photos[categoryID]
	for i, p := range list {
		if p.ID == photoID {
			if i == 0 {
				return
			}
			moved := make([]models.Photo, 0, len(list))
			moved = append(moved, p)
			moved = append(moved, list[:i]...)
			moved = append(moved, list[i+1:]...)
			s.photos[categoryID] = moved
			return
		}
	}
}
