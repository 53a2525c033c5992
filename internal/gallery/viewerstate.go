package gallery

import (
	"encoding/json"
	"os"
	"sync"
)

// CounterOverride is the last locally observed counter pair for a
// photo. Merging it with server values (taking the maximum) keeps a
// just-applied optimistic update from being clobbered by a stale read.
type CounterOverride struct {
	Views int `json:"views"`
	Likes int `json:"likes"`
}

// viewerStateFile is the JSON shape persisted on disk.
type viewerStateFile struct {
	Liked    map[string][]string        `json:"liked"`    // category id -> liked photo ids
	Counters map[string]CounterOverride `json:"counters"` // photo id -> last known counters
}

// ViewerState is the per-viewer engagement state: which photos this
// viewer has liked (scoped per category) and the last counter values
// observed locally. Reads and writes are best-effort; a missing or
// corrupt file is treated as empty state.
type ViewerState struct {
	mu       sync.Mutex
	path     string
	liked    map[string]map[string]bool
	counters map[string]CounterOverride
}

// NewViewerState creates viewer state persisted at path and loads
// whatever is already there.
func NewViewerState(path string) *ViewerState {
	s := &ViewerState{
		path:     path,
		liked:    make(map[string]map[string]bool),
		counters: make(map[string]CounterOverride),
	}
	s.load()
	return s
}

func (s *ViewerState) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var file viewerStateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return
	}

	for categoryID, ids := range file.Liked {
		set := make(map[string]bool, len(ids))
		for _, id := range ids {
			set[id] = true
		}
		s.liked[categoryID] = set
	}
	for photoID, override := range file.Counters {
		s.counters[photoID] = override
	}
}

// Save writes the state to disk.
func (s *ViewerState) Save() error {
	s.mu.Lock()
	file := viewerStateFile{
		Liked:    make(map[string][]string, len(s.liked)),
		Counters: make(map[string]CounterOverride, len(s.counters)),
	}
	for categoryID, set := range s.liked {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		file.Liked[categoryID] = ids
	}
	for photoID, override := range s.counters {
		file.Counters[photoID] = override
	}
	s.mu.Unlock()

	data, err := json.Marshal(file)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// IsLiked reports whether this viewer has liked a photo.
func (s *ViewerState) IsLiked(categoryID, photoID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liked[categoryID][photoID]
}

// SetLiked flips a photo's membership in the viewer's liked set.
func (s *ViewerState) SetLiked(categoryID, photoID string, liked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.liked[categoryID]
	if liked {
		if set == nil {
			set = make(map[string]bool)
			s.liked[categoryID] = set
		}
		set[photoID] = true
		return
	}
	delete(set, photoID)
	if len(set) == 0 {
		delete(s.liked, categoryID)
	}
}

// Counters returns the locally cached counter override for a photo.
func (s *ViewerState) Counters(photoID string) (CounterOverride, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	override, ok := s.counters[photoID]
	return override, ok
}

// SetCounters records the latest locally observed counters for a photo.
func (s *ViewerState) SetCounters(photoID string, views, likes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[photoID] = CounterOverride{Views: views, Likes: likes}
}
