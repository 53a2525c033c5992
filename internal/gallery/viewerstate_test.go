package gallery

import (
	"os"
	"path/filepath"
	"testing"
)

func TestViewerStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := NewViewerState(path)
	s.SetLiked("weddings", "w1", true)
	s.SetLiked("maternity", "m2", true)
	s.SetCounters("w1", 12, 4)
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := NewViewerState(path)
	if !reloaded.IsLiked("weddings", "w1") || !reloaded.IsLiked("maternity", "m2") {
		t.Error("liked set lost on reload")
	}
	if reloaded.IsLiked("weddings", "m2") {
		t.Error("liked set leaked across categories")
	}
	override, ok := reloaded.Counters("w1")
	if !ok || override.Views != 12 || override.Likes != 4 {
		t.Errorf("counters = %+v, %v; want 12/4", override, ok)
	}
}

func TestViewerStateUnlikeRemovesMembership(t *testing.T) {
	s := NewViewerState(filepath.Join(t.TempDir(), "state.json"))
	s.SetLiked("weddings", "w1", true)
	s.SetLiked("weddings", "w1", false)

	if s.IsLiked("weddings", "w1") {
		t.Error("photo still liked after unlike")
	}
}

func TestViewerStateCorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewViewerState(path)
	if s.IsLiked("weddings", "w1") {
		t.Error("corrupt state should read as empty")
	}
	if _, ok := s.Counters("w1"); ok {
		t.Error("corrupt state should have no counters")
	}
}

func TestViewerStateMissingFileTreatedAsEmpty(t *testing.T) {
	s := NewViewerState(filepath.Join(t.TempDir(), "nope", "state.json"))
	if s.IsLiked("weddings", "w1") {
		t.Error("missing state should read as empty")
	}
}
