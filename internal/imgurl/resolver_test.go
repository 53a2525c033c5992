package imgurl

import (
	"strings"
	"testing"
)

const (
	storageBase = "https://abc.supabase.co/storage/v1"
	bucket      = "fotos"
)

func newTestResolver(transforms bool) *Resolver {
	return New(storageBase, bucket, transforms)
}

func TestResolveEmptyURL(t *testing.T) {
	got := newTestResolver(true).Resolve("", Options{})
	if got.Src != "" || got.SrcSet != "" || got.FallbackSrc != "" {
		t.Fatalf("expected empty descriptor, got %+v", got)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := newTestResolver(true)
	opts := Options{Widths: []int{640, 1024}, Qualities: []int{70, 75}}
	url := "https://images.unsplash.com/photo-abc?x=1"

	first := r.Resolve(url, opts)
	second := r.Resolve(url, opts)
	if first != second {
		t.Fatalf("resolve not deterministic: %+v vs %+v", first, second)
	}
}

func TestResolveExternalHost(t *testing.T) {
	r := newTestResolver(true)
	url := "https://images.unsplash.com/photo-abc?x=1"
	got := r.Resolve(url, Options{
		Widths:          []int{640, 1024},
		Qualities:       []int{70, 75},
		FallbackWidth:   1024,
		FallbackQuality: 75,
	})

	if !strings.HasSuffix(got.Src, "w=1024&q=75") {
		t.Errorf("src = %q, want suffix w=1024&q=75", got.Src)
	}
	if strings.Contains(got.Src, "x=1") {
		t.Errorf("src %q should drop the original query string", got.Src)
	}
	entries := strings.Split(got.SrcSet, ", ")
	if len(entries) != 2 {
		t.Fatalf("srcSet has %d entries, want 2: %q", len(entries), got.SrcSet)
	}
	if !strings.HasSuffix(entries[0], " 640w") || !strings.HasSuffix(entries[1], " 1024w") {
		t.Errorf("srcSet entries missing width descriptors: %q", got.SrcSet)
	}
	if !strings.Contains(entries[0], "w=640&q=70") {
		t.Errorf("first entry = %q, want w=640&q=70", entries[0])
	}
	if got.FallbackSrc != url {
		t.Errorf("fallbackSrc = %q, want original %q", got.FallbackSrc, url)
	}
}

func TestResolveWidthCoverage(t *testing.T) {
	r := newTestResolver(true)
	widths := []int{320, 640, 1024, 1600}
	got := r.Resolve("https://images.unsplash.com/photo-x", Options{
		Widths:    widths,
		Qualities: []int{70}, // shorter than widths: last quality reused
	})

	entries := strings.Split(got.SrcSet, ", ")
	if len(entries) != len(widths) {
		t.Fatalf("srcSet has %d entries, want %d", len(entries), len(widths))
	}
	for i, w := range widths {
		if !strings.HasSuffix(entries[i], "w") || !strings.Contains(entries[i], "q=70") {
			t.Errorf("entry %d = %q, want width %d at quality 70", i, entries[i], w)
		}
	}
}

func TestResolveManagedStorage(t *testing.T) {
	r := newTestResolver(true)
	url := storageBase + "/object/public/fotos/casamentos/123-456.webp"
	got := r.Resolve(url, Options{Widths: []int{640}, Qualities: []int{70}, FallbackWidth: 1600, FallbackQuality: 75})

	wantSrc := storageBase + "/render/image/public/fotos/casamentos/123-456.webp?width=1600&quality=75"
	if got.Src != wantSrc {
		t.Errorf("src = %q, want %q", got.Src, wantSrc)
	}
	if !strings.Contains(got.SrcSet, "width=640&quality=70") || !strings.HasSuffix(got.SrcSet, " 640w") {
		t.Errorf("srcSet = %q", got.SrcSet)
	}
	if got.FallbackSrc != url {
		t.Errorf("fallbackSrc = %q, want original", got.FallbackSrc)
	}
}

func TestResolveManagedStorageEscapesKey(t *testing.T) {
	r := newTestResolver(true)
	url := storageBase + "/object/public/fotos/cat/a%20b.jpg"
	got := r.Resolve(url, Options{Widths: []int{640}, Qualities: []int{70}, FallbackWidth: 1600, FallbackQuality: 75})

	wantSrc := storageBase + "/render/image/public/fotos/cat/a%20b.jpg?width=1600&quality=75"
	if got.Src != wantSrc {
		t.Errorf("src = %q, want %q", got.Src, wantSrc)
	}
	wantSet := storageBase + "/render/image/public/fotos/cat/a%20b.jpg?width=640&quality=70 640w"
	if got.SrcSet != wantSet {
		t.Errorf("srcSet = %q, want %q", got.SrcSet, wantSet)
	}
}

func TestResolveManagedStorageTransformsDisabled(t *testing.T) {
	r := newTestResolver(false)
	url := storageBase + "/object/public/fotos/casamentos/123.webp"
	got := r.Resolve(url, Options{})

	if got.Src != url || got.SrcSet != "" || got.FallbackSrc != url {
		t.Fatalf("expected passthrough, got %+v", got)
	}
}

func TestResolveUnknownOriginPassthrough(t *testing.T) {
	r := newTestResolver(true)
	url := "https://example.com/some/photo.jpg"
	got := r.Resolve(url, Options{})

	if got.Src != url || got.SrcSet != "" || got.FallbackSrc != url {
		t.Fatalf("expected passthrough, got %+v", got)
	}
}

func TestObjectKeyShapes(t *testing.T) {
	r := newTestResolver(true)

	tests := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{"direct", storageBase + "/object/public/fotos/cat/a.jpg", "cat/a.jpg", true},
		{"render", storageBase + "/render/image/public/fotos/cat/a.jpg?width=640", "cat/a.jpg", true},
		{"mixed case", storageBase + "/Object/Public/fotos/cat/a.jpg", "cat/a.jpg", true},
		{"percent encoded", storageBase + "/object/public/fotos/cat/a%20b.jpg", "cat/a b.jpg", true},
		{"other bucket", storageBase + "/object/public/other/cat/a.jpg", "", false},
		{"empty key", storageBase + "/object/public/fotos/", "", false},
		{"foreign url", "https://example.com/a.jpg", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.ObjectKey(tt.url)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ObjectKey(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	r := newTestResolver(true)

	tests := []struct {
		url  string
		want Origin
	}{
		{"https://images.unsplash.com/photo-abc", OriginExternal},
		{storageBase + "/object/public/fotos/a.jpg", OriginManagedStorage},
		{"https://example.com/a.jpg", OriginUnknown},
		{"", OriginUnknown},
	}
	for _, tt := range tests {
		if got := r.Classify(tt.url); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
