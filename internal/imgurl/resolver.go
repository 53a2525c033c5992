package imgurl

import (
	"fmt"
	"net/url"
	"strings"
)

// Origin identifies which image-serving origin a URL belongs to.
type Origin int

const (
	OriginUnknown Origin = iota
	OriginExternal
	OriginManagedStorage
)

// externalMarker identifies the external stock-photo host.
const externalMarker = "images.unsplash.com/"

// Path shapes under which the managed storage serves public objects.
const (
	objectPathFormat = "/object/public/%s/"
	renderPathFormat = "/render/image/public/%s/"
)

var (
	defaultWidths    = []int{640, 1024, 1600}
	defaultQualities = []int{70, 72, 75}
)

// Options controls which width/quality variants Resolve derives.
// Qualities shorter than Widths reuse the last quality for the
// uncovered widths.
type Options struct {
	Widths          []int
	Qualities       []int
	FallbackWidth   int
	FallbackQuality int
}

// Sources is the responsive image descriptor computed for one photo.
// FallbackSrc is always the untransformed input URL so consumers can
// swap to it when a transformed variant fails to load.
type Sources struct {
	Src         string `json:"src"`
	SrcSet      string `json:"src_set,omitempty"`
	FallbackSrc string `json:"fallback_src"`
}

// Resolver derives responsive src/srcset/fallback triples for photo URLs.
// Resolve is a pure function of its inputs; the resolver itself only
// carries the managed-storage layout and the transforms switch.
type Resolver struct {
	storageBase       string
	bucket            string
	transformsEnabled bool
}

// New creates a resolver. storageBase is the public base of the managed
// storage (everything before /object/public/...), bucket the public
// bucket name.
func New(storageBase, bucket string, transformsEnabled bool) *Resolver {
	return &Resolver{
		storageBase:       strings.TrimSuffix(storageBase, "/"),
		bucket:            bucket,
		transformsEnabled: transformsEnabled,
	}
}

// Resolve computes the responsive image descriptor for url. It never
// fails: an empty url yields an empty descriptor, and any URL that
// matches no recognized origin degrades to a passthrough of the
// original URL.
func (r *Resolver) Resolve(rawURL string, opts Options) Sources {
	if rawURL == "" {
		return Sources{}
	}

	widths := opts.Widths
	if len(widths) == 0 {
		widths = defaultWidths
	}
	qualities := opts.Qualities
	if len(qualities) == 0 {
		qualities = defaultQualities
	}
	fallbackWidth := opts.FallbackWidth
	if fallbackWidth == 0 {
		fallbackWidth = widths[len(widths)-1]
	}
	fallbackQuality := opts.FallbackQuality
	if fallbackQuality == 0 {
		fallbackQuality = qualityAt(qualities, len(qualities)-1)
	}

	switch r.Classify(rawURL) {
	case OriginExternal:
		return Sources{
			Src:         buildExternalURL(rawURL, fallbackWidth, fallbackQuality),
			SrcSet:      r.buildSet(rawURL, widths, qualities, buildExternalURL),
			FallbackSrc: rawURL,
		}
	case OriginManagedStorage:
		key, ok := r.ObjectKey(rawURL)
		if !ok || !r.transformsEnabled {
			break
		}
		srcSet := r.buildSet(rawURL, widths, qualities, func(_ string, w, q int) string {
			return r.transformURL(key, w, q)
		})
		return Sources{
			Src:         r.transformURL(key, fallbackWidth, fallbackQuality),
			SrcSet:      srcSet,
			FallbackSrc: rawURL,
		}
	}

	// Unknown origin, transforms disabled, or no recoverable key:
	// serve the original URL untouched.
	return Sources{Src: rawURL, FallbackSrc: rawURL}
}

// Classify returns the origin tag for a URL.
func (r *Resolver) Classify(rawURL string) Origin {
	if strings.Contains(rawURL, externalMarker) {
		return OriginExternal
	}
	if _, ok := r.ObjectKey(rawURL); ok {
		return OriginManagedStorage
	}
	return OriginUnknown
}

// ObjectKey recovers the relative object key from a managed-storage
// public URL, tolerating both the direct and render/transform path
// shapes, mixed case, and percent-encoded paths.
func (r *Resolver) ObjectKey(rawURL string) (string, bool) {
	if r.bucket == "" {
		return "", false
	}

	candidate := rawURL
	if decoded, err := url.PathUnescape(rawURL); err == nil {
		candidate = decoded
	}

	for _, format := range []string{objectPathFormat, renderPathFormat} {
		marker := fmt.Sprintf(format, r.bucket)
		idx := strings.Index(strings.ToLower(candidate), strings.ToLower(marker))
		if idx < 0 {
			continue
		}
		key := candidate[idx+len(marker):]
		if q := strings.IndexByte(key, '?'); q >= 0 {
			key = key[:q]
		}
		if key == "" {
			return "", false
		}
		return key, true
	}
	return "", false
}

func (r *Resolver) transformURL(key string, width, quality int) string {
	return fmt.Sprintf("%s/render/image/public/%s/%s?width=%d&quality=%d",
		r.storageBase, r.bucket, escapeKey(key), width, quality)
}

// escapeKey re-encodes an object key for use in a URL path. ObjectKey
// hands back decoded keys, so segments with spaces or reserved
// characters must be escaped again.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func (r *Resolver) buildSet(rawURL string, widths, qualities []int, build func(string, int, int) string) string {
	entries := make([]string, 0, len(widths))
	for i, w := range widths {
		entries = append(entries, fmt.Sprintf("%s %dw", build(rawURL, w, qualityAt(qualities, i)), w))
	}
	return strings.Join(entries, ", ")
}

// buildExternalURL appends the stock host's crop/quality parameters to
// the URL's path, discarding any query string the stored URL carried.
func buildExternalURL(rawURL string, width, quality int) string {
	base := rawURL
	if q := strings.IndexByte(base, '?'); q >= 0 {
		base = base[:q]
	}
	return fmt.Sprintf("%s?auto=format&fit=crop&w=%d&q=%d", base, width, quality)
}

func qualityAt(qualities []int, idx int) int {
	if len(qualities) == 0 {
		return 75
	}
	if idx >= len(qualities) {
		return qualities[len(qualities)-1]
	}
	return qualities[idx]
}
