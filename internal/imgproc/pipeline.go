package imgproc

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"sync"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

// Content types the pipeline can emit.
const (
	ContentTypeWebP = "image/webp"
	ContentTypeJPEG = "image/jpeg"
)

// Compressed is the outcome of a Compress call. Data is never larger
// than the input it was produced from.
type Compressed struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Pipeline downscales and re-encodes photos before upload and produces
// tiny blur-up placeholders. All methods degrade to the original bytes
// (or an empty placeholder) instead of failing: a corrupt file is
// uploaded as-is rather than aborting the admin's batch.
type Pipeline struct {
	maxWidth        int
	quality         float64
	placeholderSize int
	preferWebP      bool

	webpOnce sync.Once
	webpOK   bool
}

// NewPipeline creates a pipeline. quality is in (0,1]; preferWebP
// selects the modern output format when the encoder supports it.
func NewPipeline(maxWidth int, quality float64, placeholderSize int, preferWebP bool) *Pipeline {
	if maxWidth <= 0 {
		maxWidth = 2048
	}
	if quality <= 0 || quality > 1 {
		quality = 0.85
	}
	if placeholderSize <= 0 {
		placeholderSize = 20
	}
	return &Pipeline{
		maxWidth:        maxWidth,
		quality:         quality,
		placeholderSize: placeholderSize,
		preferWebP:      preferWebP,
	}
}

// Compress decodes data, downscales it to at most the configured max
// width (never upscaling), and re-encodes it. The compressed result is
// returned only when it is strictly smaller than the input; otherwise,
// and on any decode failure, the original bytes come back unchanged.
func (p *Pipeline) Compress(data []byte) Compressed {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Compressed{Data: data, ContentType: http.DetectContentType(data)}
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	resized := img
	if width > p.maxWidth {
		height = int(math.Round(float64(height) * float64(p.maxWidth) / float64(width)))
		if height < 1 {
			height = 1
		}
		width = p.maxWidth
		resized = scale(img, width, height)
	}

	encoded, contentType, err := p.encode(resized, p.quality)
	if err != nil || len(encoded) >= len(data) {
		return Compressed{
			Data:        data,
			ContentType: http.DetectContentType(data),
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
		}
	}

	return Compressed{Data: encoded, ContentType: contentType, Width: width, Height: height}
}

// Placeholder produces a tiny downscaled copy of data encoded as a
// data URL, for blur-up display while the full image loads. It returns
// ok=false on empty input or decode failure, never an error.
func (p *Pipeline) Placeholder(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", false
	}

	bounds := img.Bounds()
	ratio := 1.0
	if bounds.Dx() > 0 {
		ratio = float64(bounds.Dy()) / float64(bounds.Dx())
	}
	w := p.placeholderSize
	h := int(math.Round(float64(p.placeholderSize) * ratio))
	if h < 1 {
		h = 1
	}

	encoded, contentType, err := p.encode(scale(img, w, h), 0.6)
	if err != nil {
		return "", false
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(encoded), true
}

// encode re-encodes img, preferring WebP and falling back to JPEG when
// WebP is disabled or unsupported.
func (p *Pipeline) encode(img image.Image, quality float64) ([]byte, string, error) {
	var buf bytes.Buffer
	if p.preferWebP && p.webpSupported() {
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality * 100)}); err == nil {
			return buf.Bytes(), ContentTypeWebP, nil
		}
		buf.Reset()
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: int(quality * 100)}); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), ContentTypeJPEG, nil
}

// webpSupported probes the WebP encoder once per pipeline and caches
// the answer.
func (p *Pipeline) webpSupported() bool {
	p.webpOnce.Do(func() {
		var buf bytes.Buffer
		probe := image.NewRGBA(image.Rect(0, 0, 1, 1))
		p.webpOK = webp.Encode(&buf, probe, &webp.Options{Quality: 80}) == nil
	})
	return p.webpOK
}

func scale(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}
