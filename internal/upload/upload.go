// Package upload turns user-supplied photo bytes into a session image.
package upload

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"

	"mars_poster/internal/domain"
)

const (
	// MaxEdge bounds the long edge of stored uploads, in pixels.
	MaxEdge = 1600

	// DefaultMaxPixels bounds the decoded size of an upload.
	DefaultMaxPixels = 40_000_000
)

// Decoder reads, validates and normalises uploads.
type Decoder struct {
	MaxBytes  int64
	MaxPixels int
}

func New(maxBytes int64) *Decoder {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Decoder{MaxBytes: maxBytes, MaxPixels: DefaultMaxPixels}
}

// Read consumes r (bounded by MaxBytes) and decodes it.
func (d *Decoder) Read(r io.Reader) (*domain.UploadedImage, error) {
	b, err := io.ReadAll(io.LimitReader(r, d.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return d.Decode(b)
}

// ParseDataURL accepts "data:<mime>;base64,<payload>".
func (d *Decoder) ParseDataURL(s string) (*domain.UploadedImage, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return nil, fmt.Errorf("not a data url: %w", domain.ErrBadImage)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("data url must be base64: %w", domain.ErrBadImage)
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > d.MaxBytes+3 {
		return nil, domain.ErrImageTooLarge
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data url payload: %w", domain.ErrBadImage)
	}
	return d.Decode(b)
}

// Decode validates b as an image and re-encodes it, down-sampled so the
// long edge is at most MaxEdge. Opaque images come back as JPEG, the rest
// as PNG.
func (d *Decoder) Decode(b []byte) (*domain.UploadedImage, error) {
	if int64(len(b)) > d.MaxBytes {
		return nil, domain.ErrImageTooLarge
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("empty upload: %w", domain.ErrBadImage)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadImage)
	}
	maxPx := d.MaxPixels
	if maxPx <= 0 {
		maxPx = DefaultMaxPixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("empty %dx%d image: %w", cfg.Width, cfg.Height, domain.ErrBadImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPx) {
		return nil, fmt.Errorf("%dx%d pixels: %w", cfg.Width, cfg.Height, domain.ErrImageTooLarge)
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadImage)
	}

	if bd := img.Bounds(); bd.Dx() > MaxEdge || bd.Dy() > MaxEdge {
		img = resize.Thumbnail(MaxEdge, MaxEdge, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	mime := "image/png"
	if opaque(img) {
		mime = "image/jpeg"
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("re-encode upload: %w", err)
	}

	sum := sha1.Sum(buf.Bytes())
	return &domain.UploadedImage{
		MIME:   mime,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Digest: hex.EncodeToString(sum[:]),
		Data:   buf.Bytes(),
		Img:    img,
	}, nil
}

func opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
