// Package raster draws composed posters into PNG images without a browser.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"

	"mars_poster/internal/adapters/observability"
	"mars_poster/internal/domain"
)

// AssetLoader resolves the static image paths a poster references.
type AssetLoader interface {
	Load(path string) (image.Image, error)
}

const placeholderFill = "#e5e7eb"

// Native implements domain.Rasterizer with golang.org/x/image.
type Native struct {
	assets AssetLoader
}

func NewNative(a AssetLoader) *Native { return &Native{assets: a} }

func (n *Native) Name() string { return "native" }

// Rasterize draws p at scale times its base size and returns PNG bytes.
func (n *Native) Rasterize(ctx context.Context, p domain.Poster, scale float64) ([]byte, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, domain.ErrBadScale
	}
	if err := loadFonts(); err != nil {
		return nil, err
	}
	r := &renderer{scale: scale, assets: n.assets, faces: newFaceSet()}
	defer r.faces.close()

	w := int(math.Round(p.Width * scale))
	h := int(math.Round(p.Height * scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty poster %dx%d", w, h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(colorOr(p.Background, color.White)), image.Point{}, draw.Src)

	for _, el := range p.Elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.element(dst, el); err != nil {
			return nil, fmt.Errorf("draw %s element: %w", el.Kind, err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	observability.ObserveRender(n.Name(), int(p.LayoutID))
	return buf.Bytes(), nil
}

type renderer struct {
	scale  float64
	assets AssetLoader
	faces  *faceSet
}

func (r *renderer) rect(b domain.Box) image.Rectangle {
	return image.Rect(
		int(math.Round(b.X*r.scale)),
		int(math.Round(b.Y*r.scale)),
		int(math.Round((b.X+b.W)*r.scale)),
		int(math.Round((b.Y+b.H)*r.scale)),
	)
}

func (r *renderer) element(dst *image.RGBA, el domain.Element) error {
	switch el.Kind {
	case domain.KindRect:
		r.fillRect(dst, el)
		r.strokeRect(dst, el)
	case domain.KindText:
		return r.text(dst, el)
	case domain.KindBullets:
		return r.bullets(dst, el)
	case domain.KindImage:
		r.image(dst, el)
		r.strokeRect(dst, el)
	}
	return nil
}

func (r *renderer) fillRect(dst *image.RGBA, el domain.Element) {
	if el.Fill == "" {
		return
	}
	fill(dst, r.rect(el.Box), colorOr(el.Fill, color.Transparent), int(math.Round(el.Radius*r.scale)))
}

func fill(dst *image.RGBA, rc image.Rectangle, c color.Color, radius int) {
	src := image.NewUniform(c)
	if radius <= 0 {
		draw.Draw(dst, rc, src, image.Point{}, draw.Over)
		return
	}
	draw.DrawMask(dst, rc, src, image.Point{}, rounded{r: rc, rad: radius}, rc.Min, draw.Over)
}

func (r *renderer) strokeRect(dst *image.RGBA, el domain.Element) {
	if el.Stroke == "" {
		return
	}
	rc := r.rect(el.Box)
	w := int(math.Max(1, math.Round(r.scale)))
	src := image.NewUniform(colorOr(el.Stroke, color.Black))
	for _, side := range []image.Rectangle{
		image.Rect(rc.Min.X, rc.Min.Y, rc.Max.X, rc.Min.Y+w),
		image.Rect(rc.Min.X, rc.Max.Y-w, rc.Max.X, rc.Max.Y),
		image.Rect(rc.Min.X, rc.Min.Y, rc.Min.X+w, rc.Max.Y),
		image.Rect(rc.Max.X-w, rc.Min.Y, rc.Max.X, rc.Max.Y),
	} {
		draw.Draw(dst, side, src, image.Point{}, draw.Over)
	}
}

func (r *renderer) source(el domain.Element) image.Image {
	if el.Image != nil {
		if el.Image.Img != nil {
			return el.Image.Img
		}
		if img, _, err := image.Decode(bytes.NewReader(el.Image.Data)); err == nil {
			return img
		}
	}
	if el.Placeholder != "" && r.assets != nil {
		img, err := r.assets.Load(el.Placeholder)
		if err == nil {
			return img
		}
		log.Debug().Err(err).Str("asset", el.Placeholder).Msg("placeholder not available")
	}
	return nil
}

func (r *renderer) image(dst *image.RGBA, el domain.Element) {
	rc := r.rect(el.Box)
	radius := int(math.Round(el.Radius * r.scale))
	src := r.source(el)
	if src == nil || rc.Empty() {
		fill(dst, rc, colorOr(placeholderFill, color.Gray{Y: 0xe5}), radius)
		return
	}
	sr := coverRect(src.Bounds(), rc.Dx(), rc.Dy())
	if radius <= 0 {
		xdraw.CatmullRom.Scale(dst, rc, src, sr, xdraw.Over, nil)
		return
	}
	tmp := image.NewRGBA(image.Rect(0, 0, rc.Dx(), rc.Dy()))
	xdraw.CatmullRom.Scale(tmp, tmp.Bounds(), src, sr, xdraw.Src, nil)
	draw.DrawMask(dst, rc, tmp, image.Point{}, rounded{r: rc, rad: radius}, rc.Min, draw.Over)
}

// coverRect crops src to the aspect ratio of a w x h target, centred, so the
// scaled image fills the target without distortion.
func coverRect(src image.Rectangle, w, h int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if w <= 0 || h <= 0 || sw <= 0 || sh <= 0 {
		return src
	}
	if sw*h > sh*w {
		nw := sh * w / h
		x0 := src.Min.X + (sw-nw)/2
		return image.Rect(x0, src.Min.Y, x0+nw, src.Max.Y)
	}
	nh := sw * h / w
	y0 := src.Min.Y + (sh-nh)/2
	return image.Rect(src.Min.X, y0, src.Max.X, y0+nh)
}

// rounded is an alpha mask for a rectangle with circular corners.
type rounded struct {
	r   image.Rectangle
	rad int
}

func (m rounded) ColorModel() color.Model { return color.AlphaModel }
func (m rounded) Bounds() image.Rectangle { return m.r }

func (m rounded) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(m.r) {
		return color.Alpha{}
	}
	rad := m.rad
	if half := min(m.r.Dx(), m.r.Dy()) / 2; rad > half {
		rad = half
	}
	cx, cy := x, y
	switch {
	case x < m.r.Min.X+rad:
		cx = m.r.Min.X + rad
	case x >= m.r.Max.X-rad:
		cx = m.r.Max.X - rad - 1
	}
	switch {
	case y < m.r.Min.Y+rad:
		cy = m.r.Min.Y + rad
	case y >= m.r.Max.Y-rad:
		cy = m.r.Max.Y - rad - 1
	}
	dx, dy := x-cx, y-cy
	if dx*dx+dy*dy > rad*rad {
		return color.Alpha{}
	}
	return color.Alpha{A: 0xff}
}
