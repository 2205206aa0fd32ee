package raster

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"mars_poster/internal/domain"
)

type fontStyle int

const (
	regular fontStyle = iota
	bold
	italic
	boldItalic
)

var (
	fontsOnce sync.Once
	fonts     [4]*opentype.Font
	fontsErr  error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		for i, ttf := range [][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF} {
			f, err := opentype.Parse(ttf)
			if err != nil {
				fontsErr = fmt.Errorf("parse font %d: %w", i, err)
				return
			}
			fonts[i] = f
		}
	})
	return fontsErr
}

type faceKey struct {
	style fontStyle
	size  float64
}

// faceSet caches faces for one render. Faces are not safe for concurrent
// use, so every Rasterize call owns its own set.
type faceSet struct {
	m map[faceKey]font.Face
}

func newFaceSet() *faceSet { return &faceSet{m: map[faceKey]font.Face{}} }

func (s *faceSet) get(st fontStyle, size float64) (font.Face, error) {
	k := faceKey{st, size}
	if f, ok := s.m[k]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(fonts[st], &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	s.m[k] = f
	return f, nil
}

func (s *faceSet) close() {
	for _, f := range s.m {
		_ = f.Close()
	}
}

func (r *renderer) face(el domain.Element) (font.Face, error) {
	st := regular
	switch {
	case el.Bold && el.Italic:
		st = boldItalic
	case el.Bold:
		st = bold
	case el.Italic:
		st = italic
	}
	size := el.Size
	if size <= 0 {
		size = 12
	}
	return r.faces.get(st, size*r.scale)
}

func (r *renderer) text(dst *image.RGBA, el domain.Element) error {
	if strings.TrimSpace(el.Text) == "" {
		return nil
	}
	face, err := r.face(el)
	if err != nil {
		return err
	}
	rc := r.rect(el.Box)
	lines := wrap(face, el.Text, rc.Dx())
	drawLines(dst, face, lines, rc, el.Align, colorOr(el.Color, color.Black), true)
	return nil
}

func (r *renderer) bullets(dst *image.RGBA, el domain.Element) error {
	if len(el.Items) == 0 {
		return nil
	}
	face, err := r.face(el)
	if err != nil {
		return err
	}
	rc := r.rect(el.Box)
	var lines []string
	for _, it := range el.Items {
		if el.Marker != "" {
			it = el.Marker + " " + it
		}
		lines = append(lines, wrap(face, it, rc.Dx())...)
	}
	drawLines(dst, face, lines, rc, el.Align, colorOr(el.Color, color.Black), false)
	return nil
}

// drawLines draws lines into rc, clipped to it. When centre is set and the
// block fits, it is centred vertically.
func drawLines(dst *image.RGBA, face font.Face, lines []string, rc image.Rectangle, align domain.Align, c color.Color, centre bool) {
	if len(lines) == 0 || rc.Empty() {
		return
	}
	clip, ok := dst.SubImage(rc).(*image.RGBA)
	if !ok {
		return
	}
	m := face.Metrics()
	lh := m.Height.Ceil()
	if lh <= 0 {
		lh = m.Ascent.Ceil() + m.Descent.Ceil()
	}
	top := rc.Min.Y
	if total := lh * len(lines); centre && total < rc.Dy() {
		top += (rc.Dy() - total) / 2
	}
	d := &font.Drawer{Dst: clip, Src: image.NewUniform(c), Face: face}
	for i, line := range lines {
		w := font.MeasureString(face, line).Ceil()
		x := rc.Min.X
		switch align {
		case domain.AlignCenter:
			x += (rc.Dx() - w) / 2
		case domain.AlignRight:
			x = rc.Max.X - w
		}
		baseline := top + i*lh + m.Ascent.Ceil()
		if baseline-m.Ascent.Ceil() > rc.Max.Y {
			break
		}
		d.Dot = fixed.P(x, baseline)
		d.DrawString(line)
	}
}

// wrap breaks s into lines no wider than width. Explicit newlines are kept;
// a single word wider than width is split between runes.
func wrap(face font.Face, s string, width int) []string {
	if width <= 0 {
		return nil
	}
	limit := fixed.I(width)
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := ""
		for _, w := range words {
			cand := w
			if line != "" {
				cand = line + " " + w
			}
			if font.MeasureString(face, cand) <= limit {
				line = cand
				continue
			}
			if line != "" {
				out = append(out, line)
			}
			line = ""
			for _, piece := range splitWord(face, w, limit) {
				if line != "" {
					out = append(out, line)
				}
				line = piece
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func splitWord(face font.Face, w string, limit fixed.Int26_6) []string {
	if font.MeasureString(face, w) <= limit {
		return []string{w}
	}
	var out []string
	cur := []rune{}
	for _, r := range w {
		next := append(cur, r)
		if len(cur) > 0 && font.MeasureString(face, string(next)) > limit {
			out = append(out, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}
