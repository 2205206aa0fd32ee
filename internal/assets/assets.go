// Package assets resolves the fixed image paths layouts reference
// (logo, per-layout preview photos) against a directory on disk.
package assets

import (
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"

	"mars_poster/internal/domain"
)

// Dir serves and decodes assets under root. An empty root has no assets.
type Dir struct {
	root string

	mu    sync.Mutex
	cache map[string]image.Image
}

func New(root string) *Dir {
	return &Dir{root: root, cache: map[string]image.Image{}}
}

func (d *Dir) file(p string) (string, error) {
	if d == nil || d.root == "" {
		return "", domain.ErrNotFound
	}
	// Clean against "/" so "../" cannot escape root.
	return filepath.Join(d.root, filepath.FromSlash(path.Clean("/"+p))), nil
}

// Load decodes the asset at p, caching the result.
func (d *Dir) Load(p string) (image.Image, error) {
	fp, err := d.file(p)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	img, ok := d.cache[fp]
	d.mu.Unlock()
	if ok {
		return img, nil
	}

	f, err := os.Open(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("asset %s: %w", p, domain.ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()
	img, _, err = image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", p, domain.ErrBadImage)
	}

	d.mu.Lock()
	d.cache[fp] = img
	d.mu.Unlock()
	return img, nil
}

// DataURL inlines the asset at p; "" when it cannot be read.
func (d *Dir) DataURL(p string) string {
	fp, err := d.file(p)
	if err != nil {
		return ""
	}
	b, err := os.ReadFile(fp)
	if err != nil {
		return ""
	}
	mt := mime.TypeByExtension(filepath.Ext(fp))
	if mt == "" {
		mt = http.DetectContentType(b)
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(b)
}

// Handler serves the asset directory over HTTP.
func (d *Dir) Handler() http.Handler {
	if d == nil || d.root == "" {
		return http.NotFoundHandler()
	}
	return http.FileServer(http.Dir(d.root))
}
