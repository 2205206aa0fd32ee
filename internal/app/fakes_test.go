package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"mars_poster/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	mu sync.Mutex
	m  map[string]domain.Session
}

func newFakeStore() *fakeStore { return &fakeStore{m: map[string]domain.Session{}} }

func (f *fakeStore) Get(ctx context.Context, id string) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.m[id]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return s, nil
}
func (f *fakeStore) Put(ctx context.Context, s domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[s.ID] = s
	return nil
}
func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.m[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.m, id)
	return nil
}

// fakeCache round-trips through JSON like the redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

type fakeRaster struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func (r *fakeRaster) Name() string { return "fake" }
func (r *fakeRaster) Rasterize(ctx context.Context, p domain.Poster, scale float64) ([]byte, error) {
	r.calls.Add(1)
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte("png:" + string(rune('0'+int(p.LayoutID)))), nil
}

type fakeHistory struct {
	mu   sync.Mutex
	rows []domain.ExportRecord
}

func (h *fakeHistory) RecordExport(ctx context.Context, e domain.ExportRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rows = append(h.rows, e)
	return nil
}
func (h *fakeHistory) ListExports(ctx context.Context, limit int) ([]domain.ExportRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.rows) < limit {
		limit = len(h.rows)
	}
	return append([]domain.ExportRecord(nil), h.rows[:limit]...), nil
}

type fakeFetcher struct {
	body []byte
	err  error
	urls []string
}

func (f *fakeFetcher) FetchImage(ctx context.Context, url string) ([]byte, string, error) {
	f.urls = append(f.urls, url)
	return f.body, "image/png", f.err
}

type fakeDecoder struct{}

func (fakeDecoder) Decode(b []byte) (*domain.UploadedImage, error) {
	if len(b) == 0 {
		return nil, domain.ErrBadImage
	}
	return &domain.UploadedImage{MIME: "image/png", Data: b, Digest: string(b), Width: 1, Height: 1}, nil
}
