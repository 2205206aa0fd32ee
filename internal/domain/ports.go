package domain

import "context"

type SessionStore interface {
	Get(ctx context.Context, id string) (Session, error)
	Put(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Rasterizer turns a composed poster into PNG bytes at the given scale factor.
type Rasterizer interface {
	Name() string
	Rasterize(ctx context.Context, p Poster, scale float64) ([]byte, error)
}

type ExportLog interface {
	RecordExport(ctx context.Context, e ExportRecord) error
	ListExports(ctx context.Context, limit int) ([]ExportRecord, error)
}

// ImageFetcher downloads a remote image; returns body and Content-Type.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, string, error)
}
