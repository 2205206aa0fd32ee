package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"mars_poster/internal/adapters/observability"
	"mars_poster/internal/domain"
	"mars_poster/internal/layout"
)

const (
	MinScale = 1.0
	MaxScale = 4.0

	// sharedRenderTimeout bounds a render that no longer follows any one
	// caller's context.
	sharedRenderTimeout = 2 * time.Minute
)

type ExportResult struct {
	FileName string
	PNG      []byte
	CacheHit bool
	Derived  domain.Derived
}

type ExportService struct {
	store    domain.SessionStore
	raster   domain.Rasterizer
	cache    domain.Cache
	history  domain.ExportLog
	sem      *semaphore.Weighted
	group    singleflight.Group
	cacheTTL time.Duration
	defScale float64
}

// NewExportService wires the export path. cache and history may be nil.
func NewExportService(store domain.SessionStore, r domain.Rasterizer, c domain.Cache, h domain.ExportLog, workers int, ttl time.Duration, defaultScale float64) *ExportService {
	if workers <= 0 {
		workers = 2
	}
	if defaultScale == 0 {
		defaultScale = 2
	}
	return &ExportService{
		store:    store,
		raster:   r,
		cache:    c,
		history:  h,
		sem:      semaphore.NewWeighted(int64(workers)),
		cacheTTL: ttl,
		defScale: defaultScale,
	}
}

// Scale returns the effective scale for a request; 0 means the default.
func (s *ExportService) Scale(v float64) (float64, error) {
	if v == 0 {
		v = s.defScale
	}
	if math.IsNaN(v) || v < MinScale || v > MaxScale {
		return 0, fmt.Errorf("scale %v: %w", v, domain.ErrBadScale)
	}
	return v, nil
}

// Export rasterizes session id. Concurrent exports of the same session state
// share one rasterization.
func (s *ExportService) Export(ctx context.Context, id string, scale float64) (ExportResult, error) {
	sc, err := s.Scale(scale)
	if err != nil {
		return ExportResult{}, err
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return ExportResult{}, err
	}

	key := sess.ID + ":" + strconv.Itoa(sess.Version) + ":" + strconv.FormatFloat(sc, 'f', -1, 64)
	v, err, shared := s.group.Do(key, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedRenderTimeout)
		defer cancel()
		return s.Render(rctx, sess.LayoutID, sess.Record, sess.Image, sc)
	})
	if err != nil {
		return ExportResult{}, err
	}
	res := v.(ExportResult)
	if shared {
		log.Debug().Str("session", id).Msg("export shared with in-flight request")
		return res, nil
	}

	if s.history != nil {
		rec := domain.ExportRecord{
			SessionID:  sess.ID,
			LayoutID:   sess.LayoutID,
			FileName:   res.FileName,
			Scale:      sc,
			Bytes:      len(res.PNG),
			Rasterizer: s.raster.Name(),
			CacheHit:   res.CacheHit,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.history.RecordExport(ctx, rec); err != nil {
			log.Warn().Err(err).Str("session", id).Msg("export history write failed")
		}
	}
	return res, nil
}

// Render rasterizes a record directly. It backs both session exports and the
// batch CLI.
func (s *ExportService) Render(ctx context.Context, layoutID domain.LayoutID, r domain.ListingRecord, img *domain.UploadedImage, scale float64) (ExportResult, error) {
	start := time.Now()
	name := s.raster.Name()

	p, d, err := layout.Compose(layoutID, r, img)
	if err != nil {
		return ExportResult{}, err
	}
	res := ExportResult{FileName: d.FileName, Derived: d}

	key := cacheKey(layoutID, r, img, scale, name)
	if s.cache != nil {
		var b []byte
		if ok, err := s.cache.Get(ctx, key, &b); err == nil && ok && len(b) > 0 {
			res.PNG, res.CacheHit = b, true
			observability.ObserveExport(name, "cached", time.Since(start))
			return res, nil
		}
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return ExportResult{}, err
	}
	png, err := s.raster.Rasterize(ctx, p, scale)
	s.sem.Release(1)
	if err != nil {
		observability.ObserveExport(name, "error", time.Since(start))
		log.Error().Err(err).Str("err_type", observability.LabelErr(err)).
			Int("layout", int(layoutID)).Msg("rasterize failed")
		return ExportResult{}, fmt.Errorf("rasterize: %w", err)
	}
	res.PNG = png

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, png, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Msg("export cache set failed")
		}
	}
	observability.ObserveExport(name, "ok", time.Since(start))
	return res, nil
}

func (s *ExportService) History(ctx context.Context, limit int) ([]domain.ExportRecord, error) {
	if s.history == nil {
		return nil, domain.ErrExportDisabled
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.history.ListExports(ctx, limit)
}

// cacheKey identifies one rendered PNG by everything that affects its pixels.
func cacheKey(id domain.LayoutID, r domain.ListingRecord, img *domain.UploadedImage, scale float64, raster string) string {
	digest := ""
	if img != nil {
		digest = img.Digest
	}
	b, _ := json.Marshal(struct {
		L domain.LayoutID      `json:"l"`
		R domain.ListingRecord `json:"r"`
		I string               `json:"i"`
		S float64              `json:"s"`
		X string               `json:"x"`
	}{id, r, digest, scale, raster})
	sum := sha1.Sum(b)
	return "png:" + hex.EncodeToString(sum[:])
}
