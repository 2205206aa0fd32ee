package app

import (
	"context"
	"fmt"

	"mars_poster/internal/domain"
	"mars_poster/internal/layout"
)

// Preview is everything a client needs to draw the live poster.
type Preview struct {
	Session domain.Session    `json:"session"`
	Layout  domain.LayoutInfo `json:"layout"`
	Derived domain.Derived    `json:"derived"`
	Poster  domain.Poster     `json:"poster"`
}

type PreviewService struct {
	store   domain.SessionStore
	resolve layout.ResolveFunc
}

// NewPreviewService builds the read side. resolve maps static asset paths for
// the HTML preview; nil leaves them unchanged.
func NewPreviewService(store domain.SessionStore, resolve layout.ResolveFunc) *PreviewService {
	return &PreviewService{store: store, resolve: resolve}
}

func (s *PreviewService) Layouts() []domain.LayoutInfo { return layout.Catalog() }

func (s *PreviewService) Layout(id domain.LayoutID) (domain.LayoutInfo, error) {
	info, ok := layout.Lookup(id)
	if !ok {
		return domain.LayoutInfo{}, fmt.Errorf("layout %d: %w", id, domain.ErrUnknownLayout)
	}
	return info, nil
}

func (s *PreviewService) Preview(ctx context.Context, id string) (Preview, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return Preview{}, err
	}
	p, d, err := layout.Compose(sess.LayoutID, sess.Record, sess.Image)
	if err != nil {
		return Preview{}, err
	}
	info, _ := layout.Lookup(sess.LayoutID)
	return Preview{Session: sess, Layout: info, Derived: d, Poster: p}, nil
}

// HTML renders the session as a standalone document.
func (s *PreviewService) HTML(ctx context.Context, id string) ([]byte, error) {
	pv, err := s.Preview(ctx, id)
	if err != nil {
		return nil, err
	}
	return layout.HTML(pv.Poster, s.resolve)
}

// Derive computes display tokens without a session.
func (s *PreviewService) Derive(id domain.LayoutID, r domain.ListingRecord) (domain.Derived, error) {
	_, d, err := layout.Compose(id, r, nil)
	return d, err
}
