package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"mars_poster/internal/domain"
	"mars_poster/internal/layout"
)

// Edit sets one listing field.
type Edit struct {
	Field domain.Field `json:"field"`
	Value string       `json:"value"`
}

// Reduce applies e to s and returns the next session state. s is not modified.
func Reduce(s domain.Session, e Edit) (domain.Session, error) {
	rec, err := s.Record.With(e.Field, e.Value)
	if err != nil {
		return s, fmt.Errorf("field %q: %w", e.Field, err)
	}
	s.Record = rec
	s.Version++
	return s, nil
}

// ImageDecoder validates and normalises raw upload bytes.
type ImageDecoder interface {
	Decode(b []byte) (*domain.UploadedImage, error)
}

type EditorService struct {
	store  domain.SessionStore
	fetch  domain.ImageFetcher
	decode ImageDecoder

	// mu serialises read-modify-write cycles so concurrent edits never
	// overwrite each other.
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// NewEditorService builds the editor. fetch may be nil, in which case
// SetImageFromURL is unavailable.
func NewEditorService(store domain.SessionStore, fetch domain.ImageFetcher, decode ImageDecoder) *EditorService {
	return &EditorService{store: store, fetch: fetch, decode: decode, now: time.Now, newID: uuid.NewString}
}

// Open starts a session on layout id with the sample listing.
func (s *EditorService) Open(ctx context.Context, id domain.LayoutID) (domain.Session, error) {
	if _, ok := layout.Lookup(id); !ok {
		return domain.Session{}, fmt.Errorf("layout %d: %w", id, domain.ErrUnknownLayout)
	}
	now := s.now().UTC()
	sess := domain.Session{
		ID:        s.newID(),
		LayoutID:  id,
		Record:    domain.DefaultListing(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Put(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	log.Debug().Str("session", sess.ID).Int("layout", int(id)).Msg("session opened")
	return sess, nil
}

func (s *EditorService) Get(ctx context.Context, id string) (domain.Session, error) {
	return s.store.Get(ctx, id)
}

// update loads session id, applies fn and stores the result.
func (s *EditorService) update(ctx context.Context, id string, fn func(domain.Session) (domain.Session, error)) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	next, err := fn(cur)
	if err != nil {
		return cur, err
	}
	next.UpdatedAt = s.now().UTC()
	if err := s.store.Put(ctx, next); err != nil {
		return cur, err
	}
	return next, nil
}

func (s *EditorService) ApplyEdit(ctx context.Context, id string, e Edit) (domain.Session, error) {
	return s.ApplyEdits(ctx, id, []Edit{e})
}

// ApplyEdits applies every edit or none of them.
func (s *EditorService) ApplyEdits(ctx context.Context, id string, edits []Edit) (domain.Session, error) {
	return s.update(ctx, id, func(cur domain.Session) (domain.Session, error) {
		next := cur
		for _, e := range edits {
			var err error
			if next, err = Reduce(next, e); err != nil {
				return cur, err
			}
		}
		return next, nil
	})
}

func (s *EditorService) SetImage(ctx context.Context, id string, img *domain.UploadedImage) (domain.Session, error) {
	if img == nil {
		return domain.Session{}, domain.ErrBadImage
	}
	return s.update(ctx, id, func(cur domain.Session) (domain.Session, error) {
		cur.Image = img
		cur.Version++
		return cur, nil
	})
}

// SetImageFromURL downloads url and uses it as the session photo.
func (s *EditorService) SetImageFromURL(ctx context.Context, id, url string) (domain.Session, error) {
	if s.fetch == nil {
		return domain.Session{}, fmt.Errorf("image fetch disabled: %w", domain.ErrBadImage)
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return domain.Session{}, err
	}
	b, _, err := s.fetch.FetchImage(ctx, url)
	if err != nil {
		return domain.Session{}, err
	}
	img, err := s.decode.Decode(b)
	if err != nil {
		return domain.Session{}, err
	}
	return s.SetImage(ctx, id, img)
}

func (s *EditorService) ClearImage(ctx context.Context, id string) (domain.Session, error) {
	return s.update(ctx, id, func(cur domain.Session) (domain.Session, error) {
		if cur.Image == nil {
			return cur, nil
		}
		cur.Image = nil
		cur.Version++
		return cur, nil
	})
}

// ChangeLayout switches the template and keeps the record and photo.
func (s *EditorService) ChangeLayout(ctx context.Context, id string, to domain.LayoutID) (domain.Session, error) {
	if _, ok := layout.Lookup(to); !ok {
		return domain.Session{}, fmt.Errorf("layout %d: %w", to, domain.ErrUnknownLayout)
	}
	return s.update(ctx, id, func(cur domain.Session) (domain.Session, error) {
		if cur.LayoutID == to {
			return cur, nil
		}
		cur.LayoutID = to
		cur.Version++
		return cur, nil
	})
}

// Close discards the session along with its photo.
func (s *EditorService) Close(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	log.Debug().Str("session", id).Msg("session closed")
	return nil
}
