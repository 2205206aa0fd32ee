package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mars_poster/internal/app"
	"mars_poster/internal/derive"
	"mars_poster/internal/domain"
)

func TestPreview_Session(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ed := app.NewEditorService(store, nil, fakeDecoder{})
	pv := app.NewPreviewService(store, nil)

	s, _ := ed.Open(ctx, 2)
	s, _ = ed.ApplyEdits(ctx, s.ID, []app.Edit{
		{Field: domain.FieldTitle, Value: "Villa For Sale"},
		{Field: domain.FieldDescription, Value: "Pool\nGarden"},
	})

	got, err := pv.Preview(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Pool", "Garden", "Ready to move condition"}
	if diff := cmp.Diff(want, got.Derived.Bullets); diff != "" {
		t.Fatalf("bullets mismatch (-want +got):\n%s", diff)
	}
	if got.Derived.Subtitle != "SALE" || got.Derived.FileName != "Villa_For_Sale_poster.png" {
		t.Fatalf("unexpected derived: %+v", got.Derived)
	}
	if got.Layout.ID != 2 || got.Poster.Width != 400 || len(got.Poster.Elements) == 0 {
		t.Fatalf("unexpected layout/poster: %+v", got.Layout)
	}

	html, err := pv.HTML(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), `id="poster"`) {
		t.Fatalf("html lacks poster root")
	}

	if _, err := pv.Preview(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPreview_Derive(t *testing.T) {
	pv := app.NewPreviewService(newFakeStore(), nil)
	r := domain.ListingRecord{Title: "house for rent", Location: "Chennai, Tamil Nadu", Description: "a\n\nb"}

	d, err := pv.Derive(1, r)
	if err != nil {
		t.Fatal(err)
	}
	want := domain.Derived{
		Bullets:        []string{"a", "b"},
		Subtitle:       "RENT",
		LocationShort:  " @Chennai",
		LocationCity:   "Chennai",
		LocationRegion: "(Tamil Nadu)",
		TitleWord:      "house",
		FileName:       derive.FileName(r.Title),
	}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Fatalf("derived mismatch (-want +got):\n%s", diff)
	}

	if _, err := pv.Derive(7, r); !errors.Is(err, domain.ErrUnknownLayout) {
		t.Fatalf("expected ErrUnknownLayout, got %v", err)
	}
	if _, err := pv.Layout(7); !errors.Is(err, domain.ErrUnknownLayout) {
		t.Fatalf("expected ErrUnknownLayout, got %v", err)
	}
	if n := len(pv.Layouts()); n != 3 {
		t.Fatalf("expected 3 layouts, got %d", n)
	}
}
