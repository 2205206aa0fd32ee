package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mars_poster/internal/app"
	"mars_poster/internal/domain"
)

func openVilla(t *testing.T, store *fakeStore) domain.Session {
	t.Helper()
	ed := app.NewEditorService(store, nil, fakeDecoder{})
	s, err := ed.Open(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	s, err = ed.ApplyEdit(context.Background(), s.ID, app.Edit{Field: domain.FieldTitle, Value: "Villa For Sale"})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExport_CacheMissThenHit(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	s := openVilla(t, store)
	r := &fakeRaster{}
	hist := &fakeHistory{}
	ex := app.NewExportService(store, r, &fakeCache{}, hist, 2, time.Hour, 2)

	res, err := ex.Export(ctx, s.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.FileName != "Villa_For_Sale_poster.png" || res.CacheHit || string(res.PNG) != "png:2" {
		t.Fatalf("unexpected first export: %+v", res)
	}

	res2, err := ex.Export(ctx, s.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !res2.CacheHit || string(res2.PNG) != "png:2" {
		t.Fatalf("expected cached export, got %+v", res2)
	}
	if n := r.calls.Load(); n != 1 {
		t.Fatalf("rasterizer called %d times, want 1", n)
	}

	rows, err := ex.History(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Scale != 2 || rows[0].Rasterizer != "fake" || !rows[1].CacheHit {
		t.Fatalf("unexpected history: %+v", rows)
	}
}

func TestExport_ScaleBounds(t *testing.T) {
	ex := app.NewExportService(newFakeStore(), &fakeRaster{}, nil, nil, 1, 0, 2)
	for _, v := range []float64{0.5, 4.5, -1} {
		if _, err := ex.Scale(v); !errors.Is(err, domain.ErrBadScale) {
			t.Fatalf("scale %v: expected ErrBadScale, got %v", v, err)
		}
	}
	if v, err := ex.Scale(0); err != nil || v != 2 {
		t.Fatalf("default scale: %v, %v", v, err)
	}
	if _, err := ex.Export(context.Background(), "missing", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := ex.History(context.Background(), 5); !errors.Is(err, domain.ErrExportDisabled) {
		t.Fatalf("expected ErrExportDisabled, got %v", err)
	}
}

func TestExport_ConcurrentSameSessionShares(t *testing.T) {
	store := newFakeStore()
	s := openVilla(t, store)
	r := &fakeRaster{started: make(chan struct{}, 2), release: make(chan struct{})}
	hist := &fakeHistory{}
	ex := app.NewExportService(store, r, nil, hist, 2, 0, 2)

	var wg sync.WaitGroup
	results := make([]app.ExportResult, 2)
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = ex.Export(context.Background(), s.ID, 2)
	}()
	<-r.started
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = ex.Export(context.Background(), s.ID, 2)
	}()
	time.Sleep(50 * time.Millisecond)
	close(r.release)
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Fatalf("export %d: %v", i, errs[i])
		}
		if string(results[i].PNG) != "png:2" {
			t.Fatalf("export %d: unexpected png %q", i, results[i].PNG)
		}
	}
	if n := r.calls.Load(); n != 1 {
		t.Fatalf("rasterizer called %d times, want 1", n)
	}
	if len(hist.rows) != 1 {
		t.Fatalf("expected one history row, got %d", len(hist.rows))
	}
}

func TestExport_FirstCallerCancelDoesNotFailShared(t *testing.T) {
	store := newFakeStore()
	s := openVilla(t, store)
	r := &fakeRaster{started: make(chan struct{}, 2), release: make(chan struct{})}
	ex := app.NewExportService(store, r, nil, nil, 2, 0, 2)

	first, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var second app.ExportResult
	var secondErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = ex.Export(first, s.ID, 2)
	}()
	<-r.started
	wg.Add(1)
	go func() {
		defer wg.Done()
		second, secondErr = ex.Export(context.Background(), s.ID, 2)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(r.release)
	wg.Wait()

	if secondErr != nil {
		t.Fatalf("joined export failed after first caller left: %v", secondErr)
	}
	if string(second.PNG) != "png:2" {
		t.Fatalf("unexpected png %q", second.PNG)
	}
	if n := r.calls.Load(); n != 1 {
		t.Fatalf("rasterizer called %d times, want 1", n)
	}
}

func TestExport_RasterFailureKeepsSession(t *testing.T) {
	store := newFakeStore()
	s := openVilla(t, store)
	boom := errors.New("boom")
	ex := app.NewExportService(store, &fakeRaster{err: boom}, nil, nil, 1, 0, 2)

	if _, err := ex.Export(context.Background(), s.ID, 1); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped raster error, got %v", err)
	}
	if got, err := store.Get(context.Background(), s.ID); err != nil || got.Version != s.Version {
		t.Fatalf("session changed after failed export: %+v, %v", got, err)
	}
}
