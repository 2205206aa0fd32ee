package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mars_poster/internal/domain"
	"mars_poster/internal/upload"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadJob_YAMLWithImage(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "photo.png", buf.Bytes())
	path := writeFile(t, dir, "villa.yaml", []byte(`layout_id: 2
scale: 3
image: photo.png
fields:
  title: Villa For Sale
  price: 4500000
  description: |
    Pool
    Garden
`))

	j, err := loadJob(path, upload.New(0))
	if err != nil {
		t.Fatal(err)
	}
	if j.layout != 2 || j.scale != 3 || j.record.Title != "Villa For Sale" || j.record.Price != "4500000" {
		t.Fatalf("unexpected job: %+v", j)
	}
	if strings.TrimSpace(j.record.Description) != "Pool\nGarden" {
		t.Fatalf("description: %q", j.record.Description)
	}
	if j.image == nil || j.image.Width != 8 {
		t.Fatalf("image not loaded: %+v", j.image)
	}
	if j.record.Contact != "" {
		t.Fatalf("record should start blank without defaults")
	}
}

func TestLoadJob_JSONDefaultsAndErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "flat.json", []byte(`{"defaults": true, "fields": {"built_up_area": "900 SFT"}}`))
	j, err := loadJob(path, upload.New(0))
	if err != nil {
		t.Fatal(err)
	}
	def := domain.DefaultListing()
	if j.layout != 1 || j.record.BuiltUpArea != "900 SFT" || j.record.Title != def.Title {
		t.Fatalf("unexpected job: %+v", j)
	}

	bad := writeFile(t, dir, "bad.yaml", []byte("fields:\n  colour: red\n"))
	if _, err := loadJob(bad, upload.New(0)); err == nil || !strings.Contains(err.Error(), "colour") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	missing := writeFile(t, dir, "missing.yaml", []byte("image: nope.png\n"))
	if _, err := loadJob(missing, upload.New(0)); err == nil {
		t.Fatalf("expected missing image error")
	}
}

func TestLoadJob_ScalarsKeepSourceText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plot.yaml", []byte(`fields:
  contact: 0123
  plotNumber: 007
  price: 4500000.00
  facing: ~
  description:
    - Corner plot
    - 30 ft road
`))
	j, err := loadJob(path, upload.New(0))
	if err != nil {
		t.Fatal(err)
	}
	if j.record.Contact != "0123" {
		t.Errorf("contact: got %q, want %q", j.record.Contact, "0123")
	}
	if j.record.PlotNumber != "007" {
		t.Errorf("plot number: got %q, want %q", j.record.PlotNumber, "007")
	}
	if j.record.Price != "4500000.00" {
		t.Errorf("price: got %q, want %q", j.record.Price, "4500000.00")
	}
	if j.record.Facing != "" {
		t.Errorf("null facing: got %q", j.record.Facing)
	}
	if j.record.Description != "Corner plot\n30 ft road" {
		t.Errorf("description: got %q", j.record.Description)
	}
}

func TestNames_Claim(t *testing.T) {
	var n names
	got := []string{n.claim("a_poster.png"), n.claim("a_poster.png"), n.claim("b_poster.png"), n.claim("a_poster.png")}
	want := []string{"a_poster.png", "a_poster_2.png", "b_poster.png", "a_poster_3.png"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("claim %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
