package raster

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#dc2626", color.NRGBA{0xdc, 0x26, 0x26, 0xff}, true},
		{"#fff", color.NRGBA{0xff, 0xff, 0xff, 0xff}, true},
		{"#00000080", color.NRGBA{0, 0, 0, 0x80}, true},
		{"red", color.NRGBA{}, false},
		{"", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		got, ok := parseHex(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseHex(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCoverRect(t *testing.T) {
	// wide source into a square target crops the sides
	got := coverRect(image.Rect(0, 0, 200, 100), 50, 50)
	if got != image.Rect(50, 0, 150, 100) {
		t.Fatalf("wide: %v", got)
	}
	// tall source into a wide target crops top and bottom
	got = coverRect(image.Rect(0, 0, 100, 200), 100, 50)
	if got != image.Rect(0, 75, 100, 125) {
		t.Fatalf("tall: %v", got)
	}
}

func TestRoundedMask(t *testing.T) {
	m := rounded{r: image.Rect(0, 0, 20, 20), rad: 6}
	if a := m.At(0, 0).(color.Alpha); a.A != 0 {
		t.Fatalf("corner should be transparent")
	}
	if a := m.At(10, 10).(color.Alpha); a.A != 0xff {
		t.Fatalf("centre should be opaque")
	}
	if a := m.At(25, 10).(color.Alpha); a.A != 0 {
		t.Fatalf("outside should be transparent")
	}
}

func TestWrap(t *testing.T) {
	if err := loadFonts(); err != nil {
		t.Fatal(err)
	}
	face, err := opentype.NewFace(fonts[regular], &opentype.FaceOptions{Size: 12, DPI: 72})
	if err != nil {
		t.Fatal(err)
	}
	defer face.Close()

	s := "PERUMBAKKAM, KANCHEEPURAM DISTRICT, TAMIL NADU, INDIA"
	lines := wrap(face, s, 120)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %q", lines)
	}
	for _, l := range lines {
		if w := font.MeasureString(face, l).Ceil(); w > 120 {
			t.Fatalf("line %q is %dpx wide", l, w)
		}
	}
	if strings.Join(strings.Fields(strings.Join(lines, " ")), " ") != s {
		t.Fatalf("wrapping lost words: %q", lines)
	}

	long := wrap(face, strings.Repeat("W", 60), 50)
	if len(long) < 2 {
		t.Fatalf("long word not split: %q", long)
	}
	if len(wrap(face, " \n ", 100)) != 0 {
		t.Fatalf("blank text should produce no lines")
	}
}
