package derive_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mars_poster/internal/derive"
	"mars_poster/internal/domain"
)

func TestBullets(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"whitespace only", "  \n\t\n ", []string{}},
		{"single", "Pool", []string{"Pool"}},
		{"trims and drops blanks", " Pool \n\n  Garden\n", []string{"Pool", "Garden"}},
		{"crlf", "a\r\nb\rc", []string{"a", "b", "c"}},
		{"keeps order beyond three", "1\n2\n3\n4\n5", []string{"1", "2", "3", "4", "5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, derive.Bullets(tt.in)); diff != "" {
				t.Fatalf("Bullets(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestBullets_CountMatchesNonBlankLines(t *testing.T) {
	for k := 0; k < 8; k++ {
		lines := make([]string, 0, 2*k)
		for i := 0; i < k; i++ {
			lines = append(lines, "  point  ", "   ")
		}
		got := derive.Bullets(strings.Join(lines, "\n"))
		if len(got) != k {
			t.Fatalf("k=%d: got %d bullets", k, len(got))
		}
		for _, b := range got {
			if b != "point" {
				t.Fatalf("k=%d: untrimmed bullet %q", k, b)
			}
		}
	}
}

func TestFixedBullets(t *testing.T) {
	d := derive.DefaultBullets
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{d[0], d[1], d[2]}},
		{"blank", " \n ", []string{d[0], d[1], d[2]}},
		{"one", "Pool", []string{"Pool", d[1], d[2]}},
		{"two", "Pool\nGarden", []string{"Pool", "Garden", d[2]}},
		{"three", "a\nb\nc", []string{"a", "b", "c"}},
		{"more than three", "a\nb\nc\nd", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, derive.FixedBullets(tt.in)); diff != "" {
				t.Fatalf("FixedBullets(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestBulletsFor(t *testing.T) {
	if got := derive.BulletsFor(domain.BulletsAsIs, ""); len(got) != 0 {
		t.Fatalf("as_is on empty: %v", got)
	}
	if got := derive.BulletsFor(domain.BulletsFixedThree, ""); len(got) != 3 {
		t.Fatalf("fixed_three on empty: %v", got)
	}
	if got := derive.BulletsFor("", "a\nb"); len(got) != 2 {
		t.Fatalf("unknown policy should behave as as_is: %v", got)
	}
}

func TestSubtitle(t *testing.T) {
	tests := map[string]string{
		"Flat FOR SALE now":    "FOR SALE",
		"Available for Rent":   "FOR RENT",
		"Bank AUCTION listing": "FOR AUCTION",
		"Generic Title":        "AVAILABLE",
		"Sale or Rent":         "FOR SALE",
		"rent by auction":      "FOR RENT",
		"":                     "AVAILABLE",
	}
	for in, want := range tests {
		if got := derive.Subtitle(in); got != want {
			t.Errorf("Subtitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLocationShort(t *testing.T) {
	tests := map[string]string{
		"Chennai, Tamil Nadu":      " @Chennai",
		"":                         "",
		"   ":                      "",
		"  Mumbai   Maharashtra":   " @Mumbai",
		",Pune":                    " @Pune",
		"PERUMBAKKAM,KANCHEEPURAM": " @PERUMBAKKAM",
	}
	for in, want := range tests {
		if got := derive.LocationShort(in); got != want {
			t.Errorf("LocationShort(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLocationParts(t *testing.T) {
	tests := []struct {
		in, city, region string
	}{
		{"Chennai, Tamil Nadu", "Chennai", "(Tamil Nadu)"},
		{"Chennai", "Chennai", ""},
		{"Chennai, ", "Chennai", ""},
		{"", "", ""},
		{"A, B, C", "A", "(B)"},
	}
	for _, tt := range tests {
		city, region := derive.LocationParts(tt.in)
		if city != tt.city || region != tt.region {
			t.Errorf("LocationParts(%q) = (%q, %q), want (%q, %q)", tt.in, city, region, tt.city, tt.region)
		}
	}
}

func TestTitleWord(t *testing.T) {
	tests := map[string]string{
		"Villa For Sale": "Villa",
		"  Villa":        "Villa",
		"":               "",
		"FLAT":           "FLAT",
	}
	for in, want := range tests {
		if got := derive.TitleWord(in); got != want {
			t.Errorf("TitleWord(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"Villa For Sale":    "Villa_For_Sale_poster.png",
		"Villa  For\tSale ": "Villa_For_Sale_poster.png",
		"":                  "poster.png",
		"a/b\\c":            "abc_poster.png",
	}
	for in, want := range tests {
		if got := derive.FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAll_Deterministic(t *testing.T) {
	r := domain.DefaultListing()
	r.Description = "Pool\nGarden"
	first := derive.All(domain.BulletsFixedThree, r)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, derive.All(domain.BulletsFixedThree, r)); diff != "" {
			t.Fatalf("derivation changed on call %d:\n%s", i, diff)
		}
	}
	if first.Subtitle != "FOR SALE" || first.LocationShort != " @PERUMBAKKAM" {
		t.Fatalf("unexpected derived: %+v", first)
	}
	if first.LocationCity != "PERUMBAKKAM" || first.LocationRegion != "(KANCHEEPURAM DISTRICT)" {
		t.Fatalf("unexpected location parts: %+v", first)
	}
}
