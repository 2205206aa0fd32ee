package layout

import (
	"fmt"
	"strings"

	"mars_poster/internal/derive"
	"mars_poster/internal/domain"
)

const (
	red    = "#dc2626"
	black  = "#000000"
	white  = "#ffffff"
	gray   = "#4b5563"
	border = "#9ca3af"
)

type input struct {
	r domain.ListingRecord
	d domain.Derived
}

// style is the presentational half of a slot.
type style struct {
	fill, stroke, color string
	size                float64
	bold, italic        bool
	align               domain.Align
	radius              float64
	marker              string
}

// slot binds one positioned element to the record. Exactly one of text,
// items or photo/asset is used, depending on kind.
type slot struct {
	kind  domain.ElementKind
	box   domain.Box
	style style
	text  func(input) string
	items func(input) []string
	photo bool   // upload, else the layout preview
	asset string // fixed static asset
}

func lit(s string) func(input) string { return func(input) string { return s } }

// or returns v unless it is empty. Whitespace counts as a value.
func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func box(x, y, w, h float64) domain.Box { return domain.Box{X: x, Y: y, W: w, H: h} }

func rect(b domain.Box, s style) slot { return slot{kind: domain.KindRect, box: b, style: s} }

func text(b domain.Box, s style, f func(input) string) slot {
	return slot{kind: domain.KindText, box: b, style: s, text: f}
}

func bullets(b domain.Box, s style, f func(input) []string) slot {
	return slot{kind: domain.KindBullets, box: b, style: s, items: f}
}

func photo(b domain.Box, s style) slot {
	return slot{kind: domain.KindImage, box: b, style: s, photo: true}
}

func asset(b domain.Box, path string) slot {
	return slot{kind: domain.KindImage, box: b, asset: path}
}

func descBullets(in input) []string { return in.d.Bullets }

type arrangement struct {
	background string
	slots      []slot
}

var table = map[domain.LayoutID]arrangement{
	1: {
		background: white,
		slots: []slot{
			asset(box(16, 12, 48, 48), LogoPath),
			rect(box(220, 22, 164, 26), style{fill: red}),
			text(box(220, 22, 164, 26), style{color: white, size: 10, bold: true, align: domain.AlignCenter}, lit("BANK AUCTION PROPERTIES")),
			photo(box(0, 72, 400, 170), style{}),
			text(box(16, 248, 368, 26), style{color: black, size: 16, bold: true, align: domain.AlignCenter},
				func(in input) string { return "• " + in.r.Title }),
			text(box(16, 280, 368, 14), style{color: black, size: 11, bold: true}, lit("• PROPERTY LOCATION:")),
			text(box(28, 294, 356, 28), style{color: red, size: 11, bold: true},
				func(in input) string { return in.r.Location }),
			text(box(16, 324, 368, 16), style{color: black, size: 11, bold: true},
				func(in input) string { return "• PROPERTY TYPE: " + in.r.PropertyType }),
			text(box(16, 342, 368, 16), style{color: black, size: 11, bold: true},
				func(in input) string {
					return fmt.Sprintf("• PROPERTY AREA: (%s) (%s)", or(in.r.BuiltUpArea, in.r.Area), or(in.r.LandArea, in.r.Area))
				}),
			rect(box(16, 362, 368, 86), style{stroke: border}),
			bullets(box(24, 366, 352, 80), style{color: black, size: 10, bold: true, marker: "•"},
				func(in input) []string {
					return []string{
						or(in.r.ApartmentName, "APARTMENT COMPLEX"),
						"FLAT NO. " + or(in.r.FloorNumber, "S2"),
						or(in.r.Parking, "ONE COVER CAR PARKING"),
						"PLOT NO." + or(in.r.PlotNumber, "3") + ", " + in.r.Location,
					}
				}),
			bullets(box(16, 452, 368, 40), style{color: gray, size: 10, marker: "-"}, descBullets),
			rect(box(16, 496, 368, 30), style{fill: "#fde047", radius: 4}),
			text(box(16, 496, 368, 30), style{color: red, size: 14, bold: true, align: domain.AlignCenter},
				func(in input) string { return "RESERVE PRICE: " + in.r.Price }),
			rect(box(16, 532, 368, 26), style{stroke: "#3b82f6"}),
			text(box(16, 532, 368, 26), style{color: "#2563eb", size: 12, bold: true, align: domain.AlignCenter},
				func(in input) string { return "LAST DATE OF AUCTION: " + in.r.AuctionDate }),
			text(box(16, 562, 368, 32), style{color: red, size: 20, bold: true, align: domain.AlignCenter},
				func(in input) string { return "PH - " + in.r.Contact }),
		},
	},
	2: {
		background: "#fed7aa",
		slots: []slot{
			asset(box(16, 12, 48, 48), LogoPath),
			rect(box(236, 0, 164, 32), style{fill: red}),
			text(box(236, 0, 164, 32), style{color: white, size: 10, bold: true, align: domain.AlignCenter}, lit("BANK AUCTION PROPERTIES")),
			photo(box(0, 72, 400, 190), style{}),
			photo(box(16, 204, 64, 48), style{stroke: white, radius: 4}),
			photo(box(88, 204, 64, 48), style{stroke: white, radius: 4}),
			photo(box(160, 204, 64, 48), style{stroke: white, radius: 4}),
			rect(box(0, 262, 400, 80), style{fill: black}),
			text(box(16, 266, 368, 38), style{color: white, size: 30, bold: true, italic: true},
				func(in input) string { return strings.ToUpper(in.d.TitleWord) }),
			text(box(16, 304, 368, 34), style{color: "#ef4444", size: 24, bold: true, italic: true},
				func(in input) string { return in.d.Subtitle }),
			text(box(16, 352, 180, 46), style{color: black, size: 11},
				func(in input) string { return "LOCATED AT : " + in.r.Location }),
			text(box(16, 400, 180, 32), style{color: black, size: 11, bold: true},
				func(in input) string { return strings.TrimSpace("NEAR " + in.d.LocationCity + " " + in.d.LocationRegion) }),
			text(box(16, 436, 180, 44), style{color: black, size: 16, bold: true},
				func(in input) string { return "PH NO: " + in.r.Contact }),
			rect(box(208, 352, 176, 50), style{fill: red, radius: 4}),
			text(box(208, 354, 176, 16), style{color: white, size: 10, align: domain.AlignCenter}, lit("RESERVE PRICE")),
			text(box(208, 370, 176, 28), style{color: white, size: 15, bold: true, align: domain.AlignCenter},
				func(in input) string { return in.r.Price }),
			bullets(box(208, 408, 176, 108), style{color: black, size: 9, bold: true, marker: "•"},
				func(in input) []string {
					return []string{
						or(in.r.PropertyType, "DUPLEX HOUSE(3 BHK)"),
						"BUA-" + or(in.r.BuiltUpArea, in.r.Area),
						"LAND AREA- " + or(in.r.LandArea, "2138 SFT"),
						or(in.r.Parking, "COVERED CAR PARKING"),
						"FACING - " + or(in.r.Facing, "SOUTH"),
					}
				}),
			bullets(box(16, 520, 368, 70), style{color: "#7c2d12", size: 10, marker: "•"}, descBullets),
		},
	},
	3: {
		background: white,
		slots: []slot{
			rect(box(0, 0, 400, 56), style{fill: red}),
			rect(box(16, 10, 112, 36), style{fill: white, radius: 18}),
			rect(box(26, 18, 20, 20), style{fill: red}),
			text(box(26, 18, 20, 20), style{color: white, size: 12, bold: true, align: domain.AlignCenter}, lit("M")),
			text(box(52, 18, 70, 20), style{color: red, size: 14, bold: true}, lit("MARS")),
			photo(box(0, 56, 200, 220), style{}),
			rect(box(212, 64, 176, 56), style{fill: red, radius: 4}),
			text(box(212, 66, 176, 24), style{color: white, size: 16, bold: true, align: domain.AlignCenter},
				func(in input) string { return strings.ToUpper(in.d.TitleWord) }),
			text(box(212, 92, 176, 26), style{color: white, size: 18, bold: true, align: domain.AlignCenter},
				func(in input) string { return in.d.Subtitle }),
			rect(box(212, 128, 176, 50), style{fill: red}),
			text(box(212, 130, 176, 16), style{color: white, size: 10, align: domain.AlignCenter}, lit("ASKING PRICE")),
			text(box(212, 146, 176, 28), style{color: white, size: 15, bold: true, align: domain.AlignCenter},
				func(in input) string { return in.r.Price }),
			rect(box(212, 186, 4, 46), style{fill: red}),
			text(box(222, 186, 166, 18), style{color: red, size: 11, bold: true}, lit("AUCTION DATE :")),
			text(box(222, 204, 166, 26), style{color: red, size: 14, bold: true},
				func(in input) string { return in.r.AuctionDate }),
			text(box(16, 284, 368, 22), style{color: red, size: 15, bold: true, align: domain.AlignCenter}, lit("LOCATION OF PROPERTY :")),
			text(box(16, 306, 368, 30), style{color: black, size: 11, align: domain.AlignCenter},
				func(in input) string { return in.r.Location }),
			text(box(16, 338, 368, 26), style{color: black, size: 16, bold: true, align: domain.AlignCenter},
				func(in input) string { return "PH NO : " + in.r.Contact }),
			photo(box(16, 372, 176, 60), style{radius: 4}),
			photo(box(16, 440, 176, 60), style{radius: 4}),
			rect(box(208, 372, 176, 128), style{fill: "#fef2f2", radius: 4}),
			text(box(216, 378, 160, 18), style{color: red, size: 12, bold: true}, lit("PROPERTY FEATURES")),
			bullets(box(216, 400, 160, 96), style{color: black, size: 9, bold: true},
				func(in input) []string {
					return []string{
						"BUA : " + or(in.r.BuiltUpArea, in.r.Area),
						"UDS : " + or(in.r.UDS, "689"),
						or(in.r.Parking, "COVERED CAR PARKING"),
						"FACING : " + or(in.r.Facing, "EAST"),
					}
				}),
			bullets(box(16, 508, 368, 56), style{color: gray, size: 10, marker: "•"}, descBullets),
			text(box(16, 568, 368, 24), style{color: gray, size: 9, align: domain.AlignRight}, lit("visit www.marsarcs.com for more !")),
		},
	},
}

// Compose lays record r out on layout id. img replaces the layout's preview
// photo in every photo slot when non-nil.
func Compose(id domain.LayoutID, r domain.ListingRecord, img *domain.UploadedImage) (domain.Poster, domain.Derived, error) {
	info, ok := Lookup(id)
	if !ok {
		return domain.Poster{}, domain.Derived{}, fmt.Errorf("layout %d: %w", id, domain.ErrUnknownLayout)
	}
	arr := table[id]
	in := input{r: r, d: derive.All(info.BulletPolicy, r)}

	p := domain.Poster{
		LayoutID:   id,
		Width:      Width,
		Height:     Height,
		Background: arr.background,
		Elements:   make([]domain.Element, 0, len(arr.slots)),
	}
	for _, s := range arr.slots {
		el := domain.Element{
			Kind:   s.kind,
			Box:    s.box,
			Fill:   s.style.fill,
			Stroke: s.style.stroke,
			Color:  s.style.color,
			Size:   s.style.size,
			Bold:   s.style.bold,
			Italic: s.style.italic,
			Align:  s.style.align,
			Radius: s.style.radius,
			Marker: s.style.marker,
		}
		if el.Align == "" && (s.kind == domain.KindText || s.kind == domain.KindBullets) {
			el.Align = domain.AlignLeft
		}
		switch s.kind {
		case domain.KindText:
			el.Text = s.text(in)
		case domain.KindBullets:
			el.Items = s.items(in)
		case domain.KindImage:
			switch {
			case s.asset != "":
				el.Placeholder = s.asset
			case img != nil:
				el.Image = img
			default:
				el.Placeholder = info.Preview
			}
		}
		p.Elements = append(p.Elements, el)
	}
	return p, in.d, nil
}
