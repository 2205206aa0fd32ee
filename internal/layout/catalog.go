// Package layout holds the poster layout table: the static catalogue entries
// and, per layout, the positioned slots that records are substituted into.
package layout

import "mars_poster/internal/domain"

const (
	Width  = 400
	Height = 600

	LogoPath = "/logo.png"
)

var catalog = []domain.LayoutInfo{
	{
		ID:           1,
		Name:         "Bank Auction Property",
		Preview:      "/images/residential-flat.jpg",
		Category:     "residential",
		Features:     []string{"Property Details", "Contact Info", "Location Map", "Auction Date"},
		BulletPolicy: domain.BulletsAsIs,
	},
	{
		ID:           2,
		Name:         "Villa For Sale",
		Preview:      "/images/villa-img.jpg",
		Category:     "luxury",
		Features:     []string{"High-end Design", "Multiple Photos", "Premium Layout", "Contact Details"},
		BulletPolicy: domain.BulletsFixedThree,
	},
	{
		ID:           3,
		Name:         "Flat For Sale",
		Preview:      "/images/flat.jpg",
		Category:     "apartment",
		Features:     []string{"Modern Layout", "Property Features", "Price Highlight", "Contact Info"},
		BulletPolicy: domain.BulletsFixedThree,
	},
}

// Catalog returns a copy of every layout entry, ordered by ID.
func Catalog() []domain.LayoutInfo {
	out := make([]domain.LayoutInfo, len(catalog))
	for i, l := range catalog {
		l.Features = append([]string(nil), l.Features...)
		out[i] = l
	}
	return out
}

// Lookup finds a layout entry by ID.
func Lookup(id domain.LayoutID) (domain.LayoutInfo, bool) {
	for _, l := range catalog {
		if l.ID == id {
			l.Features = append([]string(nil), l.Features...)
			return l, true
		}
	}
	return domain.LayoutInfo{}, false
}
