package domain

// LayoutID selects one fixed visual arrangement.
type LayoutID int

// BulletPolicy decides how the description becomes bullet points.
type BulletPolicy string

const (
	// BulletsAsIs renders every non-blank description line (0..N).
	BulletsAsIs BulletPolicy = "as_is"
	// BulletsFixedThree always renders three slots, backfilled with defaults.
	BulletsFixedThree BulletPolicy = "fixed_three"
)

// LayoutInfo is the static catalogue entry for a layout.
type LayoutInfo struct {
	ID           LayoutID     `json:"id"`
	Name         string       `json:"name"`
	Preview      string       `json:"preview"`
	Category     string       `json:"type"`
	Features     []string     `json:"features"`
	BulletPolicy BulletPolicy `json:"bullet_policy"`
}
