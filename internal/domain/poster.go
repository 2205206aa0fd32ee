package domain

// ElementKind is the type of one node in a composed poster.
type ElementKind string

const (
	KindRect    ElementKind = "rect"
	KindText    ElementKind = "text"
	KindImage   ElementKind = "image"
	KindBullets ElementKind = "bullets"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Box is an absolute rectangle in poster base units.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Element is one positioned node. Colours are "#rrggbb" or "#rrggbbaa".
type Element struct {
	Kind        ElementKind    `json:"kind"`
	Box         Box            `json:"box"`
	Fill        string         `json:"fill,omitempty"`
	Stroke      string         `json:"stroke,omitempty"`
	Color       string         `json:"color,omitempty"`
	Text        string         `json:"text,omitempty"`
	Items       []string       `json:"items,omitempty"`
	Marker      string         `json:"marker,omitempty"`
	Size        float64        `json:"size,omitempty"`
	Bold        bool           `json:"bold,omitempty"`
	Italic      bool           `json:"italic,omitempty"`
	Align       Align          `json:"align,omitempty"`
	Radius      float64        `json:"radius,omitempty"`
	Image       *UploadedImage `json:"-"`
	Placeholder string         `json:"placeholder,omitempty"`
}

// Poster is the declarative render tree for one layout and record.
type Poster struct {
	LayoutID   LayoutID  `json:"layout_id"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Background string    `json:"background"`
	Elements   []Element `json:"elements"`
}
