package domain

import "time"

// Session is one editing session. It is a value: every edit produces a new
// Session with a bumped Version rather than mutating the stored one.
type Session struct {
	ID        string         `json:"id"`
	LayoutID  LayoutID       `json:"layout_id"`
	Record    ListingRecord  `json:"fields"`
	Image     *UploadedImage `json:"image,omitempty"`
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Derived holds the display tokens computed from a record for one layout.
type Derived struct {
	Bullets        []string `json:"bullets" yaml:"bullets"`
	Subtitle       string   `json:"subtitle" yaml:"subtitle"`
	LocationShort  string   `json:"location_short" yaml:"location_short"`
	LocationCity   string   `json:"location_city" yaml:"location_city"`
	LocationRegion string   `json:"location_region" yaml:"location_region"`
	TitleWord      string   `json:"title_word" yaml:"title_word"`
	FileName       string   `json:"file_name" yaml:"file_name"`
}

// ExportRecord is one row of export history.
type ExportRecord struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	LayoutID   LayoutID  `json:"layout_id"`
	FileName   string    `json:"file_name"`
	Scale      float64   `json:"scale"`
	Bytes      int       `json:"bytes"`
	Rasterizer string    `json:"rasterizer"`
	CacheHit   bool      `json:"cache_hit"`
	CreatedAt  time.Time `json:"created_at"`
}
