package domain

import (
	"encoding/base64"
	"image"
)

// UploadedImage is a user photo held for the lifetime of one session.
type UploadedImage struct {
	MIME   string      `json:"mime"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Digest string      `json:"digest"`
	Data   []byte      `json:"-"`
	Img    image.Image `json:"-"`
}

// DataURL encodes the image the way a browser FileReader would.
func (u *UploadedImage) DataURL() string {
	if u == nil || len(u.Data) == 0 {
		return ""
	}
	return "data:" + u.MIME + ";base64," + base64.StdEncoding.EncodeToString(u.Data)
}
