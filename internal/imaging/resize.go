package imaging

import (
	"bytes"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// MaxUploadWidth is the widest image stored as-is. Wider images are
// scaled down before upload to keep listing pages fast.
const MaxUploadWidth = 1600

// Downscale re-encodes images wider than maxWidth at a proportionally
// reduced size. Images at or under the limit are returned unchanged. Data
// that does not decode as an image is also returned unchanged so the
// hosting provider stays the authority on what it accepts.
func Downscale(data []byte, maxWidth int) []byte {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}

	bounds := src.Bounds()
	if bounds.Dx() <= maxWidth {
		return data
	}

	height := bounds.Dy() * maxWidth / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return data
	}
	return buf.Bytes()
}
