package compositor

import (
	"fmt"
	"image"
)

// PixelFormat is a packed 24-bit layout for raw frame consumers.
type PixelFormat int

const (
	RGB24 PixelFormat = iota
	BGR24
)

func (p PixelFormat) String() string {
	switch p {
	case RGB24:
		return "rgb24"
	case BGR24:
		return "bgr24"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(p))
}

// Pack drops alpha and writes rows top to bottom, 3 bytes per pixel.
func Pack(img *image.RGBA, format PixelFormat) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			if format == BGR24 {
				out = append(out, row[i+2], row[i+1], row[i])
			} else {
				out = append(out, row[i], row[i+1], row[i+2])
			}
		}
	}
	return out
}
