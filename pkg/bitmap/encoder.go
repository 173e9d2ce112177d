package bitmap

import (
	"image"
)

// Encode returns the pixels of src as row-major RGB565 words.
func Encode(src image.Image) []uint16 {
	b := src.Bounds()
	out := make([]uint16, 0, b.Dx()*b.Dy())

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, uint16(FromColor(src.At(x, y))))
		}
	}

	return out
}
