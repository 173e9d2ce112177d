package bitmap

import (
	"image/color"
)

const (
	Black Color = 0x0000
	White Color = 0xFFFF
	Red   Color = 0xF800
	Green Color = 0x07E0
	Blue  Color = 0x001F
)

// Model converts any color to RGB565.
var Model color.Model = color.ModelFunc(func(c color.Color) color.Color {
	return FromColor(c)
})

// Each pixel is 16 bits, 5 for red, 6 for green and 5 for blue. There is no
// alpha channel.
//
//	bit 76543210  76543210
//	    RRRRRGGG  GGGBBBBB
//	   high byte  low byte
type Color uint16

func FromColor(c color.Color) Color {
	if v, ok := c.(Color); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return toRGB565(r, g, b)
}

// Binarize maps black to black and everything else to white.
func Binarize(c Color) Color {
	if c == Black {
		return Black
	}
	return White
}

// toRGB565 keeps the highest 5 or 6 bits of each 16 bit channel.
func toRGB565(r, g, b uint32) Color {
	return Color((r & 0xF800) +
		((g & 0xFC00) >> 5) +
		((b & 0xF800) >> 11))
}

// RGBA implements the color.Color interface.
func (c Color) RGBA() (r, g, b, a uint32) {
	// The short bit pattern of each channel is repeated to fill 16 bits so
	// that all zeros and all ones map to 0 and 0xFFFF.
	rBits := uint32(c & 0xF800) // RRRRR00000000000
	gBits := uint32(c & 0x7E0)  // 00000GGGGGG00000
	bBits := uint32(c & 0x1F)   // 00000000000BBBBB
	r = rBits | rBits>>5 | rBits>>10 | rBits>>15
	g = gBits<<5 | gBits>>1 | gBits>>7
	b = bBits<<11 | bBits<<6 | bBits<<1 | bBits>>4
	a = 0xFFFF
	return
}
