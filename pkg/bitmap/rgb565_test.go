package bitmap

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromColor(t *testing.T) {
	assert.Equal(t, Red, FromColor(color.RGBA{R: 0xFF, A: 0xFF}))
	assert.Equal(t, Green, FromColor(color.RGBA{G: 0xFF, A: 0xFF}))
	assert.Equal(t, Blue, FromColor(color.RGBA{B: 0xFF, A: 0xFF}))
	assert.Equal(t, White, FromColor(color.White))
	assert.Equal(t, Black, FromColor(color.Black))
	assert.Equal(t, Color(0x1234), FromColor(Color(0x1234)))
}

func TestColorRGBA(t *testing.T) {
	r, g, b, a := White.RGBA()
	assert.Equal(t, []uint32{0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF}, []uint32{r, g, b, a})

	r, g, b, _ = Black.RGBA()
	assert.Equal(t, []uint32{0, 0, 0}, []uint32{r, g, b})

	assert.Equal(t, Red, Model.Convert(Red).(Color))
}

func TestBinarize(t *testing.T) {
	assert.Equal(t, Black, Binarize(Black))
	assert.Equal(t, White, Binarize(Color(0x0001)))
	assert.Equal(t, White, Binarize(Red))
}

func TestEncodeRowMajor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 0, color.White)
	img.Set(0, 1, color.RGBA{R: 0xFF, A: 0xFF})

	assert.Equal(t, []uint16{0x0000, 0xFFFF, 0xF800, 0x0000}, Encode(img))
}
