package mixer

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type canvas struct {
	*image.RGBA
	points []image.Point
	failAt int
}

func newCanvas() *canvas {
	return &canvas{RGBA: image.NewRGBA(image.Rect(0, 0, 64, 48)), failAt: -1}
}

func (c *canvas) DrawBitmap(x, y uint16, img image.Image) error {
	if len(c.points) == c.failAt {
		return errors.New("bus gone")
	}
	pt := image.Pt(int(x), int(y))
	c.points = append(c.points, pt)
	r := img.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c.Set(pt.X+x-r.Min.X, pt.Y+y-r.Min.Y, img.At(x, y))
		}
	}
	return nil
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 0x80, A: 0xFF})
		}
	}
	return img
}

func TestCanvasWithoutEffect(t *testing.T) {
	c := newCanvas()
	src := gradient(64, 48)

	require.NoError(t, NewDrawer(c).Canvas(src))
	assert.Equal(t, []image.Point{{}}, c.points)
	assert.Equal(t, src.Pix, c.Pix)
}

func TestCanvasBlock(t *testing.T) {
	c := newCanvas()
	src := gradient(64, 48)

	d := NewDrawer(c, WithEffect(EffectBlock(16, false)), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, d.Canvas(src))

	assert.Len(t, c.points, 12)
	assert.Equal(t, image.Pt(16, 0), c.points[1])
	assert.Equal(t, image.Pt(0, 16), c.points[4])
	assert.Equal(t, src.Pix, c.Pix)
}

func TestCanvasBlockShuffledCoversImage(t *testing.T) {
	c := newCanvas()
	src := gradient(64, 48)

	require.NoError(t, NewDrawer(c, WithEffect(EffectBlock(20, true))).Canvas(src))
	// 4 columns (20, 20, 20, 4) by 3 rows (20, 20, 8)
	assert.Len(t, c.points, 12)
	assert.Contains(t, c.points, image.Pt(60, 40))
	assert.Equal(t, src.Pix, c.Pix)
}

func TestCanvasWipe(t *testing.T) {
	c := newCanvas()
	src := gradient(64, 48)

	require.NoError(t, NewDrawer(c, WithEffect(EffectWipe(20))).Canvas(src))
	assert.Equal(t, []image.Point{{0, 0}, {0, 20}, {0, 40}}, c.points)
	assert.Equal(t, src.Pix, c.Pix)
}

func TestCanvasDrawFailure(t *testing.T) {
	c := newCanvas()
	c.failAt = 1

	err := NewDrawer(c, WithEffect(EffectWipe(8))).Canvas(gradient(64, 48))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wipe")
	assert.Len(t, c.points, 1)
}
