package ili9341

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"scopeui/pkg/bitmap"
	"scopeui/pkg/proto"
)

var _ draw.Image = (*Dev)(nil)

// WritePixel sets one pixel of the framebuffer. Nothing is sent until Flush.
func (d *Dev) WritePixel(x, y uint16, c uint16) error {
	if int(x) >= d.width || int(y) >= d.height {
		return proto.NewError("write pixel", proto.ErrOutOfBounds,
			errors.Errorf("(%d,%d) outside %dx%d", x, y, d.width, d.height))
	}
	d.current[int(y)*d.width+int(x)] = c
	return nil
}

// Pixel returns the framebuffer value at x, y, or 0 outside of it.
func (d *Dev) Pixel(x, y int) uint16 {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return 0
	}
	return d.current[y*d.width+x]
}

// Clear fills the framebuffer with c.
func (d *Dev) Clear(c uint16) {
	for i := range d.current {
		d.current[i] = c
	}
}

func (d *Dev) ColorModel() color.Model {
	return bitmap.Model
}

func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.width, d.height)
}

func (d *Dev) At(x, y int) color.Color {
	return bitmap.Color(d.Pixel(x, y))
}

// Set implements draw.Image. Pixels outside the screen are dropped.
func (d *Dev) Set(x, y int, c color.Color) {
	if x < 0 || y < 0 || x > 0xFFFF || y > 0xFFFF {
		d.logger.With(zap.Int("x", x), zap.Int("y", y)).Debug("pixel-dropped")
		return
	}
	if err := d.WritePixel(uint16(x), uint16(y), uint16(bitmap.FromColor(c))); err != nil {
		d.logger.With(zap.Int("x", x), zap.Int("y", y)).Debug("pixel-dropped")
	}
}

// DrawImage copies img into the framebuffer with its origin at pt.
func (d *Dev) DrawImage(pt image.Point, img image.Image) {
	r := img.Bounds()
	draw.Draw(d, r.Sub(r.Min).Add(pt), img, r.Min, draw.Src)
}

// DrawBitmap writes img with its top-left corner at x, y straight to the
// panel, bypassing Flush. img must fit on the screen.
func (d *Dev) DrawBitmap(x, y uint16, img image.Image) error {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	return d.DrawRaw(x, y, x+uint16(b.Dx()-1), y+uint16(b.Dy()-1), bitmap.Encode(img))
}

// DrawRaw writes data straight to the rectangle x0,y0 to x1,y1 inclusive and
// mirrors it into the framebuffer. data must hold exactly one word per pixel
// and is converted to big-endian in place.
func (d *Dev) DrawRaw(x0, y0, x1, y1 uint16, data []uint16) error {
	if err := d.ready(); err != nil {
		return err
	}
	if x0 > x1 || y0 > y1 || int(x1) >= d.width || int(y1) >= d.height {
		return proto.NewError("draw raw", proto.ErrOutOfBounds,
			errors.Errorf("window (%d,%d)-(%d,%d) outside %dx%d", x0, y0, x1, y1, d.width, d.height))
	}
	w := int(x1-x0) + 1
	if len(data) != w*(int(y1-y0)+1) {
		return errors.Errorf("draw raw: %d words for %dx%d window", len(data), w, int(y1-y0)+1)
	}

	for i, v := range data {
		d.current[(int(y0)+i/w)*d.width+int(x0)+i%w] = v
	}

	if err := d.SetWindow(x0, y0, x1, y1); err != nil {
		return err
	}
	if err := d.command(cmdMemoryWrite); err != nil {
		return err
	}
	if err := d.iface.SendData(proto.WordsBE(data)); err != nil {
		return err
	}

	for y := int(y0); y <= int(y1); y++ {
		row := y * d.width
		copy(d.sent[row+int(x0):row+int(x1)+1], d.current[row+int(x0):row+int(x1)+1])
	}

	return nil
}
