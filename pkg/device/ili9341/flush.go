package ili9341

import (
	"time"

	"github.com/inhies/go-bytesize"
	"go.uber.org/zap"

	"scopeui/pkg/bitmap"
	"scopeui/pkg/proto"
)

// Window is an inclusive rectangle.
type Window struct {
	X0, Y0, X1, Y1 int
}

func (w Window) Dx() int {
	return w.X1 - w.X0 + 1
}

func (w Window) Dy() int {
	return w.Y1 - w.Y0 + 1
}

// diffBounds returns the smallest window holding every index where sent and
// current differ. Both buffers are w x h, row-major.
func diffBounds(sent, current []uint16, w, h int) (Window, bool) {
	r := Window{X0: w, Y0: h, X1: -1, Y1: -1}

	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			if sent[row+x] == current[row+x] {
				continue
			}
			if x < r.X0 {
				r.X0 = x
			}
			if x > r.X1 {
				r.X1 = x
			}
			if y < r.Y0 {
				r.Y0 = y
			}
			r.Y1 = y
		}
	}

	return r, r.X1 >= 0
}

// Dirty reports the window the next Flush would send.
func (d *Dev) Dirty() (Window, bool) {
	if d.forceFull {
		return Window{X1: d.width - 1, Y1: d.height - 1}, true
	}
	return diffBounds(d.sent, d.current, d.width, d.height)
}

// Flush sends the bounding box of everything changed since the last
// successful flush. On error the diff base is kept so the next call sends at
// least the same region again.
func (d *Dev) Flush() error {
	if err := d.ready(); err != nil {
		return err
	}

	r, dirty := d.Dirty()
	if !dirty {
		return nil
	}

	words := make([]uint16, 0, r.Dx()*r.Dy())
	for y := r.Y0; y <= r.Y1; y++ {
		row := d.current[y*d.width+r.X0 : y*d.width+r.X1+1]
		if !d.binarize {
			words = append(words, row...)
			continue
		}
		for _, v := range row {
			words = append(words, uint16(bitmap.Binarize(bitmap.Color(v))))
		}
	}

	start := time.Now()
	if err := d.SetWindow(uint16(r.X0), uint16(r.Y0), uint16(r.X1), uint16(r.Y1)); err != nil {
		return err
	}
	if err := d.command(cmdMemoryWrite); err != nil {
		return err
	}
	if err := d.iface.SendData(proto.WordsBE(words)); err != nil {
		return err
	}

	copy(d.sent, d.current)
	d.forceFull = false

	d.logger.With(
		zap.Int("x0", r.X0),
		zap.Int("y0", r.Y0),
		zap.Int("x1", r.X1),
		zap.Int("y1", r.Y1),
		zap.String("size", bytesize.New(float64(2*len(words))).String()),
		zap.String("cost", time.Since(start).String()),
	).Debug("flush")

	return nil
}
