package mixer

import (
	"fmt"
	"image"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Canvas writes bitmaps straight to a panel.
type Canvas interface {
	DrawBitmap(x, y uint16, img image.Image) error
}

func NewDrawer(dst Canvas, opts ...Option) *Drawer {
	d := &Drawer{
		dev:    dst,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

type Drawer struct {
	dev    Canvas
	effs   []Effect
	logger *zap.Logger
}

// Canvas draws img with a random effect, one tile at a time.
func (d *Drawer) Canvas(img image.Image) error {
	eff := lo.Sample(d.effs)
	src, ok := img.(Image)
	if eff == nil || !ok {
		return d.dev.DrawBitmap(0, 0, img)
	}

	w, err := eff.Process(src)
	if err != nil {
		return err
	}

	tiles := 0
	for w2 := range w {
		if err := d.dev.DrawBitmap(uint16(w2.At.X), uint16(w2.At.Y), w2.Img); err != nil {
			for range w {
			}
			return fmt.Errorf("draw %s tile failed: %w", eff.Name(), err)
		}
		tiles++
	}

	d.logger.With(zap.String("effect", eff.Name()), zap.Int("tiles", tiles)).Debug("canvas")
	return nil
}
