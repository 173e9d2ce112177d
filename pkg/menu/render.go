package menu

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/samber/lo"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"scopeui/pkg/bitmap"
)

const (
	padding   = 4
	titleH    = 24
	rowH      = 18
	baseline  = 14
	indicator = 3
)

var (
	Background = bitmap.Black
	Foreground = bitmap.White
	Highlight  = bitmap.FromColor(color.RGBA{R: 51, G: 255, B: 51, A: 0xFF})
	Heading    = bitmap.FromColor(color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF})
)

var face font.Face = basicfont.Face7x13

// Render draws the current view onto dst, replacing everything in its bounds.
func (m *Menu) Render(dst draw.Image) {
	r := dst.Bounds()
	fill(dst, r, Background)

	text(dst, r.Min.X+padding, r.Min.Y+baseline+padding, m.Title(), Foreground)
	fill(dst, image.Rect(r.Min.X, r.Min.Y+titleH-2, r.Max.X, r.Min.Y+titleH-1), Foreground)

	for i, e := range m.entries() {
		top := r.Min.Y + titleH + i*rowH
		if top+rowH > r.Max.Y {
			break
		}
		row := image.Rect(r.Min.X+padding, top, r.Max.X-padding, top+rowH)

		if e.kind == entryHeading {
			text(dst, row.Min.X+padding, top+baseline, e.title, Heading)
			continue
		}

		selected := i == m.cursor
		ink := lo.Ternary(selected, Background, Foreground)
		if selected {
			fill(dst, row, Highlight)
			if m.locked {
				fill(dst, image.Rect(row.Min.X, row.Min.Y, row.Min.X+indicator, row.Max.Y), Foreground)
			}
		}

		text(dst, row.Min.X+padding, top+baseline, e.title, ink)

		mark := m.marker(e)
		if m.locked && selected {
			mark = "[" + mark + "]"
		}
		w := font.MeasureString(face, mark).Ceil()
		text(dst, row.Max.X-padding-w, top+baseline, mark, ink)
	}
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func text(dst draw.Image, x, y int, s string, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
