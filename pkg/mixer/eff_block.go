package mixer

import (
	"image"
	"math/rand"

	"github.com/samber/lo"
)

// EffectBlock reveals the image in square tiles of size pixels. A size of zero
// picks a random size between 8 and 40 for every run.
func EffectBlock(size int, shuffle bool) Effect {
	return &block{
		size:    size,
		shuffle: shuffle,
	}
}

type block struct {
	size    int
	shuffle bool
}

func (e *block) Name() string {
	return "block"
}

func (e *block) Process(img Image) (<-chan Write, error) {
	r := img.Bounds()

	size := e.size
	if size <= 0 {
		size = rand.Intn(32) + 8
	}

	var ws []Write
	for y := r.Min.Y; y < r.Max.Y; y += size {
		for x := r.Min.X; x < r.Max.X; x += size {
			tile := image.Rect(x, y, x+size, y+size).Intersect(r)
			ws = append(ws, Write{
				At:  tile.Min,
				Img: img.SubImage(tile),
			})
		}
	}

	if e.shuffle {
		ws = lo.Shuffle(ws)
	}

	wc := make(chan Write, len(ws))
	for _, w := range ws {
		wc <- w
	}
	close(wc)

	return wc, nil
}

// EffectWipe reveals the image one band of rows at a time, top to bottom.
func EffectWipe(rows int) Effect {
	return &wipe{rows: rows}
}

type wipe struct {
	rows int
}

func (e *wipe) Name() string {
	return "wipe"
}

func (e *wipe) Process(img Image) (<-chan Write, error) {
	r := img.Bounds()
	rows := lo.Ternary(e.rows > 0, e.rows, 16)

	wc := make(chan Write)
	go func() {
		defer close(wc)
		for y := r.Min.Y; y < r.Max.Y; y += rows {
			band := image.Rect(r.Min.X, y, r.Max.X, y+rows).Intersect(r)
			wc <- Write{At: band.Min, Img: img.SubImage(band)}
		}
	}()

	return wc, nil
}
