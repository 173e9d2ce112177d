package mixer

import "image"

// Write is one tile of an effect, drawn at At.
type Write struct {
	At  image.Point
	Img image.Image
}

type Image interface {
	image.Image
	SubImage(image.Rectangle) image.Image
}

// Effect splits an image into the order its tiles reach the panel.
type Effect interface {
	Name() string
	Process(img Image) (<-chan Write, error)
}
