package ili9341

import (
	"strings"

	"github.com/pkg/errors"
)

// Memory access control bits.
const (
	madctlMY  = 0x80
	madctlMX  = 0x40
	madctlMV  = 0x20
	madctlBGR = 0x08
)

type Orientation uint8

const (
	Portrait Orientation = iota
	Landscape
	PortraitFlipped
	LandscapeFlipped
)

var orientationNames = []string{"portrait", "landscape", "portrait-flipped", "landscape-flipped"}

func (o Orientation) String() string {
	if int(o) < len(orientationNames) {
		return orientationNames[o]
	}
	return "unknown"
}

// mode returns the MADCTL value for o and whether rows and columns are swapped.
func (o Orientation) mode() (byte, bool) {
	switch o {
	case Landscape:
		return madctlMV | madctlBGR, true
	case PortraitFlipped:
		return madctlMY | madctlBGR, false
	case LandscapeFlipped:
		return madctlMX | madctlMY | madctlMV | madctlBGR, true
	default:
		return madctlMX | madctlBGR, false
	}
}

// dims returns the logical size for a panel whose native (portrait) size is
// w x h.
func (o Orientation) dims(w, h int) (int, int) {
	if _, landscape := o.mode(); landscape {
		return h, w
	}
	return w, h
}

func ParseOrientation(s string) (Orientation, error) {
	for i, name := range orientationNames {
		if strings.EqualFold(s, name) {
			return Orientation(i), nil
		}
	}
	return Portrait, errors.Errorf("unknown orientation %q", s)
}
