package ili9341

import (
	"github.com/pkg/errors"
)

// Scroller tracks the hardware vertical scroll position. It is obtained from
// ConfigureVerticalScroll.
type Scroller struct {
	topOffset   uint16
	fixedTop    uint16
	fixedBottom uint16
	height      uint16
}

// Offset is the memory line shown right below the fixed top area.
func (s *Scroller) Offset() uint16 {
	return s.topOffset
}

// ConfigureVerticalScroll splits the panel's long axis into a fixed top
// area, a scrolling area and a fixed bottom area.
func (d *Dev) ConfigureVerticalScroll(fixedTop, fixedBottom uint16) (*Scroller, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}

	// scrolling always runs along the native vertical axis
	height := uint16(d.nativeH)
	if int(fixedTop)+int(fixedBottom) >= int(height) {
		return nil, errors.Errorf("fixed areas %d+%d leave nothing to scroll in %d lines", fixedTop, fixedBottom, height)
	}
	lines := height - fixedTop - fixedBottom

	args := []byte{
		byte(fixedTop >> 8), byte(fixedTop),
		byte(lines >> 8), byte(lines),
		byte(fixedBottom >> 8), byte(fixedBottom),
	}
	if err := d.command(cmdVerticalScrollDefine, args...); err != nil {
		return nil, err
	}

	return &Scroller{
		topOffset:   fixedTop,
		fixedTop:    fixedTop,
		fixedBottom: fixedBottom,
		height:      height,
	}, nil
}

// ScrollVertically moves the scrolling area by n lines, wrapping around
// inside it.
func (d *Dev) ScrollVertically(s *Scroller, n uint16) error {
	if err := d.ready(); err != nil {
		return err
	}

	lines := int(s.height - s.fixedTop - s.fixedBottom)
	offset := int(s.fixedTop) + (int(s.topOffset-s.fixedTop)+int(n))%lines

	if err := d.command(cmdVerticalScrollAddr, byte(offset>>8), byte(offset)); err != nil {
		return err
	}
	s.topOffset = uint16(offset)
	return nil
}
