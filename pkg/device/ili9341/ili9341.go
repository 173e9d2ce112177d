package ili9341

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"

	"scopeui/pkg/proto"
)

var ErrHalted = errors.New("display halted")

type State uint8

const (
	Uninitialized State = iota
	Resetting
	SoftwareReset
	ConfiguringFormat
	WakingFromSleep
	Ready
	Halted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Resetting:
		return "resetting"
	case SoftwareReset:
		return "software-reset"
	case ConfiguringFormat:
		return "configuring-format"
	case WakingFromSleep:
		return "waking-from-sleep"
	case Ready:
		return "ready"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// Opts configures a Dev. Width and Height are the native portrait size.
type Opts struct {
	Width       int
	Height      int
	Orientation Orientation
	// Binarize sends every non-black pixel as white.
	Binarize bool
	// Sleep is used for the reset timing; it defaults to time.Sleep.
	Sleep func(time.Duration)
}

// DefaultOpts is a 240x320 panel in portrait.
var DefaultOpts = Opts{
	Width:  240,
	Height: 320,
}

// New resets and initializes the panel. Any error is fatal, the returned Dev
// is nil.
func New(iface proto.DataCommand, rst gpio.PinOut, opts *Opts, logger *zap.Logger) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}

	o := *opts
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = DefaultOpts.Width, DefaultOpts.Height
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}

	d := &Dev{
		iface:       iface,
		rst:         rst,
		logger:      logger,
		sleep:       o.Sleep,
		binarize:    o.Binarize,
		nativeW:     o.Width,
		nativeH:     o.Height,
		orientation: o.Orientation,
		current:     make([]uint16, o.Width*o.Height),
		sent:        make([]uint16, o.Width*o.Height),
		forceFull:   true,
	}
	d.width, d.height = o.Orientation.dims(o.Width, o.Height)

	if err := d.init(); err != nil {
		d.logger.With(zap.Stringer("state", d.state), zap.Error(err)).Info("init failed")
		return nil, err
	}

	return d, nil
}

// Dev is an ILI9341 panel. It is not safe for concurrent use.
type Dev struct {
	iface  proto.DataCommand
	rst    gpio.PinOut
	logger *zap.Logger
	sleep  func(time.Duration)

	binarize    bool
	nativeW     int
	nativeH     int
	orientation Orientation
	width       int
	height      int

	current []uint16
	sent    []uint16
	// device RAM is unknown, the next flush sends everything
	forceFull bool

	state State
}

func (d *Dev) init() error {
	d.state = Resetting
	if err := d.rst.Out(gpio.Low); err != nil {
		return proto.NewError("reset low", proto.ErrReset, err)
	}
	d.sleep(10 * time.Microsecond)
	if err := d.rst.Out(gpio.High); err != nil {
		return proto.NewError("reset high", proto.ErrReset, err)
	}
	d.sleep(5 * time.Millisecond)

	d.state = SoftwareReset
	if err := d.command(cmdSoftwareReset); err != nil {
		return err
	}
	d.sleep(120 * time.Millisecond)

	d.state = ConfiguringFormat
	flags, _ := d.orientation.mode()
	if err := d.command(cmdMemoryAccessControl, flags); err != nil {
		return err
	}
	if err := d.command(cmdPixelFormatSet, pixelFormat16); err != nil {
		return err
	}

	d.state = WakingFromSleep
	if err := d.command(cmdSleepModeOff); err != nil {
		return err
	}
	d.sleep(5 * time.Millisecond)
	if err := d.command(cmdDisplayOn); err != nil {
		return err
	}

	d.state = Ready
	d.logger.With(
		zap.Int("width", d.width),
		zap.Int("height", d.height),
		zap.Stringer("orientation", d.orientation),
	).Debug("display-ready")

	return nil
}

func (d *Dev) command(code byte, args ...byte) error {
	if err := d.iface.SendCommands(proto.Bytes(code)); err != nil {
		return err
	}
	if len(args) > 0 {
		return d.iface.SendData(proto.Bytes(args...))
	}
	return nil
}

func (d *Dev) ready() error {
	if d.state != Ready {
		return ErrHalted
	}
	return nil
}

func (d *Dev) toggle(on bool, onCode, offCode byte) error {
	if err := d.ready(); err != nil {
		return err
	}
	if on {
		return d.command(onCode)
	}
	return d.command(offCode)
}

func (d *Dev) State() State {
	return d.state
}

func (d *Dev) Width() int {
	return d.width
}

func (d *Dev) Height() int {
	return d.height
}

func (d *Dev) Orientation() Orientation {
	return d.orientation
}

// SetWindow selects the inclusive rectangle that receives the next memory
// write. Coordinates are not validated.
func (d *Dev) SetWindow(x0, y0, x1, y1 uint16) error {
	if err := d.command(cmdColumnAddressSet, packRange(x0, x1)...); err != nil {
		return err
	}
	return d.command(cmdPageAddressSet, packRange(y0, y1)...)
}

// SetOrientation changes the scan direction. Width and height follow the new
// orientation and the next flush redraws the whole screen; the framebuffer
// is kept as is, callers are expected to render again.
func (d *Dev) SetOrientation(o Orientation) error {
	if err := d.ready(); err != nil {
		return err
	}

	flags, _ := o.mode()
	if err := d.command(cmdMemoryAccessControl, flags); err != nil {
		return err
	}

	d.orientation = o
	d.width, d.height = o.dims(d.nativeW, d.nativeH)
	d.forceFull = true

	d.logger.With(
		zap.Stringer("orientation", o),
		zap.Int("width", d.width),
		zap.Int("height", d.height),
	).Debug("set-orientation")

	return nil
}

func (d *Dev) SleepMode(on bool) error {
	return d.toggle(on, cmdSleepModeOn, cmdSleepModeOff)
}

func (d *Dev) DisplayMode(on bool) error {
	return d.toggle(on, cmdDisplayOn, cmdDisplayOff)
}

func (d *Dev) InvertMode(on bool) error {
	return d.toggle(on, cmdInvertOn, cmdInvertOff)
}

// IdleMode limits the panel to 8 colors.
func (d *Dev) IdleMode(on bool) error {
	return d.toggle(on, cmdIdleModeOn, cmdIdleModeOff)
}

func (d *Dev) Brightness(v uint8) error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.command(cmdSetBrightness, v)
}

func (d *Dev) ContentAdaptiveBrightness(v AdaptiveBrightness) error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.command(cmdAdaptiveBrightness, byte(v))
}

func (d *Dev) NormalModeFrameRate(div ClockDivision, rate FrameRate) error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.command(cmdNormalModeFrameRate, byte(div), byte(rate))
}

func (d *Dev) IdleModeFrameRate(div ClockDivision, rate FrameRate) error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.command(cmdIdleModeFrameRate, byte(div), byte(rate))
}

// ReadID returns the three identification bytes. The interface must support
// reads.
func (d *Dev) ReadID() ([3]byte, error) {
	var id [3]byte
	buf, err := d.read(cmdReadID, 4)
	if err != nil {
		return id, err
	}
	// first byte is a dummy clock cycle
	copy(id[:], buf[1:])
	return id, nil
}

// Status returns the raw display status bytes.
func (d *Dev) Status() ([5]byte, error) {
	var st [5]byte
	buf, err := d.read(cmdStatusInfo, len(st))
	if err != nil {
		return st, err
	}
	copy(st[:], buf)
	return st, nil
}

func (d *Dev) read(code byte, n int) ([]byte, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	rw, ok := d.iface.(proto.ReadWriteDataCommand)
	if !ok {
		return nil, errors.New("interface does not support reads")
	}
	buf := make([]byte, n)
	if err := rw.ReadData(proto.Bytes(code), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Halt turns the display off and puts it to sleep. The Dev can't be used
// afterwards.
func (d *Dev) Halt() error {
	if d.state == Halted {
		return nil
	}
	if err := d.ready(); err != nil {
		return err
	}

	err := d.command(cmdDisplayOff)
	if err == nil {
		err = d.command(cmdSleepModeOn)
	}
	d.state = Halted

	d.logger.With(zap.Error(err)).Debug("display-halted")
	return err
}
