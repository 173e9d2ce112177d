package virtual

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"scopeui/pkg/bitmap"
)

var ErrInjected = errors.New("injected bus failure")

type OpKind uint8

const (
	OpReset OpKind = iota
	OpDelay
	OpCommand
	OpData
	OpRead
)

func (k OpKind) String() string {
	switch k {
	case OpReset:
		return "reset"
	case OpDelay:
		return "delay"
	case OpCommand:
		return "command"
	case OpData:
		return "data"
	case OpRead:
		return "read"
	default:
		return "unknown"
	}
}

// Op is one thing the panel observed, in order.
type Op struct {
	Kind  OpKind
	Code  byte
	Level gpio.Level
	Delay time.Duration
	Data  []byte
}

func (o Op) String() string {
	switch o.Kind {
	case OpReset:
		return fmt.Sprintf("reset %s", o.Level)
	case OpDelay:
		return fmt.Sprintf("delay %s", o.Delay)
	case OpCommand:
		return fmt.Sprintf("command 0x%02x", o.Code)
	default:
		return fmt.Sprintf("%s 0x%02x %d bytes", o.Kind, o.Code, len(o.Data))
	}
}

// pin is a test pin that tells the panel about every level change.
type pin struct {
	*gpiotest.Pin
	onOut func(gpio.Level)
}

func (p *pin) Out(l gpio.Level) error {
	if err := p.Pin.Out(l); err != nil {
		return err
	}
	if p.onOut != nil {
		p.onOut(l)
	}
	return nil
}

// Mock returns a simulated ILI9341 with a w x h native resolution. It
// implements conn.Conn and decodes commands and pixel data by the level of
// its DC pin, so it can sit behind a real proto.SPI.
func Mock(w, h int, logger *zap.Logger) *Panel {
	p := &Panel{
		logger:    logger,
		nativeW:   w,
		nativeH:   h,
		stride:    lo.Ternary(w > h, w, h),
		failAfter: -1,
		id:        [3]byte{0x00, 0x93, 0x41},
	}
	p.mem = make([]uint16, p.stride*p.stride)
	p.dc = &pin{Pin: &gpiotest.Pin{N: "DC"}}
	p.rst = &pin{Pin: &gpiotest.Pin{N: "RST", L: gpio.High}}
	p.rst.onOut = p.onReset
	p.powerOn()
	return p
}

// Panel keeps its memory in logical column/page coordinates, which is what
// the host addresses after MADCTL is applied.
type Panel struct {
	mu     sync.Mutex
	logger *zap.Logger

	dc  *pin
	rst *pin

	nativeW int
	nativeH int
	stride  int
	mem     []uint16

	madctl      byte
	pixelFormat byte
	sleeping    bool
	displayOn   bool
	inverted    bool
	idle        bool
	brightness  byte

	cmd       byte
	args      []byte
	colStart  int
	colEnd    int
	pageStart int
	pageEnd   int
	col       int
	page      int
	pending   []byte
	writing   bool

	clock      time.Duration
	readyAt    time.Duration
	inReset    bool
	resetAt    time.Duration
	violations []string

	ops       []Op
	txs       []int
	failAfter int
	id        [3]byte
}

var _ conn.Conn = (*Panel)(nil)

func (p *Panel) String() string {
	return fmt.Sprintf("virtual.Panel{%dx%d}", p.nativeW, p.nativeH)
}

func (p *Panel) Duplex() conn.Duplex {
	return conn.Half
}

// DC is the command/data select pin, low for commands.
func (p *Panel) DC() gpio.PinIO {
	return p.dc
}

// RST is the active-low hardware reset pin.
func (p *Panel) RST() gpio.PinIO {
	return p.rst
}

// Sleep records d on the panel's timeline instead of waiting. It can stand in
// for time.Sleep in the driver options.
func (p *Panel) Sleep(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock += d
	p.ops = append(p.ops, Op{Kind: OpDelay, Delay: d})
}

// FailAfter makes every Tx after the next n fail. A negative n disables it.
func (p *Panel) FailAfter(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failAfter = n
}

func (p *Panel) powerOn() {
	for i := range p.mem {
		p.mem[i] = 0
	}
	p.madctl = 0
	p.pixelFormat = 0x66
	p.sleeping = true
	p.displayOn = false
	p.inverted = false
	p.idle = false
	p.brightness = 0
	p.writing = false
	p.pending = nil
	p.colStart, p.colEnd = 0, p.nativeW-1
	p.pageStart, p.pageEnd = 0, p.nativeH-1
}

func (p *Panel) onReset(l gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, Op{Kind: OpReset, Level: l})
	if l == gpio.Low {
		p.inReset = true
		p.resetAt = p.clock
	} else if p.inReset {
		p.inReset = false
		if held := p.clock - p.resetAt; held < 10*time.Microsecond {
			p.violate(fmt.Sprintf("reset held low for %s", held))
		}
	}
	if l == gpio.High {
		p.powerOn()
		p.readyAt = p.clock + 5*time.Millisecond
	}
	p.logger.With(zap.Stringer("level", l)).Debug("virtual-reset")
}

func (p *Panel) Tx(w, r []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failAfter == 0 {
		return ErrInjected
	}
	if p.failAfter > 0 {
		p.failAfter--
	}
	p.txs = append(p.txs, len(w))

	if len(r) > 0 {
		return p.read(r)
	}
	if p.rst.Read() == gpio.Low {
		p.violate("transfer while held in reset")
		return nil
	}

	if p.dc.Read() == gpio.Low {
		for _, b := range w {
			p.command(b)
		}
		return nil
	}
	p.data(w)
	return nil
}

func (p *Panel) violate(msg string) {
	p.violations = append(p.violations, msg)
	p.logger.With(zap.String("violation", msg)).Warn("virtual-protocol")
}

func (p *Panel) command(b byte) {
	if p.clock < p.readyAt {
		p.violate(fmt.Sprintf("command 0x%02x sent %s too early", b, p.readyAt-p.clock))
	}

	p.cmd = b
	p.args = p.args[:0]
	p.writing = false
	p.pending = nil
	p.ops = append(p.ops, Op{Kind: OpCommand, Code: b})

	switch b {
	case 0x01:
		p.powerOn()
		p.readyAt = p.clock + 120*time.Millisecond
	case 0x10:
		p.sleeping = true
	case 0x11:
		p.sleeping = false
		p.readyAt = p.clock + 5*time.Millisecond
	case 0x20:
		p.inverted = false
	case 0x21:
		p.inverted = true
	case 0x28:
		p.displayOn = false
	case 0x29:
		p.displayOn = true
	case 0x2C:
		p.writing = true
		p.col, p.page = p.colStart, p.pageStart
	case 0x38:
		p.idle = false
	case 0x39:
		p.idle = true
	}

	p.logger.With(zap.String("code", fmt.Sprintf("0x%02x", b))).Debug("virtual-command")
}

func (p *Panel) data(w []byte) {
	if n := len(p.ops); n > 0 && p.ops[n-1].Kind == OpData && p.ops[n-1].Code == p.cmd {
		p.ops[n-1].Data = append(p.ops[n-1].Data, w...)
	} else {
		p.ops = append(p.ops, Op{Kind: OpData, Code: p.cmd, Data: append([]byte(nil), w...)})
	}

	if p.writing {
		p.pixels(w)
		return
	}

	p.args = append(p.args, w...)
	switch p.cmd {
	case 0x2A:
		if len(p.args) == 4 {
			p.colStart, p.colEnd = be(p.args[0:]), be(p.args[2:])
		}
	case 0x2B:
		if len(p.args) == 4 {
			p.pageStart, p.pageEnd = be(p.args[0:]), be(p.args[2:])
		}
	case 0x36:
		p.madctl = p.args[0]
	case 0x3A:
		p.pixelFormat = p.args[0]
	case 0x51:
		p.brightness = p.args[0]
	}
}

func be(b []byte) int {
	return int(b[0])<<8 | int(b[1])
}

func (p *Panel) pixels(w []byte) {
	buf := append(p.pending, w...)
	for len(buf) >= 2 {
		p.put(uint16(buf[0])<<8 | uint16(buf[1]))
		buf = buf[2:]
	}
	p.pending = append([]byte(nil), buf...)
}

func (p *Panel) put(v uint16) {
	cols, pages := p.size()
	if p.col < cols && p.page < pages {
		p.mem[p.page*p.stride+p.col] = v
	} else {
		p.violate(fmt.Sprintf("pixel (%d,%d) outside %dx%d", p.col, p.page, cols, pages))
	}

	p.col++
	if p.col > p.colEnd {
		p.col = p.colStart
		p.page++
		if p.page > p.pageEnd {
			p.page = p.pageStart
		}
	}
}

func (p *Panel) read(r []byte) error {
	var src []byte
	switch p.cmd {
	case 0x04:
		src = []byte{0x00, p.id[0], p.id[1], p.id[2]}
	case 0x09:
		src = []byte{p.statusByte(), p.madctl, p.pixelFormat & 0x77, 0x00, 0x00}
	}
	for i := range r {
		r[i] = 0
		if i < len(src) {
			r[i] = src[i]
		}
	}
	p.ops = append(p.ops, Op{Kind: OpRead, Code: p.cmd, Data: append([]byte(nil), r...)})
	return nil
}

func (p *Panel) statusByte() byte {
	var b byte
	if !p.sleeping {
		b |= 0x08
	}
	if p.displayOn {
		b |= 0x04
	}
	return b
}

// Size is the addressable columns and pages under the current MADCTL.
func (p *Panel) Size() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size()
}

func (p *Panel) size() (int, int) {
	if p.madctl&0x20 != 0 {
		return p.nativeH, p.nativeW
	}
	return p.nativeW, p.nativeH
}

// Pixel reads back device memory at column x, page y.
func (p *Panel) Pixel(x, y int) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	cols, pages := p.size()
	if x < 0 || y < 0 || x >= cols || y >= pages {
		return 0
	}
	return p.mem[y*p.stride+x]
}

// Image returns a copy of what the panel currently shows.
func (p *Panel) Image() image.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	cols, pages := p.size()
	img := image.NewRGBA(image.Rect(0, 0, cols, pages))
	for y := 0; y < pages; y++ {
		for x := 0; x < cols; x++ {
			img.Set(x, y, bitmap.Color(p.mem[y*p.stride+x]))
		}
	}
	return img
}

func (p *Panel) Ops() []Op {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Op(nil), p.ops...)
}

// Commands lists every opcode seen, in order.
func (p *Panel) Commands() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []byte
	for _, op := range p.ops {
		if op.Kind == OpCommand {
			out = append(out, op.Code)
		}
	}
	return out
}

// Txs returns the length of every Tx call.
func (p *Panel) Txs() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.txs...)
}

// ResetLog forgets recorded operations and transfers.
func (p *Panel) ResetLog() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = nil
	p.txs = nil
}

func (p *Panel) Violations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.violations...)
}

func (p *Panel) MADCTL() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.madctl
}

func (p *Panel) PixelFormat() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pixelFormat
}

func (p *Panel) Brightness() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.brightness
}

func (p *Panel) Sleeping() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sleeping
}

func (p *Panel) DisplayOn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.displayOn
}

func (p *Panel) Inverted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inverted
}
