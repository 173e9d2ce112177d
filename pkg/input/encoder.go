package input

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
)

type Event uint8

const (
	None Event = iota
	Up
	Down
	Select
)

func (e Event) String() string {
	switch e {
	case Up:
		return "up"
	case Down:
		return "down"
	case Select:
		return "select"
	default:
		return "none"
	}
}

const DefaultCooldown = 300 * time.Millisecond

// Valid quadrature transitions, indexed by previous<<2 | current phase pair.
var transitions = [16]bool{
	false, true, true, false,
	true, false, false, true,
	true, false, false, true,
	false, true, true, false,
}

const (
	histUp   = 0x2B
	histDown = 0x17

	// one open sample followed by eight closed ones
	btnMask    = 0xFE00
	btnPressed = 0xFEFF
)

type Option func(*Encoder)

// WithCooldown sets the minimum time between two accepted presses.
func WithCooldown(d time.Duration) Option {
	return func(e *Encoder) {
		e.cooldown = d
	}
}

// WithReverse swaps Up and Down.
func WithReverse() Option {
	return func(e *Encoder) {
		e.reverse = true
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(e *Encoder) {
		e.clock = c
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Encoder) {
		e.logger = logger
	}
}

// NewEncoder configures clk, dt and sw as pulled-up inputs. sw is active low.
func NewEncoder(clk, dt, sw gpio.PinIn, opts ...Option) (*Encoder, error) {
	e := &Encoder{
		clk:      clk,
		dt:       dt,
		sw:       sw,
		cooldown: DefaultCooldown,
		clock:    clockwork.NewRealClock(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, p := range []gpio.PinIn{clk, dt, sw} {
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Encoder decodes a rotary encoder with a push button. Poll it from a single
// goroutine.
type Encoder struct {
	clk gpio.PinIn
	dt  gpio.PinIn
	sw  gpio.PinIn

	cooldown time.Duration
	reverse  bool
	clock    clockwork.Clock
	logger   *zap.Logger

	seeded    bool
	state     uint8
	hist      uint16
	btn       uint16
	lastPress time.Time
}

// Poll samples the pins once and returns at most one event. A rotation wins
// over a press seen in the same poll; the press is dropped.
func (e *Encoder) Poll() Event {
	var sample uint8
	if e.dt.Read() == gpio.High {
		sample |= 0x02
	}
	if e.clk.Read() == gpio.High {
		sample |= 0x01
	}
	pressed := e.sw.Read() == gpio.Low

	dir := e.rotate(sample)
	press := e.press(pressed)

	switch {
	case dir != None:
		e.logger.With(zap.Stringer("event", dir), zap.Bool("press-dropped", press)).Debug("encoder-rotate")
		return dir
	case press:
		now := e.clock.Now()
		if !e.lastPress.IsZero() && now.Sub(e.lastPress) < e.cooldown {
			e.logger.With(zap.Duration("since", now.Sub(e.lastPress))).Debug("encoder-press-cooldown")
			return None
		}
		e.lastPress = now
		e.logger.Debug("encoder-press")
		return Select
	}

	return None
}

func (e *Encoder) rotate(sample uint8) Event {
	if !e.seeded {
		e.state = sample
		e.seeded = true
		return None
	}

	e.state = (e.state<<2 | sample) & 0x0F
	if !transitions[e.state] {
		return None
	}

	e.hist = e.hist<<4 | uint16(e.state)
	switch e.hist & 0xFF {
	case histUp:
		if e.reverse {
			return Down
		}
		return Up
	case histDown:
		if e.reverse {
			return Up
		}
		return Down
	}

	return None
}

func (e *Encoder) press(pressed bool) bool {
	e.btn = e.btn << 1
	if pressed {
		e.btn |= 1
	}
	e.btn |= btnMask
	return e.btn == btnPressed
}

// Run polls every interval and sends everything but None to out until ctx is
// done.
func (e *Encoder) Run(ctx context.Context, interval time.Duration, out chan<- Event) error {
	ticker := e.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
		}

		ev := e.Poll()
		if ev == None {
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
