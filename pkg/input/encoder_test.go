package input

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type rig struct {
	clk, dt, sw *gpiotest.Pin
	clock       clockwork.FakeClock
	enc         *Encoder
}

func newRig(t *testing.T, opts ...Option) *rig {
	r := &rig{
		clk:   &gpiotest.Pin{N: "CLK"},
		dt:    &gpiotest.Pin{N: "DT"},
		sw:    &gpiotest.Pin{N: "SW"},
		clock: clockwork.NewFakeClock(),
	}
	opts = append([]Option{WithClock(r.clock), WithLogger(zaptest.NewLogger(t))}, opts...)

	enc, err := NewEncoder(r.clk, r.dt, r.sw, opts...)
	require.NoError(t, err)
	r.enc = enc

	assert.Equal(t, gpio.PullUp, r.sw.Pull())
	assert.Equal(t, gpio.High, r.sw.Read())
	return r
}

// phases feeds dt<<1|clk samples with the button released.
func (r *rig) phases(samples ...uint8) []Event {
	var out []Event
	for _, s := range samples {
		_ = r.dt.Out(gpio.Level(s&0x02 != 0))
		_ = r.clk.Out(gpio.Level(s&0x01 != 0))
		out = append(out, r.enc.Poll())
	}
	return out
}

// button feeds n polls with the button closed or open and no rotation.
func (r *rig) button(closed bool, n int) []Event {
	var out []Event
	_ = r.sw.Out(gpio.Level(!closed))
	for i := 0; i < n; i++ {
		out = append(out, r.enc.Poll())
	}
	return out
}

func only(events []Event) []Event {
	var out []Event
	for _, e := range events {
		if e != None {
			out = append(out, e)
		}
	}
	return out
}

func TestEncoderCleanDetent(t *testing.T) {
	r := newRig(t)
	assert.Equal(t, []Event{None, None, None, None, Up}, r.phases(3, 1, 0, 2, 3))

	r = newRig(t)
	assert.Equal(t, []Event{None, None, None, None, Down}, r.phases(3, 2, 0, 1, 3))
}

func TestEncoderSlowDetent(t *testing.T) {
	r := newRig(t)
	assert.Equal(t, []Event{Up}, only(r.phases(3, 3, 1, 1, 1, 0, 0, 2, 2, 2, 3, 3, 3)))
}

func TestEncoderConsecutiveDetents(t *testing.T) {
	r := newRig(t)
	assert.Equal(t, []Event{Down, Down}, only(r.phases(3, 2, 0, 1, 3, 2, 0, 1, 3)))
}

func TestEncoderReverse(t *testing.T) {
	r := newRig(t, WithReverse())
	assert.Equal(t, []Event{Down}, only(r.phases(3, 1, 0, 2, 3)))
	assert.Equal(t, []Event{Up}, only(r.phases(2, 0, 1, 3)))
}

func TestEncoderRejectsBounce(t *testing.T) {
	r := newRig(t)
	assert.Empty(t, only(r.phases(3, 1, 3, 1, 3, 1, 3, 2, 3, 2, 3)))
}

func TestEncoderSelect(t *testing.T) {
	r := newRig(t)

	events := r.button(true, 12)
	assert.Equal(t, []Event{Select}, only(events))
	assert.Equal(t, Select, events[7])

	assert.Empty(t, only(r.button(false, 3)))
}

func TestEncoderShortClosureIgnored(t *testing.T) {
	r := newRig(t)

	assert.Empty(t, only(r.button(true, 7)))
	assert.Empty(t, only(r.button(false, 1)))
	assert.Empty(t, only(r.button(true, 7)))
}

func TestEncoderCooldown(t *testing.T) {
	r := newRig(t, WithCooldown(300*time.Millisecond))

	assert.Equal(t, []Event{Select}, only(r.button(true, 8)))
	r.button(false, 2)

	r.clock.Advance(100 * time.Millisecond)
	assert.Empty(t, only(r.button(true, 8)))
	r.button(false, 2)

	r.clock.Advance(250 * time.Millisecond)
	assert.Equal(t, []Event{Select}, only(r.button(true, 8)))
}

func TestEncoderRotationWinsOverPress(t *testing.T) {
	r := newRig(t)

	r.phases(3)
	_ = r.sw.Out(gpio.Low)
	// four closed polls without rotation, the eighth also completes a detent
	for i := 0; i < 4; i++ {
		assert.Equal(t, None, r.enc.Poll())
	}
	assert.Equal(t, []Event{None, None, None, Up}, r.phases(1, 0, 2, 3))

	assert.Empty(t, only(r.button(true, 4)))
}

func TestEncoderRun(t *testing.T) {
	r := newRig(t)
	_ = r.sw.Out(gpio.Low)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan Event)
	done := make(chan error, 1)
	go func() {
		done <- r.enc.Run(ctx, 10*time.Millisecond, out)
	}()
	r.clock.BlockUntil(1)

	var got Event
	deadline := time.After(2 * time.Second)
loop:
	for {
		r.clock.Advance(10 * time.Millisecond)
		select {
		case got = <-out:
			break loop
		case <-deadline:
			t.Fatal("no event")
		case <-time.After(time.Millisecond):
		}
	}
	assert.Equal(t, Select, got)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "up", Up.String())
	assert.Equal(t, "down", Down.String())
	assert.Equal(t, "select", Select.String())
	assert.Equal(t, "none", None.String())
}
