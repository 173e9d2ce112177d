package virtual

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"periph.io/x/conn/v3/gpio"
)

func command(t *testing.T, p *Panel, code byte, args ...byte) {
	require.NoError(t, p.DC().Out(gpio.Low))
	require.NoError(t, p.Tx([]byte{code}, nil))
	if len(args) > 0 {
		require.NoError(t, p.DC().Out(gpio.High))
		require.NoError(t, p.Tx(args, nil))
	}
}

func TestPanelWindowWrite(t *testing.T) {
	p := Mock(4, 3, zaptest.NewLogger(t))

	command(t, p, 0x2A, 0, 1, 0, 2)
	command(t, p, 0x2B, 0, 0, 0, 1)
	command(t, p, 0x2C)

	require.NoError(t, p.DC().Out(gpio.High))
	// one pixel split across two transfers
	require.NoError(t, p.Tx([]byte{0x00, 0x01, 0x00}, nil))
	require.NoError(t, p.Tx([]byte{0x02, 0x00, 0x03, 0x00, 0x04}, nil))

	assert.Equal(t, uint16(1), p.Pixel(1, 0))
	assert.Equal(t, uint16(2), p.Pixel(2, 0))
	assert.Equal(t, uint16(3), p.Pixel(1, 1))
	assert.Equal(t, uint16(4), p.Pixel(2, 1))
	assert.Equal(t, uint16(0), p.Pixel(0, 0))
	assert.Equal(t, []int{1, 4, 1, 4, 1, 3, 5}, p.Txs())
}

func TestPanelRowColumnExchange(t *testing.T) {
	p := Mock(4, 3, zaptest.NewLogger(t))

	w, h := p.Size()
	assert.Equal(t, []int{4, 3}, []int{w, h})

	command(t, p, 0x36, 0x28)
	w, h = p.Size()
	assert.Equal(t, []int{3, 4}, []int{w, h})
	assert.Equal(t, 3, p.Image().Bounds().Dx())
}

func TestPanelTiming(t *testing.T) {
	p := Mock(4, 3, zaptest.NewLogger(t))

	require.NoError(t, p.RST().Out(gpio.Low))
	p.Sleep(10 * time.Microsecond)
	require.NoError(t, p.RST().Out(gpio.High))
	assert.Empty(t, p.Violations())
	command(t, p, 0x01)
	assert.Len(t, p.Violations(), 1)

	p.Sleep(100 * time.Millisecond)
	command(t, p, 0x11)
	assert.Len(t, p.Violations(), 2)

	p.Sleep(125 * time.Millisecond)
	command(t, p, 0x29)
	assert.Len(t, p.Violations(), 2)
	assert.True(t, p.DisplayOn())
	assert.False(t, p.Sleeping())
}

func TestPanelFailAfter(t *testing.T) {
	p := Mock(4, 3, zaptest.NewLogger(t))
	p.FailAfter(1)

	command(t, p, 0x29)
	assert.ErrorIs(t, p.Tx([]byte{0x28}, nil), ErrInjected)
	assert.True(t, p.DisplayOn())
}

func TestPanelRead(t *testing.T) {
	p := Mock(4, 3, zaptest.NewLogger(t))

	command(t, p, 0x04)
	require.NoError(t, p.DC().Out(gpio.High))

	buf := make([]byte, 4)
	require.NoError(t, p.Tx(make([]byte, 4), buf))
	assert.Equal(t, []byte{0x00, 0x00, 0x93, 0x41}, buf)
}

func TestPanelShortResetPulse(t *testing.T) {
	p := Mock(4, 3, zaptest.NewLogger(t))

	require.NoError(t, p.RST().Out(gpio.Low))
	p.Sleep(2 * time.Microsecond)
	require.NoError(t, p.RST().Out(gpio.High))

	require.Len(t, p.Violations(), 1)
	assert.Contains(t, p.Violations()[0], "reset held low for 2µs")

	// a high level without a preceding low is not a pulse
	require.NoError(t, p.RST().Out(gpio.High))
	assert.Len(t, p.Violations(), 1)
}
