package proto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/conntest"
)

type failingBus struct {
	after  int
	writes int
}

func (b *failingBus) String() string { return "failing" }

func (b *failingBus) Duplex() conn.Duplex { return conn.Half }

func (b *failingBus) Tx(w, r []byte) error {
	if b.writes >= b.after {
		return errors.New("wire cut")
	}
	b.writes++
	return nil
}

func sizes(ops []conntest.IO) []int {
	out := make([]int, 0, len(ops))
	for _, op := range ops {
		out = append(out, len(op.W))
	}
	return out
}

func TestCodecChunksIterator(t *testing.T) {
	c, err := NewCodec(DefaultChunkSize)
	require.NoError(t, err)

	var i byte
	bus := &conntest.Record{}
	n, err := c.Write(bus, Iter8(200, func() byte { i++; return i }))
	require.NoError(t, err)

	assert.Equal(t, 4, n)
	assert.Equal(t, []int{64, 64, 64, 8}, sizes(bus.Ops))
	assert.Equal(t, byte(1), bus.Ops[0].W[0])
	assert.Equal(t, byte(200), bus.Ops[3].W[7])
}

func TestCodecChunksBytes(t *testing.T) {
	c, err := NewCodec(4)
	require.NoError(t, err)

	bus := &conntest.Record{}
	n, err := c.Write(bus, Bytes(1, 2, 3, 4, 5, 6))
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{1, 2, 3, 4}, bus.Ops[0].W)
	assert.Equal(t, []byte{5, 6}, bus.Ops[1].W)
}

func TestCodecWordOrder(t *testing.T) {
	c, err := NewCodec(DefaultChunkSize)
	require.NoError(t, err)

	bus := &conntest.Record{}
	_, err = c.Write(bus, Iter16BE(2, func() uint16 { return 0x1234 }))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34, 0x12, 0x34}, bus.Ops[0].W)

	bus = &conntest.Record{}
	_, err = c.Write(bus, Iter16LE(1, func() uint16 { return 0x1234 }))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x34, 0x12}, bus.Ops[0].W)

	bus = &conntest.Record{}
	_, err = c.Write(bus, Repeat16BE(3, 0xF800))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF8, 0x00, 0xF8, 0x00, 0xF8, 0x00}, bus.Ops[0].W)
}

func TestCodecConvertsInPlace(t *testing.T) {
	c, err := NewCodec(DefaultChunkSize)
	require.NoError(t, err)

	words := []uint16{0x1234, 0xABCD}
	bus := &conntest.Record{}
	_, err = c.Write(bus, WordsBE(words))
	require.NoError(t, err)

	assert.Equal(t, []byte{0x12, 0x34, 0xAB, 0xCD}, bus.Ops[0].W)
	// the slice now holds big-endian words in host memory
	if bigEndianHost {
		assert.Equal(t, []uint16{0x1234, 0xABCD}, words)
	} else {
		assert.Equal(t, []uint16{0x3412, 0xCDAB}, words)
	}

	words = []uint16{0x1234}
	bus = &conntest.Record{}
	_, err = c.Write(bus, WordsLE(words))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x34, 0x12}, bus.Ops[0].W)
}

func TestCodecConvertsEvenOnFailure(t *testing.T) {
	c, err := NewCodec(2)
	require.NoError(t, err)

	words := []uint16{0x0102, 0x0304, 0x0506}
	_, err = c.Write(&failingBus{after: 0}, WordsBE(words))
	require.Error(t, err)

	if !bigEndianHost {
		assert.Equal(t, []uint16{0x0201, 0x0403, 0x0605}, words)
	}
}

func TestCodecBusFailureAborts(t *testing.T) {
	c, err := NewCodec(4)
	require.NoError(t, err)

	bus := &failingBus{after: 2}
	n, err := c.Write(bus, Bytes(make([]byte, 20)...))

	assert.Equal(t, 2, n)
	assert.True(t, errors.Is(err, ErrBusWrite))
	assert.False(t, errors.Is(err, ErrSelectLine))
	assert.EqualError(t, errors.Unwrap(err), "wire cut")
	assert.Equal(t, 2, bus.writes)
}

func TestCodecRejectsZeroFrame(t *testing.T) {
	c, err := NewCodec(DefaultChunkSize)
	require.NoError(t, err)

	bus := &conntest.Record{}
	_, err = c.Write(bus, Frame{})
	assert.True(t, errors.Is(err, ErrUnsupportedFrame))
	assert.Empty(t, bus.Ops)

	_, err = c.Write(bus, Iter8(3, nil))
	assert.True(t, errors.Is(err, ErrUnsupportedFrame))
}

func TestNewCodecChunkSize(t *testing.T) {
	_, err := NewCodec(63)
	assert.Error(t, err)
	_, err = NewCodec(0)
	assert.Error(t, err)

	c, err := NewCodec(2)
	require.NoError(t, err)
	assert.Equal(t, 2, c.ChunkSize())
}

func TestFrameSize(t *testing.T) {
	assert.Equal(t, 3, Bytes(1, 2, 3).Size())
	assert.Equal(t, 4, Words([]uint16{1, 2}).Size())
	assert.Equal(t, 10, Repeat16BE(5, 0).Size())
	assert.Equal(t, 0, Frame{}.Size())
	assert.Equal(t, "u16be-iter", Repeat16BE(1, 0).Kind().String())
}
