package proto

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3"
)

const DefaultChunkSize = 64

var bigEndianHost = binary.NativeEndian.Uint16([]byte{0x00, 0x01}) == 0x0001

// Codec splits frames into fixed-size bus writes. It owns one chunk buffer
// and is not safe for concurrent use.
type Codec struct {
	buf []byte
}

func NewCodec(chunk int) (*Codec, error) {
	if chunk < 2 || chunk%2 != 0 {
		return nil, errors.Errorf("chunk size must be even and at least 2, got %d", chunk)
	}
	return &Codec{buf: make([]byte, chunk)}, nil
}

func (c *Codec) ChunkSize() int {
	return len(c.buf)
}

// Write delivers f to bus as chunk-sized Tx calls, only the last of which
// may be short. It returns the number of Tx calls made. A failed write aborts
// the remaining chunks; whatever already reached the device stays there.
func (c *Codec) Write(bus conn.Conn, f Frame) (int, error) {
	if !f.valid() {
		return 0, NewError("write", ErrUnsupportedFrame, errors.Errorf("kind %s", f.kind))
	}

	w := chunkWriter{bus: bus, buf: c.buf}

	switch f.kind {
	case U8:
		for off := 0; off < len(f.bytes); off += len(c.buf) {
			end := off + len(c.buf)
			if end > len(f.bytes) {
				end = len(f.bytes)
			}
			if err := w.tx(f.bytes[off:end]); err != nil {
				return w.writes, err
			}
		}
	case U16:
		for _, v := range f.words {
			if err := w.put16(binary.NativeEndian, v); err != nil {
				return w.writes, err
			}
		}
	case U16BE, U16LE:
		swapInPlace(f.words, f.kind == U16BE)
		for _, v := range f.words {
			if err := w.put16(binary.NativeEndian, v); err != nil {
				return w.writes, err
			}
		}
	case U8Iter:
		for i := 0; i < f.n; i++ {
			if err := w.put8(f.next8()); err != nil {
				return w.writes, err
			}
		}
	case U16BEIter:
		for i := 0; i < f.n; i++ {
			if err := w.put16(binary.BigEndian, f.next16()); err != nil {
				return w.writes, err
			}
		}
	case U16LEIter:
		for i := 0; i < f.n; i++ {
			if err := w.put16(binary.LittleEndian, f.next16()); err != nil {
				return w.writes, err
			}
		}
	}

	return w.writes, w.flush()
}

// swapInPlace rewrites words so that their in-memory representation is in
// the requested byte order.
func swapInPlace(words []uint16, bigEndian bool) {
	if bigEndian == bigEndianHost {
		return
	}
	for i, v := range words {
		words[i] = v<<8 | v>>8
	}
}

type chunkWriter struct {
	bus    conn.Conn
	buf    []byte
	n      int
	writes int
}

func (w *chunkWriter) put8(b byte) error {
	w.buf[w.n] = b
	w.n++
	if w.n == len(w.buf) {
		return w.flush()
	}
	return nil
}

func (w *chunkWriter) put16(order binary.ByteOrder, v uint16) error {
	order.PutUint16(w.buf[w.n:], v)
	w.n += 2
	if w.n == len(w.buf) {
		return w.flush()
	}
	return nil
}

func (w *chunkWriter) flush() error {
	if w.n == 0 {
		return nil
	}
	err := w.tx(w.buf[:w.n])
	w.n = 0
	return err
}

func (w *chunkWriter) tx(p []byte) error {
	if err := w.bus.Tx(p, nil); err != nil {
		return NewError(fmt.Sprintf("write chunk %d", w.writes), ErrBusWrite, err)
	}
	w.writes++
	return nil
}
