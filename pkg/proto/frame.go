package proto

// Kind tags the payload shape carried by a Frame.
type Kind uint8

const (
	Invalid Kind = iota
	U8
	U16
	U16BE
	U16LE
	U8Iter
	U16BEIter
	U16LEIter
)

func (k Kind) String() string {
	switch k {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U16BE:
		return "u16be"
	case U16LE:
		return "u16le"
	case U8Iter:
		return "u8-iter"
	case U16BEIter:
		return "u16be-iter"
	case U16LEIter:
		return "u16le-iter"
	default:
		return "invalid"
	}
}

// Frame is a payload handed to a DataCommand. Exactly one of the shapes is
// populated, selected by kind. The zero Frame is not a valid payload.
type Frame struct {
	kind   Kind
	bytes  []byte
	words  []uint16
	n      int
	next8  func() byte
	next16 func() uint16
}

// Bytes sends b as is.
func Bytes(b ...byte) Frame {
	return Frame{kind: U8, bytes: b}
}

// Words sends w in host byte order.
func Words(w []uint16) Frame {
	return Frame{kind: U16, words: w}
}

// WordsBE sends w big-endian. The slice is converted in place and must not be
// reused as values afterwards.
func WordsBE(w []uint16) Frame {
	return Frame{kind: U16BE, words: w}
}

// WordsLE sends w little-endian. The slice is converted in place and must not
// be reused as values afterwards.
func WordsLE(w []uint16) Frame {
	return Frame{kind: U16LE, words: w}
}

// Iter8 pulls exactly n bytes from next.
func Iter8(n int, next func() byte) Frame {
	return Frame{kind: U8Iter, n: n, next8: next}
}

// Iter16BE pulls exactly n words from next and sends them big-endian.
func Iter16BE(n int, next func() uint16) Frame {
	return Frame{kind: U16BEIter, n: n, next16: next}
}

// Iter16LE pulls exactly n words from next and sends them little-endian.
func Iter16LE(n int, next func() uint16) Frame {
	return Frame{kind: U16LEIter, n: n, next16: next}
}

// Repeat16BE sends the same word n times, big-endian.
func Repeat16BE(n int, v uint16) Frame {
	return Iter16BE(n, func() uint16 { return v })
}

func (f Frame) Kind() Kind {
	return f.kind
}

// Size is the number of bytes the frame puts on the wire.
func (f Frame) Size() int {
	switch f.kind {
	case U8:
		return len(f.bytes)
	case U16, U16BE, U16LE:
		return 2 * len(f.words)
	case U8Iter:
		return f.n
	case U16BEIter, U16LEIter:
		return 2 * f.n
	default:
		return 0
	}
}

func (f Frame) valid() bool {
	switch f.kind {
	case U8, U16, U16BE, U16LE:
		return true
	case U8Iter:
		return f.n >= 0 && (f.n == 0 || f.next8 != nil)
	case U16BEIter, U16LEIter:
		return f.n >= 0 && (f.n == 0 || f.next16 != nil)
	default:
		return false
	}
}
