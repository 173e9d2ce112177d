package proto

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

type Options struct {
	Hz        physic.Frequency
	Mode      spi.Mode
	ChunkSize int
	// CS is only needed when chip select is not driven by the SPI port.
	CS gpio.PinOut
}

func defaultOptions() *Options {
	return &Options{
		Hz:        32 * physic.MegaHertz,
		Mode:      spi.Mode0,
		ChunkSize: DefaultChunkSize,
	}
}

// OpenSPI connects to port and returns a four-wire link using dc as the
// command/data select line.
func OpenSPI(port spi.Port, dc gpio.PinOut, opts *Options, logger *zap.Logger) (*SPI, error) {
	if opts == nil {
		opts = defaultOptions()
	}

	c, err := port.Connect(opts.Hz, opts.Mode, 8)
	if err != nil {
		return nil, errors.Wrapf(err, "connect %s", port)
	}

	return NewSPI(c, dc, opts, logger)
}

func NewSPI(c conn.Conn, dc gpio.PinOut, opts *Options, logger *zap.Logger) (*SPI, error) {
	if opts == nil {
		opts = defaultOptions()
	}
	if dc == nil {
		return nil, errors.New("dc pin is required")
	}

	chunk := opts.ChunkSize
	if chunk == 0 {
		chunk = DefaultChunkSize
	}
	codec, err := NewCodec(chunk)
	if err != nil {
		return nil, err
	}

	s := &SPI{
		conn:   c,
		dc:     dc,
		cs:     opts.CS,
		codec:  codec,
		logger: logger,
	}

	if s.cs != nil {
		if err := s.cs.Out(gpio.High); err != nil {
			return nil, NewError("cs idle", ErrSelectLine, err)
		}
	}

	return s, nil
}

// SPI implements ReadWriteDataCommand on a periph connection.
type SPI struct {
	conn   conn.Conn
	dc     gpio.PinOut
	cs     gpio.PinOut
	codec  *Codec
	logger *zap.Logger
}

func (s *SPI) String() string {
	return fmt.Sprintf("proto.SPI{%s, dc=%s}", s.conn, s.dc)
}

func (s *SPI) SendCommands(cmd Frame) error {
	return s.send("command", gpio.Low, cmd)
}

func (s *SPI) SendData(data Frame) error {
	return s.send("data", gpio.High, data)
}

func (s *SPI) ReadData(cmd Frame, buf []byte) error {
	if cmd.Kind() != U8 {
		return NewError("read", ErrUnsupportedFrame, errors.Errorf("command kind %s", cmd.Kind()))
	}

	// port driven chip select is only held across a single transaction
	if pc, ok := s.conn.(spi.Conn); ok && s.cs == nil {
		return s.readPackets(pc, cmd, buf)
	}

	if err := s.selectChip(); err != nil {
		return err
	}
	defer s.releaseChip()

	if err := s.dc.Out(gpio.Low); err != nil {
		return NewError("read dc", ErrSelectLine, err)
	}
	if _, err := s.codec.Write(s.conn, cmd); err != nil {
		return err
	}
	if err := s.dc.Out(gpio.High); err != nil {
		return NewError("read dc", ErrSelectLine, err)
	}

	if err := s.conn.Tx(make([]byte, len(buf)), buf); err != nil {
		return NewError("read", ErrBusRead, err)
	}

	s.logger.With(
		zap.Int("recv", len(buf)),
		zap.String("data", fmt.Sprintf("%x", buf)),
	).Debug("read")

	return nil
}

// readPackets sends the command and clocks in the reply with CS asserted
// throughout. DC stays low, the panel only samples it on written bytes.
func (s *SPI) readPackets(c spi.Conn, cmd Frame, buf []byte) error {
	if err := s.dc.Out(gpio.Low); err != nil {
		return NewError("read dc", ErrSelectLine, err)
	}

	err := c.TxPackets([]spi.Packet{
		{W: cmd.bytes, KeepCS: true},
		{R: buf},
	})
	if err != nil {
		return NewError("read", ErrBusRead, err)
	}

	s.logger.With(
		zap.Int("recv", len(buf)),
		zap.String("data", fmt.Sprintf("%x", buf)),
	).Debug("read-packets")

	return nil
}

func (s *SPI) send(phase string, level gpio.Level, f Frame) error {
	if f.Size() == 0 && f.valid() {
		return nil
	}

	if err := s.selectChip(); err != nil {
		return err
	}
	defer s.releaseChip()

	if err := s.dc.Out(level); err != nil {
		return NewError(phase, ErrSelectLine, err)
	}

	start := time.Now()
	chunks, err := s.codec.Write(s.conn, f)
	if err != nil {
		return err
	}

	if ce := s.logger.Check(zap.DebugLevel, "transfer"); ce != nil {
		ext := ""
		if f.Kind() == U8 && f.Size() <= 16 {
			ext = fmt.Sprintf("%x", f.bytes)
		}
		ce.Write(
			zap.String("phase", phase),
			zap.Stringer("kind", f.Kind()),
			zap.Int("sent", f.Size()),
			zap.Int("chunks", chunks),
			zap.String("cost", time.Since(start).String()),
			zap.String("data", ext),
		)
	}

	return nil
}

func (s *SPI) selectChip() error {
	if s.cs == nil {
		return nil
	}
	if err := s.cs.Out(gpio.Low); err != nil {
		return NewError("cs", ErrSelectLine, err)
	}
	return nil
}

func (s *SPI) releaseChip() {
	if s.cs != nil {
		_ = s.cs.Out(gpio.High)
	}
}
