package main

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"scopeui/pkg/device/virtual"
	"scopeui/pkg/input"
	"scopeui/pkg/proto"
	"scopeui/pkg/splash"
)

// Hardware is the bus and pins the display and encoder sit on.
type Hardware struct {
	Bus   proto.DataCommand
	RST   gpio.PinOut
	Sleep func(d time.Duration)

	// Events delivers encoder or keyboard input.
	Events func(ctx context.Context, out chan<- input.Event) error

	// Snapshot saves what the virtual panel shows; nil on real hardware.
	Snapshot func() error
}

func newHardware(lifecycle fx.Lifecycle, logger *zap.Logger) (*Hardware, error) {
	if *virtualMode {
		return newVirtual(logger)
	}

	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "host init")
	}

	port, err := spireg.Open(*spiPort)
	if err != nil {
		return nil, errors.Wrap(err, "open spi")
	}
	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return port.Close()
		},
	})

	pins := map[string]gpio.PinIO{}
	for _, name := range []string{*dcPin, *rstPin, *clkPin, *dtPin, *swPin, *csPin} {
		if name == "" {
			continue
		}
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errors.Errorf("unknown pin %s", name)
		}
		pins[name] = p
	}

	opts := &proto.Options{
		Hz:        physic.Frequency(*spiMHz) * physic.MegaHertz,
		Mode:      spi.Mode0,
		ChunkSize: *chunk,
	}
	if *csPin != "" {
		opts.CS = pins[*csPin]
	}

	bus, err := proto.OpenSPI(port, pins[*dcPin], opts, logger)
	if err != nil {
		return nil, err
	}

	encOpts := []input.Option{input.WithCooldown(*cooldown), input.WithLogger(logger)}
	if *reverse {
		encOpts = append(encOpts, input.WithReverse())
	}
	enc, err := input.NewEncoder(pins[*clkPin], pins[*dtPin], pins[*swPin], encOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "setup encoder")
	}

	logger.With(zap.Stringer("bus", bus), zap.String("port", port.String())).Info("hardware-ready")

	return &Hardware{
		Bus: bus,
		RST: pins[*rstPin],
		Events: func(ctx context.Context, out chan<- input.Event) error {
			return enc.Run(ctx, *encoderPoll, out)
		},
	}, nil
}

// newVirtual simulates the panel and maps stdin lines u, d and s to events.
func newVirtual(logger *zap.Logger) (*Hardware, error) {
	panel := virtual.Mock(240, 320, logger)
	bus, err := proto.NewSPI(panel, panel.DC(), &proto.Options{ChunkSize: *chunk}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "virtual bus")
	}
	fs := afero.NewOsFs()

	return &Hardware{
		Bus:   bus,
		RST:   panel.RST(),
		Sleep: panel.Sleep,
		Events: func(ctx context.Context, out chan<- input.Event) error {
			return readKeys(ctx, out)
		},
		Snapshot: func() error {
			return splash.Snapshot(fs, *snapshot, panel.Image())
		},
	}, nil
}

var keys = map[string]input.Event{
	"u": input.Up,
	"d": input.Down,
	"s": input.Select,
}

func readKeys(ctx context.Context, out chan<- input.Event) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		s := bufio.NewScanner(os.Stdin)
		for s.Scan() {
			lines <- s.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			for _, c := range line {
				ev, ok := keys[string(c)]
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
