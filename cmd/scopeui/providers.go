package main

import (
	"context"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"scopeui/pkg/device/ili9341"
	"scopeui/pkg/menu"
	"scopeui/pkg/mixer"
	"scopeui/pkg/splash"
	"scopeui/pkg/stage"
	"scopeui/pkg/telemetry"
	"scopeui/pkg/ui"
)

func newDisplay(hw *Hardware, lifecycle fx.Lifecycle, logger *zap.Logger) (*ili9341.Dev, error) {
	o, err := ili9341.ParseOrientation(*orientation)
	if err != nil {
		return nil, err
	}

	dev, err := ili9341.New(hw.Bus, hw.RST, &ili9341.Opts{
		Width:       ili9341.DefaultOpts.Width,
		Height:      ili9341.DefaultOpts.Height,
		Orientation: o,
		Binarize:    *binarize,
		Sleep:       hw.Sleep,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := dev.Brightness(*light); err != nil {
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return dev.Halt()
		},
	})

	return dev, nil
}

func newStage(logger *zap.Logger) *stage.Client {
	opts := []stage.Option{stage.WithStep(*step)}
	if *debug {
		opts = append(opts, stage.WithDebug())
	}
	return stage.New(*stageURL, logger, opts...)
}

func newMenu(logger *zap.Logger) *menu.Menu {
	return menu.New(menu.WithStep(*step), menu.WithLogger(logger))
}

func newPublisher(lifecycle fx.Lifecycle, logger *zap.Logger) (ui.Publisher, error) {
	if *mqttAddr == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pub, err := telemetry.Dial(ctx, *mqttAddr, "scopeui-"+xidShort(),
		telemetry.WithPrefix(*mqttPrefix),
		telemetry.WithCredentials(*mqttUser, *mqttPass),
		telemetry.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return pub.Close()
		},
	})

	return pub, nil
}

// snapshotDisplay saves the virtual panel after every successful flush.
type snapshotDisplay struct {
	*ili9341.Dev
	snapshot func() error
	logger   *zap.Logger
}

func (d *snapshotDisplay) Flush() error {
	if err := d.Dev.Flush(); err != nil {
		return err
	}
	if err := d.snapshot(); err != nil {
		d.logger.With(zap.Error(err)).Warn("snapshot")
	}
	return nil
}

func newApp(hw *Hardware, dev *ili9341.Dev, m *menu.Menu, st *stage.Client, pub ui.Publisher, logger *zap.Logger) *ui.App {
	var display ui.Display = dev
	if hw.Snapshot != nil {
		display = &snapshotDisplay{Dev: dev, snapshot: hw.Snapshot, logger: logger}
	}

	opts := []ui.Option{ui.WithPollInterval(*poll)}
	if pub != nil {
		opts = append(opts, ui.WithPublisher(pub))
	}
	return ui.New(display, m, st, logger, opts...)
}

func showSplash(ctx context.Context, dev *ili9341.Dev, logger *zap.Logger) error {
	var opts []splash.Option
	if *cacheDir != "" {
		fs, err := splash.NewFs(*cacheDir)
		if err != nil {
			return err
		}
		opts = append(opts, splash.WithCache(fs))
	}

	img, err := splash.NewLoader(afero.NewOsFs(), logger, opts...).Load(ctx, *splashSrc, dev.Width(), dev.Height())
	if err != nil {
		return err
	}

	d := mixer.NewDrawer(dev,
		mixer.WithEffect(mixer.EffectBlock(0, true), mixer.EffectWipe(16)),
		mixer.WithLogger(logger),
	)
	if err := d.Canvas(img); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(*splashFor):
		return nil
	}
}
