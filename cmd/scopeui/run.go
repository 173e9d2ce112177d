package main

import (
	"context"
	"errors"

	"github.com/rs/xid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"scopeui/pkg/device/ili9341"
	"scopeui/pkg/input"
	"scopeui/pkg/ui"
)

func xidShort() string {
	id := xid.New().String()
	return id[len(id)-6:]
}

func run(lifecycle fx.Lifecycle, shutdowner fx.Shutdowner, hw *Hardware, dev *ili9341.Dev, app *ui.App, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)

				if *splashSrc != "" {
					if err := showSplash(ctx, dev, logger); err != nil {
						logger.With(zap.String("src", *splashSrc), zap.Error(err)).Warn("splash")
					}
				}

				events := make(chan input.Event, 8)
				go func() {
					defer close(events)
					if err := hw.Events(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
						logger.With(zap.Error(err)).Error("input")
					}
				}()

				err := app.Run(ctx, events)
				if errors.Is(err, context.Canceled) {
					return
				}
				logger.With(zap.Error(err), zap.Int("frames", app.Frames())).Info("ui-exited")
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(stop context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stop.Done():
				return stop.Err()
			}
		},
	})
}
