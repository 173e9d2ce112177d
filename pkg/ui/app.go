package ui

import (
	"context"
	"image/draw"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"scopeui/pkg/input"
	"scopeui/pkg/menu"
	"scopeui/pkg/stage"
	"scopeui/pkg/telemetry"
)

// Display is a framebuffer that can push its pending changes to the panel.
type Display interface {
	draw.Image
	Flush() error
}

type Stage interface {
	Position(ctx context.Context) (stage.Position, error)
	Step(ctx context.Context, axis stage.Axis, dir int) (*stage.MoveResponse, error)
}

type Publisher interface {
	Publish(topic string, v any) error
}

// EventMessage is published for every encoder event the menu handles.
type EventMessage struct {
	Event  string `json:"event"`
	View   string `json:"view"`
	Item   string `json:"item"`
	Locked bool   `json:"locked"`
}

type Option func(*App)

func WithPollInterval(d time.Duration) Option {
	return func(a *App) {
		a.poll = d
	}
}

func WithPublisher(p Publisher) Option {
	return func(a *App) {
		a.pub = p
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(a *App) {
		a.clock = c
	}
}

func New(display Display, m *menu.Menu, st Stage, logger *zap.Logger, opts ...Option) *App {
	a := &App{
		display: display,
		menu:    m,
		stage:   st,
		poll:    time.Second,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// App owns the display. Only Run touches it.
type App struct {
	display Display
	menu    *menu.Menu
	stage   Stage
	pub     Publisher

	poll   time.Duration
	clock  clockwork.Clock
	logger *zap.Logger

	frames int
}

// Run renders the menu and reacts to events until ctx is done or events is
// closed. Stage and flush failures are logged and the loop continues.
func (a *App) Run(ctx context.Context, events <-chan input.Event) error {
	ctx, cancel := context.WithCancel(ctx)

	if pos, err := a.stage.Position(ctx); err != nil {
		a.logger.With(zap.Error(err)).Warn("stage-position")
	} else {
		a.menu.SetPosition(pos)
	}

	positions := make(chan stage.Position, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.pollPosition(ctx, positions)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	a.redraw()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			a.handle(ctx, ev)
		case pos := <-positions:
			if pos == a.menu.Position() {
				continue
			}
			a.menu.SetPosition(pos)
			a.publish(telemetry.TopicPosition, pos)
		}
		a.redraw()
	}
}

func (a *App) handle(ctx context.Context, ev input.Event) {
	cmd, ok := a.menu.Handle(ev)

	a.logger.With(
		zap.Stringer("event", ev),
		zap.Stringer("view", a.menu.View()),
		zap.String("item", a.menu.Selected()),
	).Debug("ui-event")
	a.publish(telemetry.TopicEvent, EventMessage{
		Event:  ev.String(),
		View:   a.menu.View().String(),
		Item:   a.menu.Selected(),
		Locked: a.menu.Locked(),
	})

	if !ok {
		return
	}
	if _, err := a.stage.Step(ctx, cmd.Axis, cmd.Dir); err != nil {
		a.logger.With(zap.Stringer("axis", cmd.Axis), zap.Int("dir", cmd.Dir), zap.Error(err)).Error("stage-step")
	}
}

func (a *App) redraw() {
	a.menu.Render(a.display)
	if err := a.display.Flush(); err != nil {
		a.logger.With(zap.Error(err)).Error("flush")
		return
	}
	a.frames++
}

func (a *App) publish(topic string, v any) {
	if a.pub == nil {
		return
	}
	if err := a.pub.Publish(topic, v); err != nil {
		a.logger.With(zap.String("topic", topic), zap.Error(err)).Warn("publish")
	}
}

func (a *App) pollPosition(ctx context.Context, out chan stage.Position) {
	ticker := a.clock.NewTicker(a.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}

		pos, err := a.stage.Position(ctx)
		if err != nil {
			a.logger.With(zap.Error(err)).Debug("stage-position")
			continue
		}

		// keep only the newest
		select {
		case <-out:
		default:
		}
		select {
		case out <- pos:
		case <-ctx.Done():
			return
		}
	}
}

// Frames reports how many renders reached the panel.
func (a *App) Frames() int {
	return a.frames
}
