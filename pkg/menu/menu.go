package menu

import (
	"strconv"

	"go.uber.org/zap"

	"scopeui/pkg/input"
	"scopeui/pkg/stage"
)

type View uint8

const (
	Main View = iota
	Control
	Scan
	Settings
	Info
)

var viewNames = []string{"main", "control", "scan", "settings", "info"}

func (v View) String() string {
	if int(v) < len(viewNames) {
		return viewNames[v]
	}
	return "?"
}

type entryKind uint8

const (
	entryLink entryKind = iota
	entryBack
	entryHeading
	entrySlider
	entryAxis
)

type entry struct {
	title string
	kind  entryKind
	view  View
	axis  stage.Axis
}

func (e entry) selectable() bool {
	return e.kind != entryHeading
}

func (e entry) lockable() bool {
	return e.kind == entrySlider || e.kind == entryAxis
}

var (
	mainEntries = []entry{
		{title: "Control", kind: entryLink, view: Control},
		{title: "Scan", kind: entryLink, view: Scan},
		{title: "Settings", kind: entryLink, view: Settings},
		{title: "Info", kind: entryLink, view: Info},
	}
	controlEntries = []entry{
		{title: "Back", kind: entryBack, view: Main},
		{title: "Sample Changer", kind: entryHeading},
		{title: "  Slider", kind: entrySlider},
		{title: "Microscope Control", kind: entryHeading},
		{title: "  X Axis", kind: entryAxis, axis: stage.X},
		{title: "  Y Axis", kind: entryAxis, axis: stage.Y},
		{title: "  Z Axis", kind: entryAxis, axis: stage.Z},
	}
)

// Command asks for one stage step along Axis. Dir is +1 or -1.
type Command struct {
	Axis stage.Axis
	Dir  int
}

type Option func(*Menu)

func WithStep(step int64) Option {
	return func(m *Menu) {
		m.step = step
	}
}

func WithSlider(v int64) Option {
	return func(m *Menu) {
		m.slider = v
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Menu) {
		m.logger = logger
	}
}

func New(opts ...Option) *Menu {
	m := &Menu{
		step:   stage.DefaultStep,
		slider: 10,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Menu holds the navigation state. It is driven by encoder events and is not
// safe for concurrent use.
type Menu struct {
	view   View
	cursor int
	locked bool

	slider int64
	pos    stage.Position
	step   int64

	logger *zap.Logger
}

func (m *Menu) View() View {
	return m.view
}

func (m *Menu) Locked() bool {
	return m.locked
}

func (m *Menu) Position() stage.Position {
	return m.pos
}

func (m *Menu) Slider() int64 {
	return m.slider
}

// SetPosition replaces the displayed stage position.
func (m *Menu) SetPosition(p stage.Position) {
	m.pos = p
}

func (m *Menu) Title() string {
	if m.view == Control {
		return "Control"
	}
	return "Microlution"
}

func (m *Menu) entries() []entry {
	if m.view == Control {
		return controlEntries
	}
	return mainEntries
}

func (m *Menu) Selected() string {
	return m.entries()[m.cursor].title
}

// Handle applies one encoder event. It returns a stage command when the event
// moves a locked axis.
func (m *Menu) Handle(ev input.Event) (Command, bool) {
	if m.locked {
		return m.adjust(ev)
	}

	switch ev {
	case input.Up:
		m.move(-1)
	case input.Down:
		m.move(1)
	case input.Select:
		m.activate()
	}
	return Command{}, false
}

func (m *Menu) adjust(ev input.Event) (Command, bool) {
	e := m.entries()[m.cursor]

	var dir int
	switch ev {
	case input.Up:
		dir = 1
	case input.Down:
		dir = -1
	case input.Select:
		m.locked = false
		m.logger.With(zap.String("item", e.title)).Debug("input-unlock")
		return Command{}, false
	default:
		return Command{}, false
	}

	delta := int64(dir) * m.step
	if e.kind == entrySlider {
		m.slider += delta
		m.logger.With(zap.Int64("pos", m.slider)).Debug("slider-move")
		return Command{}, false
	}

	m.pos = m.pos.Add(e.axis, delta)
	return Command{Axis: e.axis, Dir: dir}, true
}

func (m *Menu) move(dir int) {
	items := m.entries()
	i := m.cursor
	for {
		i = (i + dir + len(items)) % len(items)
		if items[i].selectable() {
			break
		}
	}
	m.cursor = i
}

func (m *Menu) activate() {
	e := m.entries()[m.cursor]
	switch {
	case e.lockable():
		m.locked = true
		m.logger.With(zap.String("item", e.title)).Debug("input-lock")
	case e.view == Control || e.view == Main:
		m.logger.With(zap.Stringer("from", m.view), zap.Stringer("to", e.view)).Debug("navigate")
		m.view = e.view
		m.cursor = 0
	default:
		m.logger.With(zap.Stringer("view", e.view)).Info("view-not-implemented")
	}
}

func (m *Menu) marker(e entry) string {
	switch e.kind {
	case entryLink:
		return ">"
	case entryBack:
		return "<<"
	case entrySlider:
		return strconv.FormatInt(m.slider, 10)
	case entryAxis:
		return strconv.FormatInt(m.pos.Get(e.axis), 10)
	}
	return ""
}
