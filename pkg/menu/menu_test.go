package menu

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"scopeui/pkg/bitmap"
	"scopeui/pkg/input"
	"scopeui/pkg/stage"
)

func newMenu(t *testing.T, opts ...Option) *Menu {
	return New(append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
}

func feed(m *Menu, events ...input.Event) []Command {
	var out []Command
	for _, ev := range events {
		if cmd, ok := m.Handle(ev); ok {
			out = append(out, cmd)
		}
	}
	return out
}

func TestMainNavigationWraps(t *testing.T) {
	m := newMenu(t)
	assert.Equal(t, "Control", m.Selected())

	feed(m, input.Up)
	assert.Equal(t, "Info", m.Selected())

	feed(m, input.Down, input.Down)
	assert.Equal(t, "Scan", m.Selected())
}

func TestUnimplementedViewsStayOnMain(t *testing.T) {
	m := newMenu(t)

	feed(m, input.Down, input.Select)
	assert.Equal(t, Main, m.View())
	assert.Equal(t, "Scan", m.Selected())
}

func TestControlSkipsHeadings(t *testing.T) {
	m := newMenu(t)

	feed(m, input.Select)
	require.Equal(t, Control, m.View())
	assert.Equal(t, "Back", m.Selected())

	feed(m, input.Down)
	assert.Equal(t, "  Slider", m.Selected())
	feed(m, input.Down)
	assert.Equal(t, "  X Axis", m.Selected())
	feed(m, input.Up, input.Up, input.Up)
	assert.Equal(t, "  Z Axis", m.Selected())
}

func TestLockedAxisEmitsCommands(t *testing.T) {
	m := newMenu(t)
	m.SetPosition(stage.Position{X: 320, Y: 3229, Z: 3298})

	feed(m, input.Select, input.Down, input.Down, input.Down)
	require.Equal(t, "  Y Axis", m.Selected())

	assert.Empty(t, feed(m, input.Select))
	assert.True(t, m.Locked())

	cmds := feed(m, input.Up, input.Up, input.Down)
	assert.Equal(t, []Command{
		{Axis: stage.Y, Dir: 1},
		{Axis: stage.Y, Dir: 1},
		{Axis: stage.Y, Dir: -1},
	}, cmds)
	assert.Equal(t, int64(3429), m.Position().Y)
	assert.Equal(t, "  Y Axis", m.Selected())

	feed(m, input.Select)
	assert.False(t, m.Locked())
	assert.Empty(t, feed(m, input.Up))
	assert.Equal(t, "  X Axis", m.Selected())
}

func TestSliderIsLocal(t *testing.T) {
	m := newMenu(t, WithStep(5), WithSlider(100))

	feed(m, input.Select, input.Down, input.Select)
	assert.Empty(t, feed(m, input.Down, input.Down))
	assert.Equal(t, int64(90), m.Slider())
}

func TestBackReturnsToMain(t *testing.T) {
	m := newMenu(t)

	feed(m, input.Select, input.Down, input.Up, input.Select)
	assert.Equal(t, Main, m.View())
	assert.Equal(t, "Control", m.Selected())
	assert.Equal(t, "Microlution", m.Title())
}

func TestRenderHighlightsSelection(t *testing.T) {
	m := newMenu(t)
	img := image.NewRGBA(image.Rect(0, 0, 240, 320))

	m.Render(img)
	at := func(x, y int) bitmap.Color {
		return bitmap.FromColor(img.At(x, y))
	}

	// first row selected, second one not
	assert.Equal(t, Highlight, at(padding+1, titleH+1))
	assert.Equal(t, Background, at(padding+1, titleH+rowH+1))
	assert.Equal(t, Foreground, at(0, titleH-2))

	feed(m, input.Select, input.Down, input.Select)
	m.Render(img)
	assert.Equal(t, Highlight, at(padding+indicator+1, titleH+2*rowH+1))
	assert.Equal(t, Foreground, at(padding, titleH+2*rowH+1))
	assert.Equal(t, Background, at(padding+1, titleH+1))
}

func TestViewString(t *testing.T) {
	assert.Equal(t, "control", Control.String())
	assert.Equal(t, "?", View(42).String())
}
