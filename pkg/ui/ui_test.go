package ui

import (
	"context"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/gesture"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
	"github.com/go-go-golems/branchcanvas/pkg/host"
	"github.com/go-go-golems/branchcanvas/pkg/models"
	"github.com/go-go-golems/branchcanvas/pkg/responder"
)

func newTestModel(t *testing.T) model {
	e, err := canvas.New(canvas.DefaultConfig(), canvas.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	loop := host.NewLoop(e)
	go func() { _ = loop.Run(ctx) }()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	dispatcher := responder.NewDispatcher(ctx,
		responder.NewSimulated(nil, responder.WithDelay(0)),
		responder.NewReplySink(pubSub, "replies"),
		responder.WithLogger(zerolog.Nop()))
	t.Cleanup(func() {
		_ = dispatcher.Close()
		cancel()
		_ = pubSub.Close()
	})

	session := host.NewSession(loop, dispatcher, host.WithSessionLogger(zerolog.Nop()))
	m := InitialModel(session)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(model)
}

func press(t *testing.T, m model, msgs ...tea.Msg) model {
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeysDriveTheEngine(t *testing.T) {
	m := newTestModel(t)
	root := m.snapshot.RootID
	require.Equal(t, root, m.selected)

	m = press(t, m, runes("b"))
	require.Len(t, m.snapshot.Nodes, 2)
	assert.NotEqual(t, root, m.selected)
	child, ok := m.snapshot.Node(m.selected)
	require.True(t, ok)
	assert.Equal(t, "Branch 1", child.Label)

	m = press(t, m, runes("m"))
	child, _ = m.snapshot.Node(m.selected)
	assert.Equal(t, models.Default().Next(models.Default().First().ID).ID, child.Metadata)

	m = press(t, m, runes(" "))
	child, _ = m.snapshot.Node(m.selected)
	assert.True(t, child.Expanded)

	m = press(t, m, runes("x"))
	assert.Len(t, m.snapshot.Nodes, 1)
	assert.Equal(t, root, m.selected)

	m = press(t, m, runes("x"))
	assert.Equal(t, "the root cannot be deleted", m.status)
	assert.Equal(t, StateMovingAround, m.state)
}

func TestSelectionCycles(t *testing.T) {
	m := newTestModel(t)
	root := m.snapshot.RootID
	m = press(t, m, runes("b"), runes("p"), runes("b"))
	require.Len(t, m.snapshot.Nodes, 3)

	m = press(t, m, runes("p"))
	assert.Equal(t, root, m.selected)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, m.snapshot.Nodes[2].ID, m.selected)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, root, m.selected)
}

func TestInputSendsAndBranches(t *testing.T) {
	m := newTestModel(t)
	root := m.snapshot.RootID

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, StateUserInput, m.state)
	// letters go to the input, not to the canvas bindings
	m = press(t, m, runes("b"), runes("x"))
	assert.Equal(t, "bx", m.textInput.Value())
	assert.Len(t, m.snapshot.Nodes, 1)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "", m.textInput.Value())
	n, _ := m.snapshot.Node(root)
	last := n.Payload[len(n.Payload)-1]
	assert.Equal(t, tree.RoleOriginator, last.Role)
	assert.Equal(t, "bx", last.Text)

	m = press(t, m, runes("quantum physics"), tea.KeyMsg{Type: tea.KeyCtrlB})
	require.Len(t, m.snapshot.Nodes, 2)
	child, _ := m.snapshot.Node(m.selected)
	assert.Equal(t, "quantum physics", child.Label)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateMovingAround, m.state)
}

func TestEmptyMessageShowsError(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateError, m.state)
	require.Error(t, m.err)
	assert.ErrorIs(t, m.err, canvas.ErrInvalidOperation)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateMovingAround, m.state)
	assert.NoError(t, m.err)
}

func TestMouseDragMovesNode(t *testing.T) {
	m := newTestModel(t)
	root := m.snapshot.RootID

	// the root header covers cells x 40..87 and canvas rows 5..7; terminal row 0 is the header line
	m = press(t, m, tea.MouseMsg{X: 50, Y: 7, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, gesture.DraggingNode, m.snapshot.Gesture.Kind)
	m = press(t, m,
		tea.MouseMsg{X: 60, Y: 7, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: 60, Y: 7, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	n, _ := m.snapshot.Node(root)
	assert.Equal(t, 500.0, n.Position.X)
	assert.Equal(t, 100.0, n.Position.Y)
	assert.Equal(t, gesture.Idle, m.snapshot.Gesture.Kind)

	m = press(t, m, tea.MouseMsg{X: 5, Y: 3, Button: tea.MouseButtonWheelDown})
	assert.Less(t, m.snapshot.ZoomPercent, 100)
}

func TestDrawCanvas(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, runes("b"))

	g := drawCanvas(&m.snapshot, m.selected, map[tree.NodeID]bool{m.snapshot.RootID: true}, models.Default(), 120, 40)
	out := g.plain()
	assert.Contains(t, out, "Main Thread")
	assert.Contains(t, out, "Branch 1")
	assert.Contains(t, out, "thinking...")
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "·")
	assert.Len(t, strings.Split(out, "\n"), 40)

	assert.NotEmpty(t, m.View())
}

func TestFitLines(t *testing.T) {
	assert.Equal(t, []string{"one two", "three…"}, fitLines("one two three four", 7, 2))
	assert.Equal(t, []string{"short"}, fitLines("short", 10, 3))
	assert.Nil(t, fitLines("anything", 0, 3))
}
