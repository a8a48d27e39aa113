// Package ui is a terminal canvas. Cards are drawn on a character grid where
// every cell stands for CellWidth x CellHeight screen pixels, so mouse presses,
// drags and wheel steps go straight into the engine's pointer API.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/gesture"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
	"github.com/go-go-golems/branchcanvas/pkg/host"
	"github.com/go-go-golems/branchcanvas/pkg/models"
	"github.com/go-go-golems/branchcanvas/pkg/render"
	"github.com/go-go-golems/branchcanvas/pkg/scenario"
)

const (
	panStep    = 80.0
	fitPadding = 40.0
	// rows taken by the header, the input box, the status line and the short help
	chromeRows = 1 + 3 + 1 + 1
)

type State string

const (
	StateMovingAround State = "moving_around"
	StateUserInput    State = "user_input"
	StateError        State = "error"
)

type errMsg error

// ReplyMsg tells the program a reply has been applied to the canvas.
type ReplyMsg struct {
	NodeID tree.NodeID
	Failed bool
}

type model struct {
	ctx     context.Context
	session *host.Session
	loop    *host.Loop
	catalog *models.Catalog

	snapshot canvas.Snapshot
	pending  map[tree.NodeID]bool
	selected tree.NodeID

	textInput textinput.Model
	help      help.Model
	keyMap    KeyMap
	style     *Style

	exportPath string
	exports    int

	state  State
	err    error
	status string
	width  int
	height int
}

type Option func(*model)

func WithCatalog(c *models.Catalog) Option {
	return func(m *model) {
		m.catalog = c
	}
}

// WithExportPath sets the path template used by the export key. It sees
// the same data as scenario export paths.
func WithExportPath(path string) Option {
	return func(m *model) {
		m.exportPath = path
	}
}

func WithContext(ctx context.Context) Option {
	return func(m *model) {
		m.ctx = ctx
	}
}

func InitialModel(session *host.Session, options ...Option) model {
	ret := model{
		ctx:        context.Background(),
		session:    session,
		loop:       session.Loop(),
		style:      DefaultStyles(),
		keyMap:     DefaultKeyMap,
		help:       help.New(),
		exportPath: "canvas-{{ .Step }}.svg",
		pending:    map[tree.NodeID]bool{},
		state:      StateMovingAround,
		width:      80,
		height:     24,
	}
	for _, o := range options {
		o(&ret)
	}
	if ret.catalog == nil {
		ret.catalog = models.Default()
	}

	ret.textInput = textinput.New()
	ret.textInput.Placeholder = "Message the selected node..."
	ret.textInput.Prompt = "> "

	ret.refresh()
	ret.updateKeyBindings()

	return ret
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.MouseMsg:
		m.updateMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 6
		m.help.Width = msg.Width

	case ReplyMsg:
		m.refresh()
		if msg.Failed {
			m.status = fmt.Sprintf("reply for %s failed", msg.NodeID.Short())
		}

	case errMsg:
		m.setError(msg)

	default:
		if m.state == StateUserInput {
			m.textInput, cmd = m.textInput.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	k := m.keyMap

	switch {
	case key.Matches(msg, k.Quit), key.Matches(msg, k.Leave):
		return m, tea.Quit

	case key.Matches(msg, k.DismissError):
		m.err = nil
		m.state = StateMovingAround

	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, k.UnfocusInput):
		m.textInput.Blur()
		m.state = StateMovingAround

	case key.Matches(msg, k.SubmitMessage):
		text := m.textInput.Value()
		if err := m.session.Send(m.ctx, m.selected, text); err != nil {
			m.setError(err)
			break
		}
		m.textInput.SetValue("")
		m.status = "waiting for a reply..."
		m.refresh()

	case key.Matches(msg, k.BranchFromText):
		text := m.textInput.Value()
		m.create(func(e *canvas.Engine) (tree.NodeID, error) {
			return e.BranchFromSelection(m.selected, text)
		})
		if m.err == nil {
			m.textInput.SetValue("")
		}

	case key.Matches(msg, k.FocusInput):
		cmd = m.textInput.Focus()
		m.state = StateUserInput

	case key.Matches(msg, k.SelectNextNode):
		m.step(1)
	case key.Matches(msg, k.SelectPrevNode):
		m.step(-1)
	case key.Matches(msg, k.SelectParent):
		if n, ok := m.snapshot.Node(m.selected); ok && !n.IsRoot() {
			m.selected = n.Parent
		}

	case key.Matches(msg, k.Branch):
		m.create(func(e *canvas.Engine) (tree.NodeID, error) {
			return e.Branch(m.selected, nil, "")
		})

	case key.Matches(msg, k.Delete):
		removed, err := m.session.Delete(m.ctx, m.selected)
		if err != nil {
			m.setError(err)
			break
		}
		if len(removed) == 0 {
			m.status = "the root cannot be deleted"
		} else {
			m.status = fmt.Sprintf("deleted %d nodes", len(removed))
		}
		m.refresh()

	case key.Matches(msg, k.Toggle):
		m.do(func(e *canvas.Engine) error { return e.ToggleExpanded(m.selected) })

	case key.Matches(msg, k.CycleModel):
		n, ok := m.snapshot.Node(m.selected)
		if ok {
			next := m.catalog.Next(n.Metadata)
			m.do(func(e *canvas.Engine) error { return e.SetMetadata(m.selected, next.ID) })
			m.status = "model: " + next.Name
		}

	case key.Matches(msg, k.PanLeft):
		m.do(func(e *canvas.Engine) error { return e.Pan(panStep, 0) })
	case key.Matches(msg, k.PanRight):
		m.do(func(e *canvas.Engine) error { return e.Pan(-panStep, 0) })
	case key.Matches(msg, k.PanUp):
		m.do(func(e *canvas.Engine) error { return e.Pan(0, panStep) })
	case key.Matches(msg, k.PanDown):
		m.do(func(e *canvas.Engine) error { return e.Pan(0, -panStep) })
	case key.Matches(msg, k.ZoomIn):
		m.do((*canvas.Engine).ZoomIn)
	case key.Matches(msg, k.ZoomOut):
		m.do((*canvas.Engine).ZoomOut)
	case key.Matches(msg, k.ResetView):
		m.do((*canvas.Engine).ResetView)
	case key.Matches(msg, k.FitToContent):
		screen := m.screenSize()
		m.do(func(e *canvas.Engine) error { return e.FitToContent(screen, fitPadding) })

	case key.Matches(msg, k.SaveToFile):
		m.save()

	default:
		if m.state == StateUserInput {
			m.textInput, cmd = m.textInput.Update(msg)
		}
	}

	m.updateKeyBindings()
	return m, cmd
}

func (m *model) updateMouse(msg tea.MouseMsg) {
	x, y := msg.X, msg.Y-1
	if y < 0 || y >= m.canvasRows() {
		return
	}
	// aim at the middle of the cell
	p := geometry.Point{X: (float64(x) + 0.5) * CellWidth, Y: (float64(y) + 0.5) * CellHeight}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.do(func(e *canvas.Engine) error { return e.ZoomAt(p, -1) })
	case msg.Button == tea.MouseButtonWheelDown:
		m.do(func(e *canvas.Engine) error { return e.ZoomAt(p, 1) })
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.do(func(e *canvas.Engine) error {
			if id, _, ok := e.HitTest(p); ok {
				m.selected = id
			}
			e.PointerDown(p)
			return nil
		})
	case msg.Action == tea.MouseActionMotion:
		if m.snapshot.Gesture.Kind != gesture.Idle {
			m.do(func(e *canvas.Engine) error { return e.UpdateDrag(p) })
		}
	case msg.Action == tea.MouseActionRelease:
		m.do(func(e *canvas.Engine) error {
			e.EndDrag()
			return nil
		})
	}
}

func (m *model) do(fn func(e *canvas.Engine) error) {
	if err := m.loop.Do(m.ctx, fn); err != nil {
		m.setError(err)
		return
	}
	m.refresh()
}

func (m *model) create(fn func(e *canvas.Engine) (tree.NodeID, error)) {
	var created tree.NodeID
	m.do(func(e *canvas.Engine) error {
		id, err := fn(e)
		created = id
		return err
	})
	if created != tree.NullNode {
		m.selected = created
		m.refresh()
	}
}

// refresh pulls a new snapshot and keeps the selection on a live node.
func (m *model) refresh() {
	snap, err := m.loop.Snapshot(m.ctx)
	if err != nil {
		m.setError(err)
		return
	}
	m.snapshot = snap

	ids, err := m.session.Pending(m.ctx)
	if err == nil {
		m.pending = make(map[tree.NodeID]bool, len(ids))
		for _, id := range ids {
			m.pending[id] = true
		}
	}

	if _, ok := snap.Node(m.selected); !ok {
		m.selected = snap.RootID
	}
}

func (m *model) step(delta int) {
	nodes := m.snapshot.Nodes
	if len(nodes) == 0 {
		return
	}
	idx := 0
	for i, n := range nodes {
		if n.ID == m.selected {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(nodes)) % len(nodes)
	m.selected = nodes[idx].ID
}

func (m *model) save() {
	m.exports++
	path, err := scenario.ExpandPath(m.exportPath, scenario.PathData{
		Name:    "canvas",
		Step:    m.exports,
		Version: m.snapshot.Version,
		Nodes:   len(m.snapshot.Nodes),
		Zoom:    m.snapshot.ZoomPercent,
	})
	if err != nil {
		m.setError(err)
		return
	}
	err = render.Save(&m.snapshot, render.Options{Path: path, Catalog: m.catalog, Title: "branchcanvas"})
	if err != nil {
		m.setError(errors.Wrap(err, "export"))
		return
	}
	m.status = "saved " + path
}

func (m *model) setError(err error) {
	m.err = err
	m.textInput.Blur()
	m.state = StateError
	m.updateKeyBindings()
}

func (m *model) updateKeyBindings() {
	moving := m.state == StateMovingAround
	input := m.state == StateUserInput

	for _, b := range []*key.Binding{
		&m.keyMap.SelectNextNode, &m.keyMap.SelectPrevNode, &m.keyMap.SelectParent,
		&m.keyMap.FocusInput, &m.keyMap.Branch, &m.keyMap.Delete, &m.keyMap.Toggle,
		&m.keyMap.CycleModel, &m.keyMap.PanLeft, &m.keyMap.PanRight, &m.keyMap.PanUp,
		&m.keyMap.PanDown, &m.keyMap.ZoomIn, &m.keyMap.ZoomOut, &m.keyMap.ResetView,
		&m.keyMap.FitToContent, &m.keyMap.SaveToFile, &m.keyMap.Help, &m.keyMap.Leave,
	} {
		b.SetEnabled(moving)
	}
	m.keyMap.UnfocusInput.SetEnabled(input)
	m.keyMap.SubmitMessage.SetEnabled(input)
	m.keyMap.BranchFromText.SetEnabled(input)
	m.keyMap.DismissError.SetEnabled(m.state == StateError)
}

func (m model) canvasRows() int {
	rows := m.height - chromeRows - (lipgloss.Height(m.help.View(m.keyMap)) - 1)
	if rows < 0 {
		return 0
	}
	return rows
}

func (m model) screenSize() geometry.Size {
	return geometry.Size{W: float64(m.width) * CellWidth, H: float64(m.canvasRows()) * CellHeight}
}

func (m model) headerView() string {
	label := "-"
	if n, ok := m.snapshot.Node(m.selected); ok {
		label = fmt.Sprintf("%s (%s)", n.Label, m.catalog.Lookup(n.Metadata).Short)
	}
	return m.style.Header.Render(fmt.Sprintf("branchcanvas │ %d nodes │ zoom %d%% │ %s │ %s",
		len(m.snapshot.Nodes), m.snapshot.ZoomPercent, label, m.snapshot.Gesture.Kind))
}

func (m model) canvasView() string {
	return drawCanvas(&m.snapshot, m.selected, m.pending, m.catalog, m.width, m.canvasRows()).render(m.style.Inks)
}

func (m model) inputView() string {
	if m.state == StateUserInput {
		return m.style.Input.Width(m.width - 2).Render(m.textInput.View())
	}
	return m.style.Idle.Width(m.width - 2).Render(m.textInput.View())
}

func (m model) statusView() string {
	if m.err != nil {
		return m.style.Error.Render(wrapWords(m.err.Error(), m.width-2))
	}
	return m.style.Status.Render(m.status)
}

func (m model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.canvasView(),
		m.inputView(),
		m.statusView(),
		m.help.View(m.keyMap),
	)
}

// drawCanvas lays the snapshot out on a w x h grid.
func drawCanvas(snap *canvas.Snapshot, selected tree.NodeID, pending map[tree.NodeID]bool, catalog *models.Catalog, w, h int) *grid {
	g := newGrid(w, h)
	toScreen := func(p geometry.Point) geometry.Point {
		return geometry.WorldToScreen(p, snap.Pan, snap.Zoom)
	}

	for _, e := range snap.Edges {
		c := e.Curve
		g.curve(geometry.Curve{Start: toScreen(c.Start), C1: toScreen(c.C1), C2: toScreen(c.C2), End: toScreen(c.End)}, inkEdge)
	}

	for _, n := range snap.Nodes {
		tl := toScreen(n.Position)
		br := toScreen(n.Position.Add(geometry.Point{X: snap.Layout.NodeWidth, Y: snap.Layout.NodeHeight(n.Expanded)}))
		x0, y0 := toCell(tl)
		x1, y1 := toCell(br)
		x1, y1 = x1-1, y1-1
		if x1-x0 < 4 || y1-y0 < 2 {
			// too small to draw a frame
			g.set(x0, y0, '■', cardInk(n.ID, selected))
			continue
		}
		ink := cardInk(n.ID, selected)
		g.box(x0, y0, x1, y1, ink)

		inner := x1 - x0 - 3
		tag := catalog.Lookup(n.Metadata).Short
		title := n.Label
		if room := inner - len(tag) - 1; room > 0 {
			title = fitLines(title, room, 1)[0]
			g.text(x1-1-len(tag), y0+1, tag, len(tag), inkAnnotation)
		}
		g.text(x0+2, y0+1, title, inner, inkHeader)

		rows := y1 - y0 - 2
		body := cardBody(n)
		if pending[n.ID] {
			rows--
			g.text(x0+2, y1-1, "thinking...", inner, inkPending)
		}
		for i, line := range fitLines(body, inner, rows) {
			g.text(x0+2, y0+2+i, line, inner, inkBlank)
		}
	}
	return g
}

func cardInk(id, selected tree.NodeID) ink {
	if id == selected {
		return inkSelected
	}
	return inkCard
}

// cardBody is the text shown inside a card: the last entry when collapsed,
// the whole conversation when expanded.
func cardBody(n tree.Node) string {
	entries := n.Payload
	if !n.Expanded && len(entries) > 0 {
		entries = entries[len(entries)-1:]
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		switch e.Role {
		case tree.RoleOriginator:
			parts = append(parts, "> "+e.Text)
		default:
			parts = append(parts, e.Text)
		}
	}
	return strings.Join(parts, "\n")
}
