package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphbuilder/pkg/graph"
	"github.com/matzehuels/graphbuilder/pkg/session"
	"github.com/matzehuels/graphbuilder/pkg/store"
)

// One terminal cell covers cellWidth by cellHeight graph units. Cells are
// about twice as tall as they are wide, so this keeps distances roughly
// proportional.
const (
	cellWidth  = 10.0
	cellHeight = 20.0
)

// Editor styles
var (
	styleNode     = lipgloss.NewStyle().Foreground(colorWhite)
	styleSelected = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleEdge     = lipgloss.NewStyle().Foreground(colorDim)
	styleCursor   = lipgloss.NewStyle().Reverse(true)
	styleError    = lipgloss.NewStyle().Foreground(colorRed)
	styleCanvas   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
)

const (
	glyphNode     = '●'
	glyphSelected = '◉'
	glyphEdge     = '·'
	glyphCursor   = '+'
)

// editCommand creates the "edit" command.
func (c *CLI) editCommand() *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "edit NAME",
		Short: "Edit a graph in the terminal",
		Long: `Edit opens the named graph in an interactive editor.

Move the cursor with the arrow keys (or hjkl). Enter or space on an empty
cell adds a node there, connected to the selected node; on a node it
selects the node. Shift+arrows drag the selected node, tab cycles the
selection, x deletes the selected node, c clears the selection, s saves
and q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			// The editor owns the terminal, so session logs are dropped.
			quiet := session.WithLogger(log.New(io.Discard))
			sess, report, err := c.openSession(ctx, st, name, quiet)
			switch {
			case errors.Is(err, store.ErrNotFound) && create:
				sess = c.newSession(quiet)
			case err != nil:
				return err
			default:
				printReport(report)
			}

			m := newEditorModel(name, sess, c.config.Editor.Width, c.config.Editor.Height, func() error {
				return saveSession(ctx, st, name, sess)
			})
			final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if err != nil {
				return fmt.Errorf("editor: %w", err)
			}

			if fm, ok := final.(editorModel); ok && fm.dirty {
				printWarning("Discarded unsaved changes to %s", name)
				return nil
			}
			g := sess.Graph()
			printSuccess("Closed %s", StyleHighlight.Render(name))
			printStats(g.Len(), g.EdgeCount(), nil)
			return nil
		},
	}

	cmd.Flags().BoolVar(&create, "create", false, "start an empty graph if NAME does not exist")
	return cmd
}

// =============================================================================
// canvas - Renderer fed by session deltas
// =============================================================================

// canvas mirrors the graph from session deltas alone. It never reads the
// session's graph.
type canvas struct {
	nodes    map[string]graph.Point
	edges    map[graph.Edge]struct{}
	selected string
}

func newCanvas() *canvas {
	return &canvas{
		nodes: make(map[string]graph.Point),
		edges: make(map[graph.Edge]struct{}),
	}
}

// Apply implements session.Renderer.
func (cv *canvas) Apply(d session.Delta) {
	if d.Reset {
		clear(cv.nodes)
		clear(cv.edges)
	}
	for _, id := range d.RemovedNodes {
		delete(cv.nodes, id)
	}
	for _, e := range d.RemovedEdges {
		delete(cv.edges, e)
	}
	for _, n := range d.AddedNodes {
		cv.nodes[n.ID] = n.Position
	}
	for _, n := range d.Moved {
		cv.nodes[n.ID] = n.Position
	}
	for _, e := range d.AddedEdges {
		cv.edges[e] = struct{}{}
	}
	if d.SelectionChanged {
		cv.selected = d.Selected
	}
}

// ids returns the node IDs in ascending order.
func (cv *canvas) ids() []string {
	return slices.Sorted(maps.Keys(cv.nodes))
}

// nodeAt returns the first node, by ID, drawn in the given cell.
func (cv *canvas) nodeAt(col, row int) (string, bool) {
	for _, id := range cv.ids() {
		if c, r := cellOf(cv.nodes[id]); c == col && r == row {
			return id, true
		}
	}
	return "", false
}

func cellOf(p graph.Point) (col, row int) {
	return int(math.Round(p.X / cellWidth)), int(math.Round(p.Y / cellHeight))
}

func pointOf(col, row int) graph.Point {
	return graph.Point{X: float64(col) * cellWidth, Y: float64(row) * cellHeight}
}

// =============================================================================
// editorModel - bubbletea model
// =============================================================================

type editorModel struct {
	name   string
	sess   *session.Session
	canvas *canvas
	save   func() error

	width, height int
	col, row      int

	dirty       bool
	confirmQuit bool
	status      string
	err         error
}

func newEditorModel(name string, sess *session.Session, width, height int, save func() error) editorModel {
	cv := newCanvas()
	sess.SetRenderer(cv)
	cv.Apply(sess.Snapshot())

	return editorModel{
		name:   name,
		sess:   sess,
		canvas: cv,
		save:   save,
		width:  width,
		height: height,
		col:    width / 2,
		row:    height / 2,
	}
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	m.status, m.err = "", nil
	k := key.String()
	if k != "q" {
		m.confirmQuit = false
	}

	switch k {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.dirty && !m.confirmQuit {
			m.confirmQuit = true
			m.status = "Unsaved changes. Press q again to quit, s to save."
			return m, nil
		}
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(0, -1)
	case "down", "j":
		m.moveCursor(0, 1)
	case "left", "h":
		m.moveCursor(-1, 0)
	case "right", "l":
		m.moveCursor(1, 0)

	case "shift+up":
		m.drag(0, -1)
	case "shift+down":
		m.drag(0, 1)
	case "shift+left":
		m.drag(-1, 0)
	case "shift+right":
		m.drag(1, 0)

	case "enter", " ", "space":
		m.tap()
	case "tab":
		m.cycle()
	case "x", "delete", "backspace":
		if m.canvas.selected != "" {
			m.mutate(m.sess.UserRequestedDelete())
		}
	case "c", "esc":
		m.sess.ClearSelection()

	case "s":
		if err := m.save(); err != nil {
			m.err = err
			return m, nil
		}
		m.dirty = false
		m.status = "Saved " + m.name
	}
	return m, nil
}

func (m *editorModel) moveCursor(dc, dr int) {
	m.col = clamp(m.col+dc, 0, m.width-1)
	m.row = clamp(m.row+dr, 0, m.height-1)
}

// tap selects the node under the cursor, or adds one there.
func (m *editorModel) tap() {
	if id, ok := m.canvas.nodeAt(m.col, m.row); ok {
		m.err = m.sess.UserSelected(id)
		return
	}
	_, err := m.sess.UserTapped(pointOf(m.col, m.row))
	m.mutate(err)
}

// drag moves the selected node one cell and keeps the cursor on it.
func (m *editorModel) drag(dc, dr int) {
	id := m.canvas.selected
	if id == "" {
		m.err = session.ErrNoSelection
		return
	}
	col, row := cellOf(m.canvas.nodes[id])
	col, row = clamp(col+dc, 0, m.width-1), clamp(row+dr, 0, m.height-1)
	if err := m.sess.UserDragged(id, pointOf(col, row)); err != nil {
		m.err = err
		return
	}
	m.col, m.row = col, row
	m.dirty = true
}

// cycle selects the node after the current selection in ID order.
func (m *editorModel) cycle() {
	ids := m.canvas.ids()
	if len(ids) == 0 {
		return
	}
	next := ids[0]
	if i := slices.Index(ids, m.canvas.selected); i >= 0 {
		next = ids[(i+1)%len(ids)]
	}
	if err := m.sess.UserSelected(next); err != nil {
		m.err = err
		return
	}
	col, row := cellOf(m.canvas.nodes[next])
	if col >= 0 && col < m.width && row >= 0 && row < m.height {
		m.col, m.row = col, row
	}
}

func (m *editorModel) mutate(err error) {
	if err != nil {
		m.err = err
		return
	}
	m.dirty = true
}

func (m editorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("graphbuilder"))
	b.WriteString(" ")
	b.WriteString(StyleValue.Render(m.name))
	if m.dirty {
		b.WriteString(StyleWarning.Render(" [modified]"))
	}
	b.WriteString("\n")

	b.WriteString(styleCanvas.Render(m.grid()))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(styleError.Render(iconError + " " + m.err.Error()))
	case m.status != "":
		b.WriteString(StyleHighlight.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←↑↓→ move  ⏎ tap  tab select  ⇧+arrows drag  x delete  c clear  s save  q quit"))
	return b.String()
}

type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellEdge
	cellNode
	cellSelected
)

// grid draws edges first, then nodes, then the cursor on top.
func (m editorModel) grid() string {
	cells := make([][]cellKind, m.height)
	for r := range cells {
		cells[r] = make([]cellKind, m.width)
	}
	set := func(col, row int, k cellKind) {
		if col >= 0 && col < m.width && row >= 0 && row < m.height && cells[row][col] < k {
			cells[row][col] = k
		}
	}

	// Edges reaching far outside the canvas are skipped to bound the walk.
	reach := 4 * max(m.width, m.height)
	near := func(col, row int) bool {
		return col > -reach && col < m.width+reach && row > -reach && row < m.height+reach
	}
	for e := range m.canvas.edges {
		c0, r0 := cellOf(m.canvas.nodes[e.A])
		c1, r1 := cellOf(m.canvas.nodes[e.B])
		if !near(c0, r0) || !near(c1, r1) {
			continue
		}
		line(c0, r0, c1, r1, func(col, row int) { set(col, row, cellEdge) })
	}
	for id, p := range m.canvas.nodes {
		col, row := cellOf(p)
		if id == m.canvas.selected {
			set(col, row, cellSelected)
		} else {
			set(col, row, cellNode)
		}
	}

	var b strings.Builder
	for r, rowCells := range cells {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c, k := range rowCells {
			var glyph rune
			style := lipgloss.NewStyle()
			switch k {
			case cellEdge:
				glyph, style = glyphEdge, styleEdge
			case cellNode:
				glyph, style = glyphNode, styleNode
			case cellSelected:
				glyph, style = glyphSelected, styleSelected
			default:
				glyph = ' '
			}
			if c == m.col && r == m.row {
				if k == cellEmpty || k == cellEdge {
					glyph = glyphCursor
				}
				style = style.Inherit(styleCursor)
			}
			b.WriteString(style.Render(string(glyph)))
		}
	}
	return b.String()
}

func (m editorModel) statusLine() string {
	p := pointOf(m.col, m.row)
	parts := []string{fmt.Sprintf("cursor (%s, %s)", formatCoord(p.X), formatCoord(p.Y))}

	if id := m.canvas.selected; id != "" {
		sp := m.canvas.nodes[id]
		parts = append(parts, fmt.Sprintf("selected %s (%s, %s)", id, formatCoord(sp.X), formatCoord(sp.Y)))
	} else {
		parts = append(parts, "no selection")
	}
	parts = append(parts, fmt.Sprintf("%d nodes", len(m.canvas.nodes)), fmt.Sprintf("%d edges", len(m.canvas.edges)))

	hidden := 0
	for _, p := range m.canvas.nodes {
		if col, row := cellOf(p); col < 0 || col >= m.width || row < 0 || row >= m.height {
			hidden++
		}
	}
	if hidden > 0 {
		parts = append(parts, fmt.Sprintf("%d off canvas", hidden))
	}
	return StyleDim.Render(strings.Join(parts, " · "))
}

// line calls plot for every cell on the segment between two cells,
// excluding the endpoints.
func line(c0, r0, c1, r1 int, plot func(col, row int)) {
	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	errTerm := dc + dr

	c, r := c0, r0
	for c != c1 || r != r1 {
		e2 := 2 * errTerm
		if e2 >= dr {
			errTerm += dr
			c += sc
		}
		if e2 <= dc {
			errTerm += dc
			r += sr
		}
		if c != c1 || r != r1 {
			plot(c, r)
		}
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
