// Package session implements the editing session that mediates between a
// renderer and the graph being edited.
//
// A [Session] owns one [graph.Graph] and tracks the currently selected node.
// Renderers translate user input into session calls (tap, select, drag,
// delete) and receive a [Delta] after every successful mutation, which is
// enough to update their visuals without rescanning the graph.
//
// # State
//
// The selection is either empty or names a node in the graph. Adding a node
// while another is selected connects the two and moves the selection to the
// new node, so consecutive taps draw a path:
//
//	s := session.New()
//	s.AddNode(graph.Point{X: 0, Y: 0}, "a")   // selection: a
//	s.AddNode(graph.Point{X: 10, Y: 0}, "b")  // edge a-b, selection: b
//	s.DeleteSelected()                        // removes b and a-b, no selection
//
// # Failure Semantics
//
// An operation that returns an error leaves the graph and the selection
// unchanged and emits no delta.
//
// # Concurrency
//
// Session performs no I/O and never blocks. It is not safe for concurrent
// use; callers that share a session across goroutines must serialize access.
package session

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
	"github.com/matzehuels/graphbuilder/pkg/graph"
	gbio "github.com/matzehuels/graphbuilder/pkg/io"
)

// Sentinel errors for session operations.
var (
	// ErrDuplicateNode is returned by AddNode when the ID is already in use.
	ErrDuplicateNode = apperr.New(apperr.ErrCodeDuplicateNode, "duplicate node id")

	// ErrNoSelection is returned by operations that act on the selection
	// when nothing is selected.
	ErrNoSelection = apperr.New(apperr.ErrCodeNoSelection, "no node selected")
)

// maxIDAttempts bounds how many generated IDs are tried before giving up.
const maxIDAttempts = 64

// Session is the stateful controller for editing a graph.
type Session struct {
	graph    *graph.Graph
	selected string

	renderer Renderer
	ids      IDGenerator
	logger   *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithGraph starts the session from a copy of g instead of an empty graph.
func WithGraph(g *graph.Graph) Option {
	return func(s *Session) {
		if g != nil {
			s.graph = g.Clone()
		}
	}
}

// WithRenderer registers the renderer that receives deltas.
func WithRenderer(r Renderer) Option {
	return func(s *Session) { s.renderer = r }
}

// WithIDGenerator sets the generator used for nodes created without an ID.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Session) {
		if gen != nil {
			s.ids = gen
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a session with no selection.
func New(opts ...Option) *Session {
	s := &Session{
		graph:  graph.New(),
		ids:    UUIDGenerator{},
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRenderer replaces the renderer. A nil renderer disables notifications.
func (s *Session) SetRenderer(r Renderer) { s.renderer = r }

// Graph returns a copy of the graph being edited.
func (s *Session) Graph() *graph.Graph { return s.graph.Clone() }

// Selected returns the selected node ID, if any.
func (s *Session) Selected() (string, bool) { return s.selected, s.selected != "" }

// Snapshot returns a reset delta describing the whole graph and selection.
// Renderers attaching to a session mid-way use it for their first frame.
func (s *Session) Snapshot() Delta { return snapshot(s.graph, s.selected) }

// AddNode creates a node at p. An empty id is replaced by a generated one.
// If a node was selected, it is connected to the new node. The new node
// becomes the selection. AddNode returns the ID of the new node.
//
// Returns ErrDuplicateNode if id is already in use, or an INVALID_INPUT
// error if id is malformed or p is not finite.
func (s *Session) AddNode(p graph.Point, id string) (string, error) {
	if id == "" {
		generated, err := s.generateID()
		if err != nil {
			return "", err
		}
		id = generated
	} else if err := apperr.ValidateNodeID(id); err != nil {
		return "", err
	}
	if s.graph.Has(id) {
		return "", fmt.Errorf("add %q: %w", id, ErrDuplicateNode)
	}

	if err := s.graph.AddNode(graph.NewNode(id, p)); err != nil {
		return "", err
	}
	d := Delta{AddedNodes: []NodePosition{{ID: id, Position: p}}}

	if prev := s.selected; prev != "" {
		if err := s.graph.Connect(prev, id); err != nil {
			// The selection always names a live node, so this is unreachable
			// unless the invariant is broken; undo to stay atomic.
			_, _ = s.graph.RemoveNode(id)
			return "", fmt.Errorf("add %q: %w", id, err)
		}
		d.AddedEdges = []graph.Edge{graph.NewEdge(prev, id)}
	}

	s.selected = id
	d.Selected, d.SelectionChanged = id, true
	s.logger.Debug("node added", "id", id, "x", p.X, "y", p.Y, "edges", len(d.AddedEdges))
	s.emit(d)
	return id, nil
}

// Select makes id the selection.
//
// Returns ErrUnknownNode if id is absent.
func (s *Session) Select(id string) error {
	if !s.graph.Has(id) {
		return fmt.Errorf("select %q: %w", id, graph.ErrUnknownNode)
	}
	if s.selected == id {
		return nil
	}
	s.selected = id
	s.logger.Debug("node selected", "id", id)
	s.emit(Delta{Selected: id, SelectionChanged: true})
	return nil
}

// ClearSelection drops the selection, if any.
func (s *Session) ClearSelection() {
	if s.selected == "" {
		return
	}
	s.selected = ""
	s.emit(Delta{SelectionChanged: true})
}

// MovePoint moves node id to p. Adjacency is untouched.
//
// Returns ErrUnknownNode if id is absent, or graph.ErrInvalidPosition if p
// is not finite.
func (s *Session) MovePoint(id string, p graph.Point) error {
	if err := s.graph.SetPosition(id, p); err != nil {
		return err
	}
	s.logger.Debug("node moved", "id", id, "x", p.X, "y", p.Y)
	s.emit(Delta{Moved: []NodePosition{{ID: id, Position: p}}, Selected: s.selected})
	return nil
}

// MoveSelected moves the selected node to p.
//
// Returns ErrNoSelection if nothing is selected.
func (s *Session) MoveSelected(p graph.Point) error {
	if s.selected == "" {
		return ErrNoSelection
	}
	return s.MovePoint(s.selected, p)
}

// DeleteSelected removes the selected node and all its edges, then clears
// the selection. It does nothing when nothing is selected.
func (s *Session) DeleteSelected() error {
	if s.selected == "" {
		return nil
	}
	return s.DeleteNode(s.selected)
}

// DeleteNode removes node id and all its edges. If id was selected the
// selection is cleared.
//
// Returns ErrUnknownNode if id is absent.
func (s *Session) DeleteNode(id string) error {
	neighbors, err := s.graph.RemoveNode(id)
	if err != nil {
		return err
	}

	d := Delta{RemovedNodes: []string{id}, Selected: s.selected}
	for _, other := range neighbors {
		d.RemovedEdges = append(d.RemovedEdges, graph.NewEdge(id, other))
	}
	if s.selected == id {
		s.selected = ""
		d.Selected, d.SelectionChanged = "", true
	}
	s.logger.Debug("node deleted", "id", id, "edges", len(neighbors))
	s.emit(d)
	return nil
}

// Connect adds the edge a-b. Connecting an already connected pair succeeds
// without emitting a delta.
//
// Returns ErrUnknownNode if either node is absent, or ErrSelfLoop if a == b.
func (s *Session) Connect(a, b string) error {
	existed := s.graph.Connected(a, b)
	if err := s.graph.Connect(a, b); err != nil {
		return err
	}
	if existed {
		return nil
	}
	s.logger.Debug("nodes connected", "a", a, "b", b)
	s.emit(Delta{AddedEdges: []graph.Edge{graph.NewEdge(a, b)}, Selected: s.selected})
	return nil
}

// Disconnect removes the edge a-b. Disconnecting an unconnected pair
// succeeds without emitting a delta.
//
// Returns ErrUnknownNode if either node is absent.
func (s *Session) Disconnect(a, b string) error {
	existed := s.graph.Connected(a, b)
	if err := s.graph.Disconnect(a, b); err != nil {
		return err
	}
	if !existed {
		return nil
	}
	s.logger.Debug("nodes disconnected", "a", a, "b", b)
	s.emit(Delta{RemovedEdges: []graph.Edge{graph.NewEdge(a, b)}, Selected: s.selected})
	return nil
}

// Load replaces the graph with a copy of g and clears the selection.
// The renderer receives a reset delta describing the new graph.
func (s *Session) Load(g *graph.Graph) {
	if g == nil {
		g = graph.New()
	}
	s.graph = g.Clone()
	s.selected = ""
	s.logger.Debug("graph loaded", "nodes", s.graph.Len(), "edges", s.graph.EdgeCount())
	s.emit(snapshot(s.graph, ""))
}

// LoadDocument decodes data and loads the result. On error the session is
// unchanged. The returned report lists what lenient decoding discarded.
func (s *Session) LoadDocument(data []byte, opts gbio.DecodeOptions) (*gbio.Report, error) {
	g, report, err := gbio.DecodeDetailed(data, opts)
	if err != nil {
		return nil, err
	}
	for _, skipped := range report.Skipped {
		s.logger.Warn("skipped element", "index", skipped.Index, "reason", skipped.Reason)
	}
	if report.DroppedRefs > 0 {
		s.logger.Warn("dropped invalid references", "count", report.DroppedRefs)
	}
	s.Load(g)
	return report, nil
}

// Document encodes the graph as a JSON document.
func (s *Session) Document() ([]byte, error) {
	return gbio.Encode(s.graph)
}

// UserTapped handles a tap on empty canvas: a new node with a generated ID.
func (s *Session) UserTapped(p graph.Point) (string, error) {
	return s.AddNode(p, "")
}

// UserSelected handles a tap on an existing node.
func (s *Session) UserSelected(id string) error { return s.Select(id) }

// UserDragged handles a node being dragged to p.
func (s *Session) UserDragged(id string, p graph.Point) error { return s.MovePoint(id, p) }

// UserRequestedDelete handles the delete action.
func (s *Session) UserRequestedDelete() error { return s.DeleteSelected() }

func (s *Session) generateID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		if id := s.ids.NextID(); id != "" && !s.graph.Has(id) {
			return id, nil
		}
	}
	return "", apperr.New(apperr.ErrCodeInternal, "could not generate a free node id after %d attempts", maxIDAttempts)
}

func (s *Session) emit(d Delta) {
	if s.renderer != nil {
		s.renderer.Apply(d)
	}
}
