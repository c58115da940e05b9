package graph

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
)

// checkInvariants fails the test if symmetry or referential closure is violated.
func checkInvariants(t *testing.T, g *Graph) {
	t.Helper()
	for _, n := range g.Nodes() {
		related := n.Related()
		if !slices.IsSorted(related) {
			t.Errorf("node %q adjacency not sorted: %v", n.ID, related)
		}
		if len(slices.Compact(slices.Clone(related))) != len(related) {
			t.Errorf("node %q adjacency has duplicates: %v", n.ID, related)
		}
		for _, other := range related {
			if other == n.ID {
				t.Errorf("node %q is related to itself", n.ID)
			}
			on, ok := g.Node(other)
			if !ok {
				t.Errorf("node %q references missing node %q", n.ID, other)
				continue
			}
			if !on.IsRelated(n.ID) {
				t.Errorf("edge %q->%q has no reverse entry", n.ID, other)
			}
		}
	}
}

func buildGraph(t *testing.T, ids []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for i, id := range ids {
		if err := g.AddNode(NewNode(id, Point{X: float64(i), Y: float64(i * 2)})); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.Connect(e[0], e[1]); err != nil {
			t.Fatalf("Connect(%q, %q): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestAddNode(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", X: 1, Y: 2})

	n, ok := g.Node("a")
	if !ok {
		t.Fatal("node a not found")
	}
	if n.Position() != (Point{X: 1, Y: 2}) {
		t.Errorf("Position() = %v, want {1 2}", n.Position())
	}
	if n.Degree() != 0 {
		t.Errorf("Degree() = %d, want 0", n.Degree())
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}

func TestAddNodeReplaceTearsDownEdges(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"a", "c"}})

	g.AddNode(Node{ID: "a", X: 9, Y: 9})

	n, _ := g.Node("a")
	if n.Position() != (Point{X: 9, Y: 9}) {
		t.Errorf("replaced position = %v, want {9 9}", n.Position())
	}
	if n.Degree() != 0 {
		t.Errorf("replaced node keeps %d neighbors, want 0", n.Degree())
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
	checkInvariants(t, g)
}

func TestAddNodeIgnoresCallerAdjacency(t *testing.T) {
	src := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	a, _ := src.Node("a")

	g := New()
	g.AddNode(a)

	got, _ := g.Node("a")
	if got.Degree() != 0 {
		t.Errorf("Degree() = %d, want 0 (adjacency is graph-owned)", got.Degree())
	}
	checkInvariants(t, g)
}

func TestAddNodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		node Node
	}{
		{"EmptyID", NewNode("", Point{})},
		{"BlankID", NewNode("  ", Point{})},
		{"ControlCharID", NewNode("a\x00", Point{})},
		{"NaNX", NewNode("a", Point{X: math.NaN()})},
		{"InfY", NewNode("a", Point{Y: math.Inf(-1)})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
			err := g.AddNode(tt.node)
			if !apperr.Is(err, apperr.ErrCodeInvalidInput) {
				t.Fatalf("AddNode error = %v, want INVALID_INPUT", err)
			}
			if g.Len() != 2 || !g.Connected("a", "b") {
				t.Error("rejected AddNode changed the graph")
			}
			if n, _ := g.Node("a"); n.Position() != (Point{}) {
				t.Errorf("rejected AddNode moved a to %v", n.Position())
			}
		})
	}
}

func TestConnect(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		wantErr  error
		wantEdge bool
	}{
		{name: "Valid", a: "a", b: "b", wantEdge: true},
		{name: "Reversed", a: "b", b: "a", wantEdge: true},
		{name: "UnknownFirst", a: "x", b: "b", wantErr: ErrUnknownNode},
		{name: "UnknownSecond", a: "a", b: "x", wantErr: ErrUnknownNode},
		{name: "SelfLoop", a: "a", b: "a", wantErr: ErrSelfLoop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, []string{"a", "b"}, nil)
			err := g.Connect(tt.a, tt.b)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Connect() error = %v, want %v", err, tt.wantErr)
			}
			if got := g.Connected("a", "b"); got != tt.wantEdge {
				t.Errorf("Connected(a, b) = %v, want %v", got, tt.wantEdge)
			}
			if got := g.Connected("b", "a"); got != tt.wantEdge {
				t.Errorf("Connected(b, a) = %v, want %v", got, tt.wantEdge)
			}
			checkInvariants(t, g)
		})
	}
}

func TestConnectIdempotent(t *testing.T) {
	once := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	twice := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"a", "b"}, {"b", "a"}})

	for _, id := range []string{"a", "b"} {
		n1, _ := once.Node(id)
		n2, _ := twice.Node(id)
		if !slices.Equal(n1.Related(), n2.Related()) {
			t.Errorf("node %q: once=%v twice=%v", id, n1.Related(), n2.Related())
		}
	}
	if twice.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", twice.EdgeCount())
	}
}

func TestDisconnect(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})

	if err := g.Disconnect("b", "a"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if g.Connected("a", "b") || g.Connected("b", "a") {
		t.Error("a-b still connected")
	}
	if !g.Connected("b", "c") {
		t.Error("b-c should remain connected")
	}

	// Never connected: no-op.
	if err := g.Disconnect("a", "c"); err != nil {
		t.Errorf("Disconnect of unconnected pair: %v", err)
	}

	if err := g.Disconnect("a", "missing"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Disconnect unknown error = %v, want ErrUnknownNode", err)
	}
	checkInvariants(t, g)
}

func TestRemoveNode(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"a", "c"}, {"c", "d"}})

	neighbors, err := g.RemoveNode("a")
	if err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}
	if !slices.Equal(neighbors, []string{"b", "c"}) {
		t.Errorf("neighbors = %v, want [b c]", neighbors)
	}
	if g.Has("a") {
		t.Error("node a still present")
	}
	for _, n := range g.Nodes() {
		if n.IsRelated("a") {
			t.Errorf("node %q still references a", n.ID)
		}
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	checkInvariants(t, g)
}

func TestRemoveNodeUnknownLeavesGraphUnchanged(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	before := g.Edges()

	if _, err := g.RemoveNode("x"); !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("RemoveNode error = %v, want ErrUnknownNode", err)
	}
	if g.Len() != 2 || !slices.Equal(g.Edges(), before) {
		t.Error("graph mutated by failed RemoveNode")
	}
}

func TestSetPosition(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}})

	if err := g.SetPosition("a", Point{X: 5, Y: -3}); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	n, _ := g.Node("a")
	if n.Position() != (Point{X: 5, Y: -3}) {
		t.Errorf("Position() = %v, want {5 -3}", n.Position())
	}
	if !g.Connected("a", "b") {
		t.Error("SetPosition must keep adjacency")
	}
	if err := g.SetPosition("x", Point{}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("SetPosition unknown error = %v, want ErrUnknownNode", err)
	}
	if err := g.SetPosition("a", Point{X: math.NaN()}); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("SetPosition NaN error = %v, want ErrInvalidPosition", err)
	}
	if n, _ := g.Node("a"); n.Position() != (Point{X: 5, Y: -3}) {
		t.Errorf("failed SetPosition moved the node to %v", n.Position())
	}
}

func TestNodeReturnsCopy(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}})

	n, _ := g.Node("a")
	n.X = 100
	related := n.Related()
	related[0] = "zzz"

	again, _ := g.Node("a")
	if again.X == 100 {
		t.Error("mutating returned node changed the graph")
	}
	if !again.IsRelated("b") {
		t.Error("mutating Related() result changed the graph")
	}
}

func TestEdges(t *testing.T) {
	g := buildGraph(t, []string{"c", "a", "b"}, [][2]string{{"c", "a"}, {"b", "a"}, {"c", "b"}})

	want := []Edge{{A: "a", B: "b"}, {A: "a", B: "c"}, {A: "b", B: "c"}}
	if got := g.Edges(); !slices.Equal(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3", g.EdgeCount())
	}
}

func TestClone(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	c := g.Clone()

	if err := c.Disconnect("a", "b"); err != nil {
		t.Fatal(err)
	}
	c.AddNode(Node{ID: "z"})

	if !g.Connected("a", "b") {
		t.Error("clone mutation affected original adjacency")
	}
	if g.Has("z") {
		t.Error("clone mutation affected original nodes")
	}
}

func TestBounds(t *testing.T) {
	g := New()
	lo, hi := g.Bounds()
	if lo != (Point{}) || hi != (Point{}) {
		t.Errorf("empty Bounds() = %v %v, want zero", lo, hi)
	}

	g.AddNode(Node{ID: "a", X: -1, Y: 4})
	g.AddNode(Node{ID: "b", X: 3, Y: -2})
	g.AddNode(Node{ID: "c", X: 0, Y: 0})
	lo, hi = g.Bounds()
	if lo != (Point{X: -1, Y: -2}) || hi != (Point{X: 3, Y: 4}) {
		t.Errorf("Bounds() = %v %v, want {-1 -2} {3 4}", lo, hi)
	}
}

func TestNewEdgeNormalizes(t *testing.T) {
	e := NewEdge("b", "a")
	if e.A != "a" || e.B != "b" {
		t.Errorf("NewEdge(b, a) = %v, want {a b}", e)
	}
	if e.Other("a") != "b" || e.Other("b") != "a" {
		t.Error("Other() returned wrong endpoint")
	}
	if !e.Has("a") || e.Has("c") {
		t.Error("Has() mismatch")
	}
}

func TestInvariantsUnderRandomOperations(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%02d", i)
	}

	g := New()
	for step := 0; step < 2000; step++ {
		a, b := ids[r.IntN(len(ids))], ids[r.IntN(len(ids))]
		switch r.IntN(5) {
		case 0:
			g.AddNode(Node{ID: a, X: r.Float64(), Y: r.Float64()})
		case 1, 2:
			_ = g.Connect(a, b)
		case 3:
			_ = g.Disconnect(a, b)
		case 4:
			_, _ = g.RemoveNode(a)
			for _, n := range g.Nodes() {
				if n.IsRelated(a) {
					t.Fatalf("step %d: %q still references removed %q", step, n.ID, a)
				}
			}
		}
		checkInvariants(t, g)
		if err := g.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
		if t.Failed() {
			t.Fatalf("invariant violated at step %d", step)
		}
	}
}

func TestValidateDetectsBrokenAdjacency(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *Graph)
		want   error
	}{
		{"Dangling", func(g *Graph) { g.nodes["a"].related = []string{"b", "ghost"} }, ErrUnknownNode},
		{"SelfLoop", func(g *Graph) { g.nodes["a"].related = []string{"a", "b"} }, ErrSelfLoop},
		{"OneSided", func(g *Graph) { g.nodes["b"].related = nil }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			g.AddNode(Node{ID: "a"})
			g.AddNode(Node{ID: "b"})
			_ = g.Connect("a", "b")
			if err := g.Validate(); err != nil {
				t.Fatalf("valid graph: %v", err)
			}
			tt.mutate(g)
			err := g.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
