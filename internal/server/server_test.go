package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
	gbio "github.com/matzehuels/graphbuilder/pkg/io"
	"github.com/matzehuels/graphbuilder/pkg/session"
	"github.com/matzehuels/graphbuilder/pkg/store"
)

type fixture struct {
	t     *testing.T
	srv   *httptest.Server
	store *store.FileStore
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sess := session.New(session.WithIDGenerator(session.NewCounterGenerator("n")))
	opts = append([]Option{WithStore(st, "test"), WithLogger(log.New(io.Discard))}, opts...)
	srv := httptest.NewServer(New(sess, opts...).Handler())
	t.Cleanup(srv.Close)
	return &fixture{t: t, srv: srv, store: st}
}

func (f *fixture) do(method, path, body string) (int, []byte) {
	f.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, r)
	if err != nil {
		f.t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		f.t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		f.t.Fatal(err)
	}
	return resp.StatusCode, data
}

func (f *fixture) mutate(method, path, body string) mutationResponse {
	f.t.Helper()
	status, data := f.do(method, path, body)
	if status >= 300 {
		f.t.Fatalf("%s %s = %d: %s", method, path, status, data)
	}
	var resp mutationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		f.t.Fatalf("decode %s: %v", data, err)
	}
	return resp
}

func (f *fixture) expectError(method, path, body string, wantStatus int, wantCode apperr.Code) {
	f.t.Helper()
	status, data := f.do(method, path, body)
	if status != wantStatus {
		f.t.Errorf("%s %s status = %d, want %d (%s)", method, path, status, wantStatus, data)
	}
	var resp errorResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		f.t.Fatalf("decode error body %s: %v", data, err)
	}
	if resp.Code != wantCode {
		f.t.Errorf("%s %s code = %s, want %s", method, path, resp.Code, wantCode)
	}
}

func (f *fixture) graph() []byte {
	f.t.Helper()
	status, data := f.do(http.MethodGet, "/graph", "")
	if status != http.StatusOK {
		f.t.Fatalf("GET /graph = %d", status)
	}
	return data
}

func TestTapDeltaAndGraph(t *testing.T) {
	f := newFixture(t)

	first := f.mutate(http.MethodPost, "/nodes", `{"x":0,"y":0}`)
	if first.ID != "n1" || len(first.Deltas) != 1 {
		t.Fatalf("first tap = %+v", first)
	}
	if d := first.Deltas[0]; len(d.AddedNodes) != 1 || d.Selected == nil || *d.Selected != "n1" {
		t.Errorf("first delta = %+v", d)
	}

	second := f.mutate(http.MethodPost, "/nodes", `{"x":10,"y":0}`)
	d := second.Deltas[0]
	if len(d.AddedEdges) != 1 || d.AddedEdges[0] != (edgeJSON{A: "n1", B: "n2"}) {
		t.Errorf("second tap should connect n1-n2, got %+v", d.AddedEdges)
	}

	want := `[{"x":0,"y":0,"id":"n1","relatedNodes":["n2"]},{"x":10,"y":0,"id":"n2","relatedNodes":["n1"]}]`
	if got := string(f.graph()); got != want {
		t.Errorf("GET /graph = %s, want %s", got, want)
	}
}

func TestAddNodeValidation(t *testing.T) {
	f := newFixture(t)
	f.mutate(http.MethodPost, "/nodes", `{"x":0,"y":0,"id":"a"}`)

	f.expectError(http.MethodPost, "/nodes", `{"x":1,"y":1,"id":"a"}`, http.StatusConflict, apperr.ErrCodeDuplicateNode)
	f.expectError(http.MethodPost, "/nodes", `{"x":1}`, http.StatusBadRequest, apperr.ErrCodeInvalidInput)
	f.expectError(http.MethodPost, "/nodes", `{"x":"1","y":1}`, http.StatusBadRequest, apperr.ErrCodeInvalidInput)
	f.expectError(http.MethodPost, "/nodes", `{"x":1,"y":1,"colour":"red"}`, http.StatusBadRequest, apperr.ErrCodeInvalidInput)
	f.expectError(http.MethodPost, "/nodes", `not json`, http.StatusBadRequest, apperr.ErrCodeInvalidInput)
}

func TestSelectionFlow(t *testing.T) {
	f := newFixture(t)
	f.mutate(http.MethodPost, "/nodes", `{"x":0,"y":0,"id":"a"}`)
	f.mutate(http.MethodDelete, "/selection", "")

	_, data := f.do(http.MethodGet, "/selection", "")
	if strings.TrimSpace(string(data)) != `{"selected":null}` {
		t.Errorf("GET /selection = %s", data)
	}

	f.mutate(http.MethodPost, "/nodes", `{"x":5,"y":5,"id":"b"}`)
	f.mutate(http.MethodPost, "/selection", `{"id":"a"}`)
	resp := f.mutate(http.MethodPost, "/nodes", `{"x":9,"y":9,"id":"c"}`)
	if len(resp.Deltas[0].AddedEdges) != 1 || resp.Deltas[0].AddedEdges[0] != (edgeJSON{A: "a", B: "c"}) {
		t.Errorf("tap after select should connect a-c, got %+v", resp.Deltas[0].AddedEdges)
	}

	f.expectError(http.MethodPost, "/selection", `{"id":"ghost"}`, http.StatusNotFound, apperr.ErrCodeUnknownNode)

	moved := f.mutate(http.MethodPut, "/selection/position", `{"x":1,"y":2}`)
	if m := moved.Deltas[0].Moved; len(m) != 1 || m[0] != (nodeJSON{ID: "c", X: 1, Y: 2}) {
		t.Errorf("moved = %+v", m)
	}

	del := f.mutate(http.MethodDelete, "/selection/node", "")
	d := del.Deltas[0]
	if len(d.RemovedNodes) != 1 || d.RemovedNodes[0] != "c" || d.Selected != nil {
		t.Errorf("delete selected delta = %+v", d)
	}

	// nothing selected now
	empty := f.mutate(http.MethodDelete, "/selection/node", "")
	if len(empty.Deltas) != 0 {
		t.Errorf("delete without selection emitted %+v", empty.Deltas)
	}
	f.expectError(http.MethodPut, "/selection/position", `{"x":1,"y":2}`, http.StatusConflict, apperr.ErrCodeNoSelection)
}

func TestNodeRoutes(t *testing.T) {
	f := newFixture(t)
	f.mutate(http.MethodPost, "/nodes", `{"x":0,"y":0,"id":"a"}`)
	f.mutate(http.MethodPost, "/nodes", `{"x":1,"y":1,"id":"b"}`)

	resp := f.mutate(http.MethodPut, "/nodes/a/position", `{"x":7,"y":8}`)
	if m := resp.Deltas[0].Moved; len(m) != 1 || m[0].X != 7 {
		t.Errorf("moved = %+v", m)
	}
	f.expectError(http.MethodPut, "/nodes/ghost/position", `{"x":7,"y":8}`, http.StatusNotFound, apperr.ErrCodeUnknownNode)

	resp = f.mutate(http.MethodDelete, "/nodes/a", "")
	if d := resp.Deltas[0]; len(d.RemovedEdges) != 1 {
		t.Errorf("delete a = %+v", d)
	}
	f.expectError(http.MethodDelete, "/nodes/a", "", http.StatusNotFound, apperr.ErrCodeUnknownNode)
}

func TestEdgeRoutes(t *testing.T) {
	f := newFixture(t)
	f.mutate(http.MethodPost, "/nodes", `{"x":0,"y":0,"id":"a"}`)
	f.mutate(http.MethodDelete, "/selection", "")
	f.mutate(http.MethodPost, "/nodes", `{"x":1,"y":1,"id":"b"}`)

	resp := f.mutate(http.MethodPost, "/edges", `{"a":"b","b":"a"}`)
	if e := resp.Deltas[0].AddedEdges; len(e) != 1 || e[0] != (edgeJSON{A: "a", B: "b"}) {
		t.Errorf("connect = %+v", e)
	}
	again := f.mutate(http.MethodPost, "/edges", `{"a":"a","b":"b"}`)
	if len(again.Deltas) != 0 {
		t.Error("reconnecting should not emit")
	}

	f.expectError(http.MethodPost, "/edges", `{"a":"a","b":"a"}`, http.StatusBadRequest, apperr.ErrCodeSelfLoop)
	f.expectError(http.MethodPost, "/edges", `{"a":"a","b":"z"}`, http.StatusNotFound, apperr.ErrCodeUnknownNode)

	resp = f.mutate(http.MethodDelete, "/edges/a/b", "")
	if e := resp.Deltas[0].RemovedEdges; len(e) != 1 {
		t.Errorf("disconnect = %+v", e)
	}
}

func TestPutGraph(t *testing.T) {
	f := newFixture(t)
	doc := `[{"x":0,"y":0,"id":"a","relaited_nodes":["b"]},{"x":1,"y":1,"id":"b"},{"y":2,"id":"bad"}]`

	status, data := f.do(http.MethodPut, "/graph", doc)
	if status != http.StatusOK {
		t.Fatalf("PUT /graph = %d: %s", status, data)
	}
	var resp loadResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Nodes != 2 || resp.Edges != 1 || len(resp.Skipped) != 1 || resp.Skipped[0].Index != 2 {
		t.Errorf("load response = %+v", resp)
	}

	g, err := gbio.Decode(f.graph())
	if err != nil {
		t.Fatal(err)
	}
	if !g.Connected("a", "b") {
		t.Error("loaded graph should connect a-b")
	}

	f.expectError(http.MethodPut, "/graph?strict=true", doc, http.StatusBadRequest, apperr.ErrCodeMalformedDocument)
	f.expectError(http.MethodPut, "/graph", `{"nodes":[]}`, http.StatusBadRequest, apperr.ErrCodeMalformedDocument)

	// failed loads leave the session alone
	if g2, _ := gbio.Decode(f.graph()); g2.Len() != 2 {
		t.Errorf("graph changed after failed load: %d nodes", g2.Len())
	}
}

func TestStrictOption(t *testing.T) {
	f := newFixture(t, WithStrict(true))
	f.expectError(http.MethodPut, "/graph", `[{"id":"a"}]`, http.StatusBadRequest, apperr.ErrCodeMalformedDocument)

	status, _ := f.do(http.MethodPut, "/graph?strict=false", `[{"id":"a"}]`)
	if status != http.StatusOK {
		t.Errorf("strict=false override = %d", status)
	}

	f.expectError(http.MethodPut, "/graph?strict=yes", `[]`, http.StatusBadRequest, apperr.ErrCodeInvalidInput)
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)
	f.mutate(http.MethodPost, "/nodes", `{"x":0,"y":0,"id":"a"}`)
	f.mutate(http.MethodPost, "/nodes", `{"x":1,"y":1,"id":"b"}`)

	_, data := f.do(http.MethodGet, "/graph/snapshot", "")
	var d deltaJSON
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatal(err)
	}
	if !d.Reset || len(d.AddedNodes) != 2 || len(d.AddedEdges) != 1 || d.Selected == nil || *d.Selected != "b" {
		t.Errorf("snapshot = %s", data)
	}
}

func TestSave(t *testing.T) {
	f := newFixture(t)
	f.mutate(http.MethodPost, "/nodes", `{"x":0,"y":0,"id":"a"}`)

	status, data := f.do(http.MethodPost, "/save", "")
	if status != http.StatusOK {
		t.Fatalf("POST /save = %d: %s", status, data)
	}
	stored, err := f.store.Get(context.Background(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(stored, f.graph()) {
		t.Errorf("stored = %s, want current document", stored)
	}
}

func TestSaveWithoutStore(t *testing.T) {
	sess := session.New()
	srv := httptest.NewServer(New(sess, WithLogger(log.New(io.Discard))).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/save", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	status, data := f.do(http.MethodGet, "/healthz", "")
	if status != http.StatusOK || !strings.Contains(string(data), "ok") {
		t.Errorf("GET /healthz = %d %s", status, data)
	}
}
