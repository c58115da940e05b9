package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
	"github.com/matzehuels/graphbuilder/pkg/graph"
	"github.com/matzehuels/graphbuilder/pkg/session"
)

type pointRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (p pointRequest) point() (graph.Point, error) {
	if p.X == nil || p.Y == nil {
		return graph.Point{}, apperr.New(apperr.ErrCodeInvalidInput, `"x" and "y" are required numbers`)
	}
	return graph.Point{X: *p.X, Y: *p.Y}, nil
}

type addNodeRequest struct {
	pointRequest
	ID string `json:"id"`
}

type selectRequest struct {
	ID string `json:"id"`
}

type edgeRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

type nodeJSON struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type edgeJSON struct {
	A string `json:"a"`
	B string `json:"b"`
}

// deltaJSON is the wire form of session.Delta. Selected is null when the
// selection is empty.
type deltaJSON struct {
	Reset            bool       `json:"reset,omitempty"`
	AddedNodes       []nodeJSON `json:"addedNodes,omitempty"`
	RemovedNodes     []string   `json:"removedNodes,omitempty"`
	Moved            []nodeJSON `json:"moved,omitempty"`
	AddedEdges       []edgeJSON `json:"addedEdges,omitempty"`
	RemovedEdges     []edgeJSON `json:"removedEdges,omitempty"`
	Selected         *string    `json:"selected"`
	SelectionChanged bool       `json:"selectionChanged,omitempty"`
}

type mutationResponse struct {
	ID     string      `json:"id,omitempty"`
	Deltas []deltaJSON `json:"deltas"`
}

type errorResponse struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

func toDeltaJSON(d session.Delta) deltaJSON {
	out := deltaJSON{
		Reset:            d.Reset,
		RemovedNodes:     d.RemovedNodes,
		SelectionChanged: d.SelectionChanged,
		AddedNodes:       toNodesJSON(d.AddedNodes),
		Moved:            toNodesJSON(d.Moved),
		AddedEdges:       toEdgesJSON(d.AddedEdges),
		RemovedEdges:     toEdgesJSON(d.RemovedEdges),
	}
	if d.Selected != "" {
		sel := d.Selected
		out.Selected = &sel
	}
	return out
}

func toDeltasJSON(ds []session.Delta) []deltaJSON {
	out := make([]deltaJSON, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDeltaJSON(d))
	}
	return out
}

func toNodesJSON(ps []session.NodePosition) []nodeJSON {
	if len(ps) == 0 {
		return nil
	}
	out := make([]nodeJSON, len(ps))
	for i, p := range ps {
		out[i] = nodeJSON{ID: p.ID, X: p.Position.X, Y: p.Position.Y}
	}
	return out
}

func toEdgesJSON(es []graph.Edge) []edgeJSON {
	if len(es) == 0 {
		return nil
	}
	out := make([]edgeJSON, len(es))
	for i, e := range es {
		out[i] = edgeJSON{A: e.A, B: e.B}
	}
	return out
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := apperr.GetCode(err)
	if code == "" {
		code = apperr.ErrCodeInternal
	}
	// Wrapped errors carry context (which node, which element) in the chain.
	msg := err.Error()
	var e *apperr.Error
	if errors.As(err, &e) && error(e) == err {
		msg = e.Message
	}
	writeJSON(w, apperr.HTTPStatus(code), errorResponse{Code: code, Message: msg})
}
