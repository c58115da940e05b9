package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
	"github.com/matzehuels/graphbuilder/pkg/graph"
	gbio "github.com/matzehuels/graphbuilder/pkg/io"
	"github.com/matzehuels/graphbuilder/pkg/render/nodelink"
	"github.com/matzehuels/graphbuilder/pkg/session"
)

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	var doc []byte
	_, err := s.do(func(sess *session.Session) error {
		var err error
		doc, err = sess.Document()
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

type loadResponse struct {
	Nodes       int            `json:"nodes"`
	Edges       int            `json:"edges"`
	Skipped     []gbio.Skipped `json:"skipped,omitempty"`
	Duplicates  []string       `json:"duplicates,omitempty"`
	DroppedRefs int            `json:"droppedRefs,omitempty"`
}

func (s *Server) putGraph(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "read request body"))
		return
	}
	strict := s.strict
	if v := r.URL.Query().Get("strict"); v != "" {
		if strict, err = strconv.ParseBool(v); err != nil {
			writeError(w, apperr.New(apperr.ErrCodeInvalidInput, "invalid strict value %q", v))
			return
		}
	}

	var resp loadResponse
	_, err = s.do(func(sess *session.Session) error {
		report, err := sess.LoadDocument(data, gbio.DecodeOptions{Strict: strict})
		if err != nil {
			return err
		}
		g := sess.Graph()
		resp = loadResponse{
			Nodes:       g.Len(),
			Edges:       g.EdgeCount(),
			Skipped:     report.Skipped,
			Duplicates:  report.Duplicates,
			DroppedRefs: report.DroppedRefs,
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	var d session.Delta
	_, _ = s.do(func(sess *session.Session) error {
		d = sess.Snapshot()
		return nil
	})
	writeJSON(w, http.StatusOK, toDeltaJSON(d))
}

func (s *Server) getSVG(w http.ResponseWriter, r *http.Request) {
	var dot string
	_, _ = s.do(func(sess *session.Session) error {
		selected, _ := sess.Selected()
		dot = nodelink.ToDOT(sess.Graph(), nodelink.Options{Labels: true, Highlight: selected})
		return nil
	})
	svg, err := nodelink.RenderSVG(r.Context(), dot)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.ErrCodeInternal, err, "render graph"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := req.point()
	if err != nil {
		writeError(w, err)
		return
	}

	var id string
	deltas, err := s.do(func(sess *session.Session) error {
		var err error
		id, err = sess.AddNode(p, req.ID)
		return err
	})
	s.respond(w, http.StatusCreated, id, deltas, err)
}

func (s *Server) moveNode(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := req.point()
	if err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	deltas, err := s.do(func(sess *session.Session) error {
		return sess.UserDragged(id, p)
	})
	s.respond(w, http.StatusOK, "", deltas, err)
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deltas, err := s.do(func(sess *session.Session) error {
		return sess.DeleteNode(id)
	})
	s.respond(w, http.StatusOK, "", deltas, err)
}

func (s *Server) getSelection(w http.ResponseWriter, r *http.Request) {
	var resp struct {
		Selected *string `json:"selected"`
	}
	_, _ = s.do(func(sess *session.Session) error {
		if id, ok := sess.Selected(); ok {
			resp.Selected = &id
		}
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) selectNode(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	deltas, err := s.do(func(sess *session.Session) error {
		return sess.UserSelected(req.ID)
	})
	s.respond(w, http.StatusOK, "", deltas, err)
}

func (s *Server) clearSelection(w http.ResponseWriter, r *http.Request) {
	deltas, err := s.do(func(sess *session.Session) error {
		sess.ClearSelection()
		return nil
	})
	s.respond(w, http.StatusOK, "", deltas, err)
}

func (s *Server) moveSelected(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := req.point()
	if err != nil {
		writeError(w, err)
		return
	}
	deltas, err := s.do(func(sess *session.Session) error {
		return sess.MoveSelected(p)
	})
	s.respond(w, http.StatusOK, "", deltas, err)
}

func (s *Server) deleteSelected(w http.ResponseWriter, r *http.Request) {
	deltas, err := s.do(func(sess *session.Session) error {
		return sess.UserRequestedDelete()
	})
	s.respond(w, http.StatusOK, "", deltas, err)
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	deltas, err := s.do(func(sess *session.Session) error {
		return sess.Connect(req.A, req.B)
	})
	s.respond(w, http.StatusOK, "", deltas, err)
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	a, b := chi.URLParam(r, "a"), chi.URLParam(r, "b")
	deltas, err := s.do(func(sess *session.Session) error {
		return sess.Disconnect(a, b)
	})
	s.respond(w, http.StatusOK, "", deltas, err)
}

type saveResponse struct {
	Name  string `json:"name"`
	Nodes int    `json:"nodes"`
	Edges int    `json:"edges"`
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, apperr.New(apperr.ErrCodeUnsupported, "server has no store configured"))
		return
	}

	var (
		doc []byte
		g   *graph.Graph
	)
	_, err := s.do(func(sess *session.Session) error {
		var err error
		doc, err = sess.Document()
		g = sess.Graph()
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Put(r.Context(), s.name, doc); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("Saved graph", "name", s.name, "nodes", g.Len(), "edges", g.EdgeCount())
	writeJSON(w, http.StatusOK, saveResponse{Name: s.name, Nodes: g.Len(), Edges: g.EdgeCount()})
}

func (s *Server) respond(w http.ResponseWriter, status int, id string, deltas []session.Delta, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, mutationResponse{ID: id, Deltas: toDeltasJSON(deltas)})
}
