package host

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/gesture"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
	"github.com/go-go-golems/branchcanvas/pkg/render"
)

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if format == "" {
		format = render.FormatJSON
	}
	opts, err := renderOptions(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	opts.Format = format
	opts.Catalog = s.catalog

	snap, err := s.session.loop.Snapshot(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	var buf bytes.Buffer
	if err := render.Write(&buf, &snap, opts); err != nil {
		s.fail(w, errors.Wrap(errBadRequest, err.Error()))
		return
	}
	w.Header().Set("Content-Type", render.ContentType(format))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) getPending(w http.ResponseWriter, r *http.Request) {
	ids, err := s.session.Pending(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if ids == nil {
		ids = []tree.NodeID{}
	}
	writeJSON(w, http.StatusOK, map[string][]tree.NodeID{"pending": ids})
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	id, err := s.nodeID(r.Context(), r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var node tree.Node
	err = s.session.loop.Do(r.Context(), func(e *canvas.Engine) error {
		n, ok := e.Node(id)
		if !ok {
			return errors.Wrapf(canvas.ErrNotFound, "node %s", id)
		}
		node = n
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := s.nodeID(r.Context(), r)
	if err != nil {
		s.fail(w, err)
		return
	}
	removed, err := s.session.Delete(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if removed == nil {
		removed = []tree.NodeID{}
	}
	writeJSON(w, http.StatusOK, map[string][]tree.NodeID{"removed": removed})
}

type branchRequest struct {
	Metadata string `json:"metadata"`
}

type selectionRequest struct {
	Text string `json:"text"`
}

type createdResponse struct {
	ID      tree.NodeID `json:"id"`
	Label   string      `json:"label"`
	Version int64       `json:"version"`
}

func (s *Server) created(w http.ResponseWriter, r *http.Request, create func(e *canvas.Engine, parent tree.NodeID) (tree.NodeID, error)) {
	parent, err := s.nodeID(r.Context(), r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var resp createdResponse
	err = s.session.loop.Do(r.Context(), func(e *canvas.Engine) error {
		id, err := create(e, parent)
		if err != nil {
			return err
		}
		n, _ := e.Node(id)
		resp = createdResponse{ID: id, Label: n.Label, Version: e.Version()}
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) postBranch(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			s.fail(w, err)
			return
		}
	}
	s.created(w, r, func(e *canvas.Engine, parent tree.NodeID) (tree.NodeID, error) {
		return e.Branch(parent, nil, req.Metadata)
	})
}

func (s *Server) postSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	s.created(w, r, func(e *canvas.Engine, parent tree.NodeID) (tree.NodeID, error) {
		return e.BranchFromSelection(parent, req.Text)
	})
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	id, err := s.nodeID(r.Context(), r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.session.Send(r.Context(), id, req.Text); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]tree.NodeID{"pending": id})
}

func (s *Server) nodeOp(w http.ResponseWriter, r *http.Request, fn func(e *canvas.Engine, id tree.NodeID) error) {
	id, err := s.nodeID(r.Context(), r)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.apply(func(e *canvas.Engine) error { return fn(e, id) })(w, r)
}

func (s *Server) postToggle(w http.ResponseWriter, r *http.Request) {
	s.nodeOp(w, r, func(e *canvas.Engine, id tree.NodeID) error {
		return e.ToggleExpanded(id)
	})
}

func (s *Server) putMetadata(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if _, ok := s.catalog.Get(req.Metadata); !ok {
		s.fail(w, errors.Wrapf(errBadRequest, "unknown model %q", req.Metadata))
		return
	}
	s.nodeOp(w, r, func(e *canvas.Engine, id tree.NodeID) error {
		return e.SetMetadata(id, req.Metadata)
	})
}

func (s *Server) putParent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Parent tree.NodeID `json:"parent"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	s.nodeOp(w, r, func(e *canvas.Engine, id tree.NodeID) error {
		return e.Reparent(id, req.Parent)
	})
}

func (s *Server) postPan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	s.apply(func(e *canvas.Engine) error { return e.Pan(req.DX, req.DY) })(w, r)
}

func (s *Server) postZoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Button    string          `json:"button"`
		At        *geometry.Point `json:"at"`
		Direction float64         `json:"direction"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	var fn func(e *canvas.Engine) error
	switch req.Button {
	case "in":
		fn = (*canvas.Engine).ZoomIn
	case "out":
		fn = (*canvas.Engine).ZoomOut
	case "":
		if req.At == nil {
			s.fail(w, errors.Wrap(errBadRequest, "zoom needs a button or a point"))
			return
		}
		fn = func(e *canvas.Engine) error { return e.ZoomAt(*req.At, req.Direction) }
	default:
		s.fail(w, errors.Wrapf(errBadRequest, "unknown zoom button %q", req.Button))
		return
	}
	s.apply(fn)(w, r)
}

func (s *Server) postFit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Screen  geometry.Size `json:"screen"`
		Padding float64       `json:"padding"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	s.apply(func(e *canvas.Engine) error { return e.FitToContent(req.Screen, req.Padding) })(w, r)
}

type pointerResponse struct {
	Gesture gesture.State `json:"gesture"`
	Version int64         `json:"version"`
}

func (s *Server) pointer(w http.ResponseWriter, r *http.Request, fn func(e *canvas.Engine, p geometry.Point) error) {
	var p geometry.Point
	if err := decode(r, &p); err != nil {
		s.fail(w, err)
		return
	}
	var resp pointerResponse
	err := s.session.loop.Do(r.Context(), func(e *canvas.Engine) error {
		if err := fn(e, p); err != nil {
			return err
		}
		resp = pointerResponse{Gesture: e.Gesture(), Version: e.Version()}
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) postPointerDown(w http.ResponseWriter, r *http.Request) {
	s.pointer(w, r, func(e *canvas.Engine, p geometry.Point) error {
		e.PointerDown(p)
		return nil
	})
}

func (s *Server) postPointerMove(w http.ResponseWriter, r *http.Request) {
	s.pointer(w, r, func(e *canvas.Engine, p geometry.Point) error {
		return e.UpdateDrag(p)
	})
}
