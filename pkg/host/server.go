package host

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
	"github.com/go-go-golems/branchcanvas/pkg/models"
	"github.com/go-go-golems/branchcanvas/pkg/render"
)

// Server exposes a Session over HTTP. Every request that touches the canvas
// goes through the session's Loop.
type Server struct {
	session  *Session
	catalog  *models.Catalog
	gatherer prometheus.Gatherer
	logger   zerolog.Logger
}

type ServerOption func(*Server)

func WithCatalog(c *models.Catalog) ServerOption {
	return func(s *Server) {
		s.catalog = c
	}
}

// WithGatherer serves the gatherer's metrics on /metrics.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

func WithServerLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(session *Session, options ...ServerOption) *Server {
	s := &Server{
		session: session,
		logger:  log.Logger,
	}
	for _, o := range options {
		o(s)
	}
	if s.catalog == nil {
		s.catalog = models.Default()
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.catalog.Models)
	})
	r.Get("/schema", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, render.Schema())
	})
	r.Get("/snapshot", s.getSnapshot)
	r.Get("/snapshot/{format}", s.getSnapshot)
	r.Get("/pending", s.getPending)

	r.Route("/nodes/{id}", func(r chi.Router) {
		r.Get("/", s.getNode)
		r.Delete("/", s.deleteNode)
		r.Post("/branches", s.postBranch)
		r.Post("/selection", s.postSelection)
		r.Post("/messages", s.postMessage)
		r.Post("/toggle", s.postToggle)
		r.Put("/metadata", s.putMetadata)
		r.Put("/parent", s.putParent)
	})

	r.Route("/view", func(r chi.Router) {
		r.Post("/pan", s.postPan)
		r.Post("/zoom", s.postZoom)
		r.Post("/fit", s.postFit)
		r.Post("/reset", s.apply(func(e *canvas.Engine) error { return e.ResetView() }))
	})

	r.Route("/pointer", func(r chi.Router) {
		r.Post("/down", s.postPointerDown)
		r.Post("/move", s.postPointerMove)
		r.Post("/up", s.apply(func(e *canvas.Engine) error {
			e.EndDrag()
			return nil
		}))
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// --- helpers ---------------------------------------------------------------

var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	switch {
	case errors.Is(err, canvas.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, canvas.ErrInvalidOperation):
		return http.StatusConflict
	case errors.Is(err, canvas.ErrNonFinite), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("response encode failed")
	}
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(errBadRequest, "invalid request body: %v", err)
	}
	return nil
}

// nodeID resolves the {id} URL parameter. "root" names the root node.
func (s *Server) nodeID(ctx context.Context, r *http.Request) (tree.NodeID, error) {
	raw := chi.URLParam(r, "id")
	if raw == "root" {
		var id tree.NodeID
		err := s.session.loop.Do(ctx, func(e *canvas.Engine) error {
			id = e.RootID()
			return nil
		})
		return id, err
	}
	id, err := tree.ParseNodeID(raw)
	if err != nil {
		return tree.NullNode, errors.Wrapf(errBadRequest, "invalid node id %q", raw)
	}
	return id, nil
}

// apply runs fn on the loop and answers with the new version.
func (s *Server) apply(fn func(e *canvas.Engine) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var version int64
		err := s.session.loop.Do(r.Context(), func(e *canvas.Engine) error {
			if err := fn(e); err != nil {
				return err
			}
			version = e.Version()
			return nil
		})
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"version": version})
	}
}

func queryFloat(r *http.Request, key string) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(errBadRequest, "invalid %s %q", key, v)
	}
	return f, nil
}

func renderOptions(r *http.Request) (render.Options, error) {
	opts := render.Options{Title: r.URL.Query().Get("title")}
	var err error
	if opts.Scale, err = queryFloat(r, "scale"); err != nil {
		return opts, err
	}
	if opts.Padding, err = queryFloat(r, "padding"); err != nil {
		return opts, err
	}
	if opts.Screen.W, err = queryFloat(r, "w"); err != nil {
		return opts, err
	}
	if opts.Screen.H, err = queryFloat(r, "h"); err != nil {
		return opts, err
	}
	return opts, nil
}
