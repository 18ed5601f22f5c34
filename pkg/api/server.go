// Package api serves the family tree REST API.
//
// Handlers load a tree from the [store.Store], apply the change in memory
// through the [family] operations so the model rules are enforced, and then
// persist only what changed. Every error is converted to a JSON body of the
// form {"error": message, "code": CODE} at the handler boundary.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/familytree/pkg/archive"
	"github.com/matzehuels/familytree/pkg/blob"
	errs "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/observability"
	"github.com/matzehuels/familytree/pkg/pipeline"
	"github.com/matzehuels/familytree/pkg/store"
)

// Request limits.
const (
	DefaultMaxUploadBytes = 10 << 20
	maxJSONBytes          = 1 << 20
	maxImportBytes        = 32 << 20

	// multipart framing allowance on top of the file limit
	uploadOverhead = 1 << 20
)

// Options wires a [Server] to its backends. Store and Bucket are required.
type Options struct {
	Store   store.Store
	Bucket  blob.Bucket
	Archive archive.Archive  // nil disables snapshots
	Runner  *pipeline.Runner // nil computes layouts without a cache

	// Layout holds the defaults for the layout endpoints.
	Layout layout.Options

	MaxUploadBytes int64
	Logger         *log.Logger
}

// Server holds the handler dependencies. It is safe for concurrent use.
type Server struct {
	store     store.Store
	bucket    blob.Bucket
	archive   archive.Archive
	runner    *pipeline.Runner
	layout    layout.Options
	maxUpload int64
	logger    *log.Logger
}

// New returns a server for opts.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Archive == nil {
		opts.Archive = archive.Disabled{}
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{
		store:     opts.Store,
		bucket:    opts.Bucket,
		archive:   opts.Archive,
		runner:    opts.Runner,
		layout:    opts.Layout,
		maxUpload: opts.MaxUploadBytes,
		logger:    opts.Logger.With("component", "api"),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/trees", func(r chi.Router) {
			r.Get("/", s.listTrees)
			r.Post("/", s.createTree)
			r.Post("/import", s.importTree)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getTree)
				r.Delete("/", s.deleteTree)
				r.Get("/export", s.exportTree)
				r.Get("/layout", s.getLayout)
				r.Get("/diagram.svg", s.getDiagram)

				r.Post("/units", s.addUnit)
				r.Delete("/units/{unitId}", s.deleteUnit)
				r.Put("/persons/{personId}", s.updatePerson)

				r.Post("/snapshots", s.createSnapshot)
				r.Get("/snapshots", s.listSnapshots)
			})
		})

		r.Get("/snapshots/{snapshotId}", s.getSnapshot)

		r.Post("/images", s.uploadImage)
		r.Get("/images/*", s.getImage)
		r.Delete("/images/*", s.deleteImage)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errNoRoute)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed", Code: errs.ErrCodeInvalidInput})
	})
	return r
}

// logRequests logs each request and reports it to the HTTP hooks under its
// route pattern.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.HTTP().OnRequest(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", d,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
