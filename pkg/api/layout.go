package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	errs "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/pipeline"
)

// pipelineOptions applies the engine, nodeSpacing, rankSpacing and refresh
// query parameters to the server defaults.
func (s *Server) pipelineOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{Layout: s.layout}
	if v := q.Get("engine"); v != "" {
		opts.Layout.Engine = v
	}
	for name, dst := range map[string]*float64{
		"nodeSpacing": &opts.Layout.NodeSpacing,
		"rankSpacing": &opts.Layout.RankSpacing,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return opts, errs.New(errs.ErrCodeInvalidInput, "%s must be a positive number", name)
		}
		*dst = f
	}
	opts.Refresh = q.Get("refresh") == "true"
	return opts, opts.Layout.Validate()
}

func cacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
}

func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.pipelineOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.store.GetTree(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, hit, err := s.runner.ComputeLayoutWithCacheInfo(r.Context(), t, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheHeader(w, hit)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getDiagram(w http.ResponseWriter, r *http.Request) {
	opts, err := s.pipelineOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.store.GetTree(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svg, hit, err := s.runner.RenderSVGWithCacheInfo(r.Context(), t, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cacheHeader(w, hit)
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Length", strconv.Itoa(len(svg)))
	_, _ = w.Write(svg)
}
