package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/familytree/pkg/archive"
)

type snapshotRequest struct {
	Label string `json:"label"`
}

func (s *Server) createSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := decodeJSON(w, r, &req, maxJSONBytes, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.store.GetTree(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	meta, err := s.archive.Save(r.Context(), t, req.Label)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("saved snapshot", "tree", t.ID, "snapshot", meta.ID)
	writeJSON(w, http.StatusCreated, meta)
}

func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	metas, err := s.archive.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if metas == nil {
		metas = []archive.Meta{}
	}
	writeJSON(w, http.StatusOK, metas)
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.archive.Get(r.Context(), chi.URLParam(r, "snapshotId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
