package api

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/familytree/pkg/family"
)

type createTreeRequest struct {
	Name       string              `json:"name"`
	RootPerson *family.PersonInput `json:"rootPerson"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (s *Server) listTrees(w http.ResponseWriter, r *http.Request) {
	trees, err := s.store.ListTrees(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if trees == nil {
		trees = []family.Summary{}
	}
	writeJSON(w, http.StatusOK, trees)
}

func (s *Server) createTree(w http.ResponseWriter, r *http.Request) {
	var req createTreeRequest
	if err := decodeJSON(w, r, &req, maxJSONBytes, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.RootPerson == nil {
		s.writeError(w, r, errMissing)
		return
	}
	root, err := family.NewPerson(*req.RootPerson)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := family.NewTree(strings.TrimSpace(req.Name), root)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateTree(r.Context(), t); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("created tree", "id", t.ID, "name", t.Name)
	writeJSON(w, http.StatusCreated, t.Summary())
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTree(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTree(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteTree(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("deleted tree", "id", id)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// importTree stores an exported tree under its original IDs.
func (s *Server) importTree(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	t, err := family.Import(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateTree(r.Context(), t); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("imported tree", "id", t.ID, "units", t.Len())
	writeJSON(w, http.StatusCreated, t.Summary())
}

func (s *Server) exportTree(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTree(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(t)))
	if err := family.Export(w, t); err != nil {
		s.logger.Warn("export interrupted", "id", t.ID, "err", err)
	}
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// exportFilename derives a download name from the tree name.
func exportFilename(t *family.Tree) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(t.Name), "-"), "-")
	if base == "" {
		base = "family-tree"
	}
	return base + ".json"
}
