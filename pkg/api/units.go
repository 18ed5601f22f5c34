package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	errs "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/family"
)

// Unit actions accepted by POST /api/trees/{id}/units.
const (
	ActionAddChild    = "addChild"
	ActionAddSpouse   = "addSpouse"
	ActionAddMistress = "addMistress"
)

type addUnitRequest struct {
	Action      string              `json:"action"`
	UnitID      string              `json:"unitId"`
	Person      *family.PersonInput `json:"person"`
	MotherIndex *int                `json:"motherIndex,omitempty"`
}

type addChildResponse struct {
	Unit   family.UnitView `json:"unit"`
	Person family.Person   `json:"person"`
}

type addPersonResponse struct {
	Person   family.Person   `json:"person"`
	UnitType family.UnitType `json:"unitType"`
}

type deleteUnitResponse struct {
	DeletedIDs []string `json:"deletedIds"`
}

func (s *Server) addUnit(w http.ResponseWriter, r *http.Request) {
	treeID := chi.URLParam(r, "id")
	var req addUnitRequest
	if err := decodeJSON(w, r, &req, maxJSONBytes, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Action == "" || req.UnitID == "" || req.Person == nil {
		s.writeError(w, r, errMissing)
		return
	}
	switch req.Action {
	case ActionAddChild, ActionAddSpouse, ActionAddMistress:
	default:
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidAction, "invalid action %q", req.Action))
		return
	}
	p, err := family.NewPerson(*req.Person)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	t, err := s.store.GetTree(ctx, treeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch req.Action {
	case ActionAddChild:
		u, err := t.AddChild(req.UnitID, p, req.MotherIndex)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.store.InsertUnit(ctx, treeID, u); err != nil {
			s.writeError(w, r, err)
			return
		}
		view, _ := t.View(u.ID)
		s.logger.Info("added child", "tree", treeID, "parent", req.UnitID, "unit", u.ID)
		writeJSON(w, http.StatusCreated, addChildResponse{Unit: view, Person: p})

	default:
		add := t.AddSpouse
		if req.Action == ActionAddMistress {
			add = t.AddMistress
		}
		if err := add(req.UnitID, p); err != nil {
			s.writeError(w, r, err)
			return
		}
		u, _ := t.Unit(req.UnitID)
		if err := s.store.AppendPerson(ctx, treeID, u); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.logger.Info("added partner", "tree", treeID, "unit", u.ID, "type", u.Type)
		writeJSON(w, http.StatusCreated, addPersonResponse{Person: p, UnitType: u.Type})
	}
}

func (s *Server) deleteUnit(w http.ResponseWriter, r *http.Request) {
	treeID, unitID := chi.URLParam(r, "id"), chi.URLParam(r, "unitId")
	deleted, err := s.store.DeleteUnit(r.Context(), treeID, unitID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("deleted units", "tree", treeID, "unit", unitID, "count", len(deleted))
	writeJSON(w, http.StatusOK, deleteUnitResponse{DeletedIDs: deleted})
}

func (s *Server) updatePerson(w http.ResponseWriter, r *http.Request) {
	treeID, personID := chi.URLParam(r, "id"), chi.URLParam(r, "personId")
	var patch family.PersonPatch
	if err := decodeJSON(w, r, &patch, maxJSONBytes, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := patch.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	t, err := s.store.GetTree(ctx, treeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := t.UpdatePerson(personID, patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, idx, _ := t.FindPerson(personID)
	if err := s.store.UpdatePerson(ctx, treeID, u.Persons[idx]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
