package team

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/httpx"
	"github.com/hammerclub/auctiond/internal/users"
)

// Service exposes teams over HTTP. Reads are open; team CRUD needs the
// manage_data capability, target-list edits the manage_targets capability.
type Service struct {
	app  *App
	auth *users.Authorizer
}

// NewService creates a new team HTTP service
func NewService(app *App, auth *users.Authorizer) *Service {
	return &Service{app: app, auth: auth}
}

// RegisterRoutes mounts the team routes.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Route("/teams", func(r chi.Router) {
		r.Get("/", s.listTeams)
		r.Get("/{id}", s.getTeam)
		r.Get("/{id}/roster", s.getRoster)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(users.CapManageData))
			r.Post("/", s.createTeam)
			r.Put("/{id}", s.updateTeam)
			r.Delete("/{id}", s.deleteTeam)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(users.CapManageTargets))
			r.Post("/{id}/targets", s.addTarget)
			r.Delete("/{id}/targets/{playerID}", s.removeTarget)
		})
	})
}

func (s *Service) createTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	team, err := s.app.CreateTeam(r.Context(), req)
	if err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, team)
}

func (s *Service) getTeam(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	team, err := s.app.GetTeam(r.Context(), id)
	if errors.Is(err, ErrTeamNotFound) {
		httpx.Error(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, team)
}

func (s *Service) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.app.ListTeams(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, teams)
}

func (s *Service) getRoster(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	roster, err := s.app.GetRoster(r.Context(), id)
	if errors.Is(err, ErrTeamNotFound) {
		httpx.Error(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, roster)
}

func (s *Service) updateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req UpdateTeamRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	team, err := s.app.UpdateTeam(r.Context(), id, req)
	if errors.Is(err, ErrTeamNotFound) {
		httpx.Error(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, team)
}

func (s *Service) deleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	err = s.app.DeleteTeam(r.Context(), id)
	if errors.Is(err, ErrTeamNotFound) {
		httpx.Error(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addTargetRequest struct {
	PlayerID uuid.UUID `json:"player_id"`
}

func (s *Service) addTarget(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req addTargetRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	err = s.app.AddTarget(r.Context(), id, req.PlayerID)
	if errors.Is(err, ErrTeamNotFound) {
		httpx.Error(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) removeTarget(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	playerID, err := uuid.Parse(chi.URLParam(r, "playerID"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	err = s.app.RemoveTarget(r.Context(), id, playerID)
	if errors.Is(err, ErrTargetNotFound) || errors.Is(err, ErrTeamNotFound) {
		httpx.Error(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
