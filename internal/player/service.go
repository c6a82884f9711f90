package player

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/httpx"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/hammerclub/auctiond/internal/users"
)

// Service exposes player CRUD over HTTP. Reads are open for the public
// display; mutations require the manage_data capability.
type Service struct {
	app  *App
	auth *users.Authorizer
}

// NewService creates a new player HTTP service
func NewService(app *App, auth *users.Authorizer) *Service {
	return &Service{app: app, auth: auth}
}

// RegisterRoutes mounts the player routes.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Route("/players", func(r chi.Router) {
		r.Get("/", s.listPlayers)
		r.Get("/{id}", s.getPlayer)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(users.CapManageData))
			r.Post("/", s.createPlayer)
			r.Post("/batch", s.createPlayersBatch)
			r.Put("/{id}", s.updatePlayer)
			r.Delete("/{id}", s.deletePlayer)
		})
	})
}

func (s *Service) createPlayer(w http.ResponseWriter, r *http.Request) {
	var req CreatePlayerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	player, err := s.app.CreatePlayer(r.Context(), req)
	if err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, player)
}

func (s *Service) createPlayersBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []CreatePlayerRequest
	if err := httpx.Decode(r, &reqs); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	players, err := s.app.CreatePlayersBatch(r.Context(), reqs)
	if err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, players)
}

func (s *Service) getPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	player, err := s.app.GetPlayer(r.Context(), id)
	if errors.Is(err, ErrPlayerNotFound) {
		httpx.Error(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, player)
}

func (s *Service) listPlayers(w http.ResponseWriter, r *http.Request) {
	var statuses []models.PlayerStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, models.PlayerStatus(s))
		}
	}

	players, err := s.app.ListPlayers(r.Context(), statuses)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	httpx.JSON(w, http.StatusOK, players)
}

func (s *Service) updatePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req UpdatePlayerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	player, err := s.app.UpdatePlayer(r.Context(), id, req)
	if errors.Is(err, ErrPlayerNotFound) {
		httpx.Error(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, player)
}

func (s *Service) deletePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	err = s.app.DeletePlayer(r.Context(), id)
	if errors.Is(err, ErrPlayerNotFound) {
		httpx.Error(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
