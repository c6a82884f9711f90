package users

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/httpx"
)

// Service exposes user CRUD over HTTP.
type Service struct {
	app  *App
	auth *Authorizer
}

// NewService creates a new users HTTP service
func NewService(app *App, auth *Authorizer) *Service {
	return &Service{app: app, auth: auth}
}

// RegisterRoutes mounts the user routes.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/{id}", s.getUser)
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(CapManageData))
			r.Get("/", s.listUsers)
			r.Post("/", s.createUser)
			r.Put("/{id}", s.updateUser)
			r.Delete("/{id}", s.deleteUser)
		})
	})
}

func (s *Service) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	user, err := s.app.CreateUser(r.Context(), req)
	if err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (s *Service) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	user, err := s.app.GetUser(r.Context(), id)
	if errors.Is(err, ErrUserNotFound) {
		httpx.Error(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (s *Service) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.app.ListUsers(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (s *Service) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req UpdateUserRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	user, err := s.app.UpdateUser(r.Context(), id, req)
	if errors.Is(err, ErrUserNotFound) {
		httpx.Error(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusUnprocessableEntity, "validation_failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (s *Service) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	err = s.app.DeleteUser(r.Context(), id)
	if errors.Is(err, ErrUserNotFound) {
		httpx.Error(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
