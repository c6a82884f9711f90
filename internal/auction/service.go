package auction

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/httpx"
	"github.com/hammerclub/auctiond/internal/users"
)

// Service exposes the round engine over HTTP. Reads are open (the public
// display polls them); mutations require the run_auction capability.
type Service struct {
	app  *App
	auth *users.Authorizer
}

// NewService creates a new auction HTTP service
func NewService(app *App, auth *users.Authorizer) *Service {
	return &Service{app: app, auth: auth}
}

// RegisterRoutes mounts the auction routes.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Route("/auction", func(r chi.Router) {
		r.Get("/round", s.getCurrentRound)
		r.Get("/rounds", s.listRounds)
		r.Get("/rounds/{number}/integrity", s.validateIntegrity)
		r.Get("/progress", s.getProgress)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require(users.CapRunAuction))
			r.Post("/rounds/next", s.startNextRound)
			r.Post("/rounds/{id}/activate", s.activateRound)
			r.Post("/sell", s.sellCurrentPlayer)
			r.Post("/unsold", s.markUnsold)
			r.Post("/end", s.endAuction)
			r.Post("/reset", s.resetAuction)
		})
	})
}

func (s *Service) getCurrentRound(w http.ResponseWriter, r *http.Request) {
	round, err := s.app.CurrentRound(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, round)
}

func (s *Service) listRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := s.app.ListRounds(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rounds)
}

func (s *Service) validateIntegrity(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number < 1 {
		httpx.Error(w, http.StatusBadRequest, "bad_request", errors.New("round number must be a positive integer"))
		return
	}

	ok, err := s.app.ValidateRoundIntegrity(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

type progressResponse struct {
	Remaining         *RemainingCount `json:"remaining"`
	HasPlayersForNext bool            `json:"has_players_for_next_round"`
	AllPlayersSold    bool            `json:"all_players_sold"`
}

func (s *Service) getProgress(w http.ResponseWriter, r *http.Request) {
	remaining, err := s.app.RemainingPlayersCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	hasNext, err := s.app.HasPlayersForNextRound(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	allSold, err := s.app.AreAllPlayersSold(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, progressResponse{
		Remaining:         remaining,
		HasPlayersForNext: hasNext,
		AllPlayersSold:    allSold,
	})
}

func (s *Service) startNextRound(w http.ResponseWriter, r *http.Request) {
	round, err := s.app.StartNextRound(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if round == nil {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"created": false,
			"reason":  "no_players_available",
		})
		return
	}
	httpx.JSON(w, http.StatusCreated, round)
}

func (s *Service) activateRound(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	round, err := s.app.ActivateRound(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, round)
}

func (s *Service) sellCurrentPlayer(w http.ResponseWriter, r *http.Request) {
	var req SellRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res, err := s.app.SellCurrentPlayer(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

type unsoldRequest struct {
	PlayerID uuid.UUID `json:"player_id"`
}

func (s *Service) markUnsold(w http.ResponseWriter, r *http.Request) {
	var req unsoldRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res, err := s.app.MarkUnsold(r.Context(), req.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (s *Service) endAuction(w http.ResponseWriter, r *http.Request) {
	round, err := s.app.EndAuction(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, round)
}

func (s *Service) resetAuction(w http.ResponseWriter, r *http.Request) {
	summary, err := s.app.ResetAuction(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

// writeError maps engine errors onto the HTTP surface: validation failures
// are 422 with a stable reason code, conflicts 409, missing rounds 404,
// store failures 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoCurrentRound), errors.Is(err, ErrRoundNotFound):
		httpx.Error(w, http.StatusNotFound, "no_round", err)
	case errors.Is(err, ErrVersionConflict):
		httpx.Error(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, ErrPlayerResolved):
		httpx.Error(w, http.StatusConflict, "player_resolved", err)
	case errors.Is(err, ErrNoCurrentPlayer):
		httpx.Error(w, http.StatusUnprocessableEntity, "no_current_player", err)
	case errors.Is(err, ErrPlayerNotOnStage):
		httpx.Error(w, http.StatusUnprocessableEntity, "player_not_on_stage", err)
	case errors.Is(err, ErrNoTeamSelected):
		httpx.Error(w, http.StatusUnprocessableEntity, "no_team_selected", err)
	case errors.Is(err, ErrBelowBasePrice):
		httpx.Error(w, http.StatusUnprocessableEntity, "below_base_price", err)
	case errors.Is(err, ErrInsufficientBudget):
		httpx.Error(w, http.StatusUnprocessableEntity, "insufficient_budget", err)
	default:
		httpx.Error(w, http.StatusInternalServerError, "internal", err)
	}
}
