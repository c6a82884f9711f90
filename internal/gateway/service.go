package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/httpx"
	"github.com/rs/zerolog/log"
)

// Service exposes the websocket endpoint and state snapshot over HTTP. Both
// are open: the public display is unauthenticated.
type Service struct {
	connectionManager *ConnectionManager
	stateProvider     *StateProvider
}

// NewService creates a new gateway HTTP service
func NewService(cm *ConnectionManager, sp *StateProvider) *Service {
	return &Service{connectionManager: cm, stateProvider: sp}
}

// RegisterRoutes mounts the gateway routes.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Get("/ws", s.handleConnection)
	r.Get("/ws/stats", s.handleStats)
	r.Get("/state", s.handleState)
}

// handleConnection upgrades to websocket and seeds the client with a state
// snapshot so late joiners render immediately.
func (s *Service) handleConnection(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	conn, err := s.connectionManager.UpgradeConnection(w, r, userID)
	if err != nil {
		// Upgrade already wrote the HTTP error
		return
	}

	snapshot, err := s.stateProvider.GetState(r.Context())
	if err != nil {
		log.Error().Err(err).Str("connection_id", conn.ID).Msg("failed to build state snapshot")
		return
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal state snapshot")
		return
	}

	s.connectionManager.SendToConnection(conn, &AuctionEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeStateSnapshot,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, s.connectionManager.GetConnectionStats())
}

func (s *Service) handleState(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.stateProvider.GetState(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "internal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshot)
}
