package main

import (
	"database/sql"

	"github.com/hammerclub/auctiond/internal/auction"
	auctionrepo "github.com/hammerclub/auctiond/internal/auction/repository"
	"github.com/hammerclub/auctiond/internal/gateway"
	"github.com/hammerclub/auctiond/internal/outbox"
	"github.com/hammerclub/auctiond/internal/player"
	"github.com/hammerclub/auctiond/internal/team"
	"github.com/hammerclub/auctiond/internal/users"
	"github.com/jonboulle/clockwork"
)

type Services struct {
	Auction *auction.Service
	Players *player.Service
	Teams   *team.Service
	Users   *users.Service
	Gateway *gateway.Service

	ConnectionManager *gateway.ConnectionManager
	OutboxRepo        *outbox.Repository
}

func setupServices(database *sql.DB, cfg *Config) *Services {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Service layer

	// Users and capability resolution
	userRepo := users.NewRepository(database)
	userApp := users.NewApp(userRepo)
	auth := users.NewAuthorizer(userApp)
	userService := users.NewService(userApp, auth)

	// Players
	playerRepo := player.NewRepository(database)
	playerApp := player.NewApp(playerRepo)
	playerService := player.NewService(playerApp, auth)

	// Teams
	teamRepo := team.NewRepository(database)
	teamApp := team.NewApp(teamRepo, playerRepo)
	teamService := team.NewService(teamApp, auth)

	// Auction round engine
	auctionRepo := auctionrepo.NewRepository(database)
	auctionApp := auction.NewApp(auctionRepo, playerRepo, teamRepo, clockwork.NewRealClock())
	auctionService := auction.NewService(auctionApp, auth)

	// Gateway
	gwConfig := gateway.DefaultConnectionConfig()
	gwConfig.PingInterval = cfg.Gateway.PingInterval
	gwConfig.WriteTimeout = cfg.Gateway.WriteTimeout
	gwConfig.ReadTimeout = cfg.Gateway.ReadTimeout
	gwConfig.MaxMessageSize = cfg.Gateway.MaxMessageSize
	connectionManager := gateway.NewConnectionManager(gwConfig)
	stateProvider := gateway.NewStateProvider(auctionApp, playerApp, teamApp)
	gatewayService := gateway.NewService(connectionManager, stateProvider)

	return &Services{
		Auction:           auctionService,
		Players:           playerService,
		Teams:             teamService,
		Users:             userService,
		Gateway:           gatewayService,
		ConnectionManager: connectionManager,
		OutboxRepo:        outbox.NewRepository(database),
	}
}
