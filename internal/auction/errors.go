package auction

import (
	"errors"

	"github.com/hammerclub/auctiond/internal/auction/repository"
)

// Validation errors reported to the caller before any write happens.
var (
	ErrNoCurrentRound  = errors.New("no round is live")
	ErrNoCurrentPlayer = errors.New("no player on stage")
	ErrNoTeamSelected  = errors.New("no team selected")
)

// Transaction guards re-exported from the repository so callers can match
// every auction failure against one package.
var (
	ErrPlayerNotOnStage   = repository.ErrPlayerNotOnStage
	ErrBelowBasePrice     = repository.ErrBelowBasePrice
	ErrInsufficientBudget = repository.ErrInsufficientBudget
	ErrPlayerResolved     = repository.ErrPlayerResolved
	ErrVersionConflict    = repository.ErrVersionConflict
	ErrRoundNotFound      = repository.ErrRoundNotFound
)
