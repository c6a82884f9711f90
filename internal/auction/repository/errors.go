package repository

import "errors"

var (
	// ErrRoundNotFound is returned when no round matches the lookup.
	ErrRoundNotFound = errors.New("round not found")

	// ErrVersionConflict means another session mutated the round between
	// the caller's read and this write. Refetch and retry.
	ErrVersionConflict = errors.New("round was modified by another session")

	// ErrPlayerNotOnStage means the resolved player is not the round's
	// current player.
	ErrPlayerNotOnStage = errors.New("player is not the current player")

	// ErrPlayerResolved guards against double-resolving: the player was
	// already sold or marked unsold in this round.
	ErrPlayerResolved = errors.New("player already resolved")

	ErrPlayerNotFound     = errors.New("player not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrBelowBasePrice     = errors.New("final price below base price")
	ErrInsufficientBudget = errors.New("insufficient team budget")
)
