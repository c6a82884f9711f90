package auction

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/models"
)

// EligibleStatuses returns the player statuses admitted to the given round.
// Round 1 recovers unsold players from a previously-ended auction; later
// rounds rely on StartRound resetting unsold players back to active first.
func EligibleStatuses(roundNumber int) []models.PlayerStatus {
	if roundNumber <= 1 {
		return []models.PlayerStatus{
			models.PlayerStatusActive,
			models.PlayerStatusPending,
			models.PlayerStatusUnsold,
		}
	}
	return []models.PlayerStatus{
		models.PlayerStatusActive,
		models.PlayerStatusPending,
	}
}

// EligiblePlayers filters players down to the set that may appear in the
// round's draw and returns them in blind-draw order. The shuffle is a
// Fisher-Yates over the provided rand source, so the same seed always
// produces the same order; rounds persist their seed and order at creation
// and never re-draw. Duplicate ids are dropped, first occurrence after the
// shuffle wins. Pure function, no side effects.
func EligiblePlayers(players []models.Player, roundNumber int, rng *rand.Rand) []models.Player {
	admitted := make(map[models.PlayerStatus]bool)
	for _, s := range EligibleStatuses(roundNumber) {
		admitted[s] = true
	}

	eligible := make([]models.Player, 0, len(players))
	for _, p := range players {
		if admitted[p.Status] {
			eligible = append(eligible, p)
		}
	}

	rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})

	seen := make(map[uuid.UUID]bool, len(eligible))
	deduped := eligible[:0]
	for _, p := range eligible {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		deduped = append(deduped, p)
	}
	return deduped
}

// ValidateDrawIntegrity checks a draw for duplicate player ids. A false
// result is a diagnostic, not a gate: callers log and carry on.
func ValidateDrawIntegrity(order []uuid.UUID) bool {
	seen := make(map[uuid.UUID]bool, len(order))
	for _, id := range order {
		if seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

// drawIDs projects a draw to its player ids.
func drawIDs(players []models.Player) []uuid.UUID {
	ids := make([]uuid.UUID, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}
