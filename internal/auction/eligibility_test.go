package auction

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEligibleStatuses(t *testing.T) {
	tests := []struct {
		name  string
		round int
		want  []models.PlayerStatus
	}{
		{
			name:  "first round admits unsold leftovers",
			round: 1,
			want:  []models.PlayerStatus{models.PlayerStatusActive, models.PlayerStatusPending, models.PlayerStatusUnsold},
		},
		{
			name:  "second round excludes unsold",
			round: 2,
			want:  []models.PlayerStatus{models.PlayerStatusActive, models.PlayerStatusPending},
		},
		{
			name:  "later rounds match the second",
			round: 7,
			want:  []models.PlayerStatus{models.PlayerStatusActive, models.PlayerStatusPending},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EligibleStatuses(tt.round))
		})
	}
}

func TestEligiblePlayers_FiltersByStatus(t *testing.T) {
	active := models.Player{ID: uuid.New(), Status: models.PlayerStatusActive}
	pending := models.Player{ID: uuid.New(), Status: models.PlayerStatusPending}
	sold := models.Player{ID: uuid.New(), Status: models.PlayerStatusSold}
	unsold := models.Player{ID: uuid.New(), Status: models.PlayerStatusUnsold}
	pool := []models.Player{active, pending, sold, unsold}

	round1 := EligiblePlayers(pool, 1, rand.New(rand.NewSource(1)))
	require.Len(t, round1, 3)
	for _, p := range round1 {
		assert.NotEqual(t, models.PlayerStatusSold, p.Status)
	}

	round2 := EligiblePlayers(pool, 2, rand.New(rand.NewSource(1)))
	require.Len(t, round2, 2)
	for _, p := range round2 {
		assert.NotEqual(t, models.PlayerStatusSold, p.Status)
		assert.NotEqual(t, models.PlayerStatusUnsold, p.Status)
	}
}

func TestEligiblePlayers_SameSeedSameOrder(t *testing.T) {
	pool := make([]models.Player, 20)
	for i := range pool {
		pool[i] = models.Player{ID: uuid.New(), Status: models.PlayerStatusActive}
	}

	first := EligiblePlayers(pool, 1, rand.New(rand.NewSource(42)))
	second := EligiblePlayers(pool, 1, rand.New(rand.NewSource(42)))

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestEligiblePlayers_IsPermutation(t *testing.T) {
	pool := make([]models.Player, 10)
	want := make(map[uuid.UUID]bool, len(pool))
	for i := range pool {
		pool[i] = models.Player{ID: uuid.New(), Status: models.PlayerStatusActive}
		want[pool[i].ID] = true
	}

	draw := EligiblePlayers(pool, 1, rand.New(rand.NewSource(7)))

	require.Len(t, draw, len(pool))
	for _, p := range draw {
		assert.True(t, want[p.ID], "unexpected player in draw")
	}
}

func TestEligiblePlayers_DropsDuplicates(t *testing.T) {
	dup := models.Player{ID: uuid.New(), Status: models.PlayerStatusActive}
	pool := []models.Player{dup, {ID: uuid.New(), Status: models.PlayerStatusActive}, dup}

	draw := EligiblePlayers(pool, 1, rand.New(rand.NewSource(3)))

	assert.Len(t, draw, 2)
	assert.True(t, ValidateDrawIntegrity(drawIDs(draw)))
}

func TestValidateDrawIntegrity(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	assert.True(t, ValidateDrawIntegrity(nil))
	assert.True(t, ValidateDrawIntegrity([]uuid.UUID{a, b}))
	assert.False(t, ValidateDrawIntegrity([]uuid.UUID{a, b, a}))
}
