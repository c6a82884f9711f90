package player

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayerRepo struct {
	players map[uuid.UUID]*models.Player
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[uuid.UUID]*models.Player)}
}

func (f *fakePlayerRepo) create(req CreatePlayerRequest) *models.Player {
	p := &models.Player{
		ID:        uuid.New(),
		Name:      req.Name,
		Role:      req.Role,
		BasePrice: req.BasePrice,
		Status:    models.PlayerStatusActive,
		Stats:     req.Stats,
	}
	f.players[p.ID] = p
	return p
}

func (f *fakePlayerRepo) CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error) {
	clone := *f.create(req)
	return &clone, nil
}

func (f *fakePlayerRepo) CreatePlayersBatch(ctx context.Context, reqs []CreatePlayerRequest) ([]models.Player, error) {
	out := make([]models.Player, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, *f.create(req))
	}
	return out, nil
}

func (f *fakePlayerRepo) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakePlayerRepo) ListPlayers(ctx context.Context, statuses []models.PlayerStatus) ([]models.Player, error) {
	filter := make(map[models.PlayerStatus]bool)
	for _, s := range statuses {
		filter[s] = true
	}
	var out []models.Player
	for _, p := range f.players {
		if len(filter) == 0 || filter[p.Status] {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePlayerRepo) UpdatePlayer(ctx context.Context, id uuid.UUID, req UpdatePlayerRequest) (*models.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Role != nil {
		p.Role = *req.Role
	}
	if req.BasePrice != nil {
		p.BasePrice = *req.BasePrice
	}
	if len(req.Stats) > 0 {
		p.Stats = req.Stats
	}
	clone := *p
	return &clone, nil
}

func (f *fakePlayerRepo) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.players[id]; !ok {
		return ErrPlayerNotFound
	}
	delete(f.players, id)
	return nil
}

func TestCreatePlayer_Validation(t *testing.T) {
	app := NewApp(newFakePlayerRepo())
	ctx := context.Background()

	tests := []struct {
		name    string
		req     CreatePlayerRequest
		wantErr string
	}{
		{
			name:    "missing name",
			req:     CreatePlayerRequest{BasePrice: 100},
			wantErr: "name is required",
		},
		{
			name:    "negative base price",
			req:     CreatePlayerRequest{Name: "Striker", BasePrice: -1},
			wantErr: "base price cannot be negative",
		},
		{
			name:    "broken stats blob",
			req:     CreatePlayerRequest{Name: "Striker", Stats: json.RawMessage(`{"goals":`)},
			wantErr: "stats must be valid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.CreatePlayer(ctx, tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	player, err := app.CreatePlayer(ctx, CreatePlayerRequest{
		Name:      "Striker",
		Role:      "forward",
		BasePrice: 100,
		Stats:     json.RawMessage(`{"goals": 12}`),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PlayerStatusActive, player.Status)
}

func TestCreatePlayersBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("empty batch rejected", func(t *testing.T) {
		app := NewApp(newFakePlayerRepo())
		_, err := app.CreatePlayersBatch(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("one bad row fails the batch with its index", func(t *testing.T) {
		repo := newFakePlayerRepo()
		app := NewApp(repo)
		_, err := app.CreatePlayersBatch(ctx, []CreatePlayerRequest{
			{Name: "One", BasePrice: 100},
			{Name: "", BasePrice: 100},
			{Name: "Three", BasePrice: 100},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 1")
		assert.Empty(t, repo.players, "nothing written on a failed batch")
	})

	t.Run("all rows created", func(t *testing.T) {
		app := NewApp(newFakePlayerRepo())
		players, err := app.CreatePlayersBatch(ctx, []CreatePlayerRequest{
			{Name: "One", BasePrice: 100},
			{Name: "Two", BasePrice: 200},
		})
		require.NoError(t, err)
		assert.Len(t, players, 2)
	})
}

func TestListPlayers_RejectsUnknownStatus(t *testing.T) {
	app := NewApp(newFakePlayerRepo())

	_, err := app.ListPlayers(context.Background(), []models.PlayerStatus{"benched"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestListPlayers_FiltersByStatus(t *testing.T) {
	ctx := context.Background()
	repo := newFakePlayerRepo()
	app := NewApp(repo)

	active, err := app.CreatePlayer(ctx, CreatePlayerRequest{Name: "Active", BasePrice: 100})
	require.NoError(t, err)
	sold, err := app.CreatePlayer(ctx, CreatePlayerRequest{Name: "Sold", BasePrice: 100})
	require.NoError(t, err)
	repo.players[sold.ID].Status = models.PlayerStatusSold

	got, err := app.ListPlayers(ctx, []models.PlayerStatus{models.PlayerStatusActive})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)

	all, err := app.ListPlayers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdatePlayer_Validation(t *testing.T) {
	ctx := context.Background()
	repo := newFakePlayerRepo()
	app := NewApp(repo)

	player, err := app.CreatePlayer(ctx, CreatePlayerRequest{Name: "Striker", BasePrice: 100})
	require.NoError(t, err)

	empty := ""
	_, err = app.UpdatePlayer(ctx, player.ID, UpdatePlayerRequest{Name: &empty})
	assert.Error(t, err)

	negative := int64(-10)
	_, err = app.UpdatePlayer(ctx, player.ID, UpdatePlayerRequest{BasePrice: &negative})
	assert.Error(t, err)

	price := int64(250)
	updated, err := app.UpdatePlayer(ctx, player.ID, UpdatePlayerRequest{BasePrice: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(250), updated.BasePrice)
}
