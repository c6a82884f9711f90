package auction

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/auction/repository"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory stand-in for the Postgres repository. It honors
// the same contract: version CAS, on-stage checks, guarded sale writes, and
// advancing through the persisted draw order.
type fakeStore struct {
	players  map[uuid.UUID]*models.Player
	teams    map[uuid.UUID]*models.Team
	live     *models.AuctionRound
	maxRound int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players: make(map[uuid.UUID]*models.Player),
		teams:   make(map[uuid.UUID]*models.Team),
	}
}

func (f *fakeStore) addPlayer(status models.PlayerStatus, basePrice int64) *models.Player {
	p := &models.Player{
		ID:        uuid.New(),
		Name:      "player-" + uuid.NewString()[:8],
		BasePrice: basePrice,
		Status:    status,
	}
	f.players[p.ID] = p
	return p
}

func (f *fakeStore) addTeam(budget int64) *models.Team {
	t := &models.Team{
		ID:              uuid.New(),
		Name:            "team-" + uuid.NewString()[:8],
		Budget:          budget,
		RemainingBudget: budget,
	}
	f.teams[t.ID] = t
	return t
}

func (f *fakeStore) GetLiveRound(ctx context.Context) (*models.AuctionRound, error) {
	if f.live == nil {
		return nil, repository.ErrRoundNotFound
	}
	clone := *f.live
	return &clone, nil
}

func (f *fakeStore) NextRoundNumber(ctx context.Context) (int, error) {
	return f.maxRound + 1, nil
}

func (f *fakeStore) GetRound(ctx context.Context, id uuid.UUID) (*models.AuctionRound, error) {
	if f.live == nil || f.live.ID != id {
		return nil, repository.ErrRoundNotFound
	}
	clone := *f.live
	return &clone, nil
}

func (f *fakeStore) ListRounds(ctx context.Context) ([]models.AuctionRound, error) {
	if f.live == nil {
		return nil, nil
	}
	return []models.AuctionRound{*f.live}, nil
}

func (f *fakeStore) StartRound(ctx context.Context, req repository.StartRoundRequest) (*models.AuctionRound, error) {
	if req.RoundNumber > 1 {
		for _, p := range f.players {
			if p.Status == models.PlayerStatusUnsold {
				p.Status = models.PlayerStatusActive
			}
		}
	}

	admitted := make(map[models.PlayerStatus]bool)
	for _, s := range req.EligibleStatuses {
		admitted[s] = true
	}
	var candidates []models.Player
	for _, p := range f.players {
		if admitted[p.Status] {
			candidates = append(candidates, *p)
		}
	}

	draw := req.Draw(candidates)
	if len(draw) == 0 {
		return nil, nil
	}

	if f.live != nil {
		f.live.Status = models.RoundStatusCompleted
	}

	order := make([]uuid.UUID, len(draw))
	for i, p := range draw {
		order[i] = p.ID
	}
	f.live = &models.AuctionRound{
		ID:              uuid.New(),
		Round:           req.RoundNumber,
		Status:          models.RoundStatusWaitingForAdmin,
		PlayersLeft:     len(draw),
		TotalPlayers:    len(draw),
		CurrentPlayerID: &order[0],
		DrawSeed:        req.DrawSeed,
		DrawOrder:       order,
		Version:         1,
	}
	f.maxRound = req.RoundNumber
	clone := *f.live
	return &clone, nil
}

func (f *fakeStore) ActivateRound(ctx context.Context, id uuid.UUID, version int) (*models.AuctionRound, error) {
	if f.live == nil || f.live.ID != id {
		return nil, repository.ErrRoundNotFound
	}
	if f.live.Version != version || f.live.Status != models.RoundStatusWaitingForAdmin {
		return nil, repository.ErrVersionConflict
	}
	f.live.Status = models.RoundStatusActive
	f.live.Version++
	clone := *f.live
	return &clone, nil
}

func (f *fakeStore) SellPlayer(ctx context.Context, req repository.SellPlayerRequest) (*repository.Resolution, error) {
	round, err := f.lockRound(req.RoundID, req.RoundVersion, req.PlayerID)
	if err != nil {
		return nil, err
	}

	p, ok := f.players[req.PlayerID]
	if !ok {
		return nil, repository.ErrPlayerNotFound
	}
	if p.Status == models.PlayerStatusSold {
		return nil, repository.ErrPlayerResolved
	}
	if req.FinalPrice < p.BasePrice {
		return nil, repository.ErrBelowBasePrice
	}

	team, ok := f.teams[req.TeamID]
	if !ok {
		return nil, repository.ErrTeamNotFound
	}
	if team.RemainingBudget < req.FinalPrice {
		return nil, repository.ErrInsufficientBudget
	}

	p.Status = models.PlayerStatusSold
	p.TeamID = &req.TeamID
	price := req.FinalPrice
	p.FinalPrice = &price
	team.RemainingBudget -= req.FinalPrice
	team.Players = append(team.Players, p.ID)

	f.advance(round)
	clone := *round
	return &repository.Resolution{Round: &clone, RoundExhausted: round.Status == models.RoundStatusWaitingForAdmin}, nil
}

func (f *fakeStore) MarkPlayerUnsold(ctx context.Context, req repository.UnsoldPlayerRequest) (*repository.Resolution, error) {
	round, err := f.lockRound(req.RoundID, req.RoundVersion, req.PlayerID)
	if err != nil {
		return nil, err
	}

	p, ok := f.players[req.PlayerID]
	if !ok || (p.Status != models.PlayerStatusActive && p.Status != models.PlayerStatusPending) {
		return nil, repository.ErrPlayerResolved
	}
	p.Status = models.PlayerStatusUnsold

	f.advance(round)
	clone := *round
	return &repository.Resolution{Round: &clone, RoundExhausted: round.Status == models.RoundStatusWaitingForAdmin}, nil
}

func (f *fakeStore) CompleteLiveRound(ctx context.Context) (*models.AuctionRound, error) {
	if f.live == nil || !f.live.Status.Live() {
		return nil, repository.ErrRoundNotFound
	}
	f.live.Status = models.RoundStatusCompleted
	f.live.Version++
	clone := *f.live
	f.live = nil
	return &clone, nil
}

func (f *fakeStore) ResetAuction(ctx context.Context) (*repository.ResetSummary, error) {
	summary := &repository.ResetSummary{}
	for _, p := range f.players {
		if p.Status != models.PlayerStatusActive || p.TeamID != nil {
			p.Status = models.PlayerStatusActive
			p.TeamID = nil
			p.FinalPrice = nil
			summary.PlayersReset++
		}
	}
	for _, t := range f.teams {
		if t.RemainingBudget != t.Budget {
			t.RemainingBudget = t.Budget
			summary.TeamsReset++
		}
		t.Players = nil
	}
	f.live = nil
	f.maxRound = 0
	return summary, nil
}

func (f *fakeStore) CountPlayersByStatus(ctx context.Context) (map[models.PlayerStatus]int, error) {
	counts := make(map[models.PlayerStatus]int)
	for _, p := range f.players {
		counts[p.Status]++
	}
	return counts, nil
}

func (f *fakeStore) ListPlayersByStatus(ctx context.Context, statuses []models.PlayerStatus) ([]models.Player, error) {
	admitted := make(map[models.PlayerStatus]bool)
	for _, s := range statuses {
		admitted[s] = true
	}
	var out []models.Player
	for _, p := range f.players {
		if admitted[p.Status] {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, repository.ErrPlayerNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakeStore) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	t, ok := f.teams[id]
	if !ok {
		return nil, repository.ErrTeamNotFound
	}
	clone := *t
	return &clone, nil
}

func (f *fakeStore) lockRound(roundID uuid.UUID, version int, playerID uuid.UUID) (*models.AuctionRound, error) {
	if f.live == nil || f.live.ID != roundID {
		return nil, repository.ErrRoundNotFound
	}
	if f.live.Version != version {
		return nil, repository.ErrVersionConflict
	}
	if f.live.CurrentPlayerID == nil || *f.live.CurrentPlayerID != playerID {
		return nil, repository.ErrPlayerNotOnStage
	}
	return f.live, nil
}

func (f *fakeStore) advance(round *models.AuctionRound) {
	round.Version++
	if round.PlayersLeft > 0 {
		round.PlayersLeft--
	}
	for _, id := range round.DrawOrder {
		p := f.players[id]
		if p != nil && (p.Status == models.PlayerStatusActive || p.Status == models.PlayerStatusPending) {
			next := id
			round.CurrentPlayerID = &next
			return
		}
	}
	round.Status = models.RoundStatusWaitingForAdmin
	round.PlayersLeft = 0
	round.CurrentPlayerID = nil
}

func newTestApp(store *fakeStore) *App {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC))
	return NewApp(store, store, store, clock)
}

func TestStartNextRound_NoEligiblePlayers(t *testing.T) {
	store := newFakeStore()
	store.addPlayer(models.PlayerStatusSold, 100)
	app := newTestApp(store)

	round, err := app.StartNextRound(context.Background())

	require.NoError(t, err)
	assert.Nil(t, round)
	assert.Nil(t, store.live)
}

func TestStartNextRound_CreatesWaitingRound(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 3; i++ {
		store.addPlayer(models.PlayerStatusActive, 100)
	}
	app := newTestApp(store)

	round, err := app.StartNextRound(context.Background())

	require.NoError(t, err)
	require.NotNil(t, round)
	assert.Equal(t, 1, round.Round)
	assert.Equal(t, models.RoundStatusWaitingForAdmin, round.Status)
	assert.Equal(t, 3, round.TotalPlayers)
	assert.Equal(t, 3, round.PlayersLeft)
	assert.Len(t, round.DrawOrder, 3)
	require.NotNil(t, round.CurrentPlayerID)
	assert.Equal(t, round.DrawOrder[0], *round.CurrentPlayerID)
	assert.True(t, ValidateDrawIntegrity(round.DrawOrder))
}

func TestStartNextRound_RecyclesUnsoldAfterFirstRound(t *testing.T) {
	store := newFakeStore()
	unsold := store.addPlayer(models.PlayerStatusUnsold, 100)
	store.maxRound = 1
	app := newTestApp(store)

	round, err := app.StartNextRound(context.Background())

	require.NoError(t, err)
	require.NotNil(t, round)
	assert.Equal(t, 2, round.Round)
	assert.Equal(t, models.PlayerStatusActive, store.players[unsold.ID].Status)
	assert.Contains(t, round.DrawOrder, unsold.ID)
}

func TestActivateRound(t *testing.T) {
	store := newFakeStore()
	store.addPlayer(models.PlayerStatusActive, 100)
	app := newTestApp(store)

	round, err := app.StartNextRound(context.Background())
	require.NoError(t, err)

	activated, err := app.ActivateRound(context.Background(), round.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoundStatusActive, activated.Status)

	_, err = app.ActivateRound(context.Background(), round.ID)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestSellCurrentPlayer_Validations(t *testing.T) {
	ctx := context.Background()

	t.Run("no live round", func(t *testing.T) {
		app := newTestApp(newFakeStore())
		_, err := app.SellCurrentPlayer(ctx, SellRequest{PlayerID: uuid.New()})
		assert.ErrorIs(t, err, ErrNoCurrentRound)
	})

	setup := func(t *testing.T) (*App, *fakeStore, *models.Player, *models.Team) {
		store := newFakeStore()
		team := store.addTeam(1000)
		store.addPlayer(models.PlayerStatusActive, 200)
		app := newTestApp(store)
		round, err := app.StartNextRound(ctx)
		require.NoError(t, err)
		onStage := store.players[*round.CurrentPlayerID]
		return app, store, onStage, team
	}

	t.Run("player not on stage", func(t *testing.T) {
		app, _, _, team := setup(t)
		_, err := app.SellCurrentPlayer(ctx, SellRequest{
			PlayerID: uuid.New(), TeamID: &team.ID, FinalPrice: 200,
		})
		assert.ErrorIs(t, err, ErrPlayerNotOnStage)
	})

	t.Run("no team selected", func(t *testing.T) {
		app, _, onStage, _ := setup(t)
		_, err := app.SellCurrentPlayer(ctx, SellRequest{
			PlayerID: onStage.ID, FinalPrice: 200,
		})
		assert.ErrorIs(t, err, ErrNoTeamSelected)
	})

	t.Run("below base price", func(t *testing.T) {
		app, _, onStage, team := setup(t)
		_, err := app.SellCurrentPlayer(ctx, SellRequest{
			PlayerID: onStage.ID, TeamID: &team.ID, FinalPrice: 150,
		})
		assert.ErrorIs(t, err, ErrBelowBasePrice)
	})

	t.Run("insufficient budget", func(t *testing.T) {
		app, _, onStage, team := setup(t)
		_, err := app.SellCurrentPlayer(ctx, SellRequest{
			PlayerID: onStage.ID, TeamID: &team.ID, FinalPrice: 5000,
		})
		assert.ErrorIs(t, err, ErrInsufficientBudget)
	})

	t.Run("nothing written on failure", func(t *testing.T) {
		app, store, onStage, team := setup(t)
		_, err := app.SellCurrentPlayer(ctx, SellRequest{
			PlayerID: onStage.ID, TeamID: &team.ID, FinalPrice: 150,
		})
		require.Error(t, err)
		assert.Equal(t, models.PlayerStatusActive, store.players[onStage.ID].Status)
		assert.Equal(t, int64(1000), store.teams[team.ID].RemainingBudget)
	})
}

func TestMarkUnsold_WrongPlayer(t *testing.T) {
	store := newFakeStore()
	store.addPlayer(models.PlayerStatusActive, 100)
	app := newTestApp(store)

	_, err := app.StartNextRound(context.Background())
	require.NoError(t, err)

	_, err = app.MarkUnsold(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPlayerNotOnStage)
}

func TestAuctionFlow_ThreePlayersOneTeam(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	team := store.addTeam(1000)
	for i := 0; i < 3; i++ {
		store.addPlayer(models.PlayerStatusActive, 100)
	}
	app := newTestApp(store)

	round, err := app.StartNextRound(ctx)
	require.NoError(t, err)
	_, err = app.ActivateRound(ctx, round.ID)
	require.NoError(t, err)

	// First on stage sells at 300.
	first := round.DrawOrder[0]
	res, err := app.SellCurrentPlayer(ctx, SellRequest{PlayerID: first, TeamID: &team.ID, FinalPrice: 300})
	require.NoError(t, err)
	assert.False(t, res.RoundExhausted)
	assert.Equal(t, 2, res.Round.PlayersLeft)
	assert.Equal(t, int64(700), store.teams[team.ID].RemainingBudget)

	// Second goes unsold.
	second := *res.Round.CurrentPlayerID
	res, err = app.MarkUnsold(ctx, second)
	require.NoError(t, err)
	assert.False(t, res.RoundExhausted)
	assert.Equal(t, models.PlayerStatusUnsold, store.players[second].Status)

	// Third sells; the round is exhausted and parks for the admin.
	third := *res.Round.CurrentPlayerID
	res, err = app.SellCurrentPlayer(ctx, SellRequest{PlayerID: third, TeamID: &team.ID, FinalPrice: 100})
	require.NoError(t, err)
	assert.True(t, res.RoundExhausted)
	assert.Equal(t, models.RoundStatusWaitingForAdmin, res.Round.Status)
	assert.Equal(t, 0, res.Round.PlayersLeft)
	assert.Nil(t, res.Round.CurrentPlayerID)

	allSold, err := app.AreAllPlayersSold(ctx)
	require.NoError(t, err)
	assert.False(t, allSold)

	hasNext, err := app.HasPlayersForNextRound(ctx)
	require.NoError(t, err)
	assert.True(t, hasNext)

	// The next round picks up the lone unsold player.
	next, err := app.StartNextRound(ctx)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 2, next.Round)
	assert.Equal(t, 1, next.TotalPlayers)
	assert.Equal(t, second, next.DrawOrder[0])
}

func TestEndAuction_NoLiveRound(t *testing.T) {
	app := newTestApp(newFakeStore())

	_, err := app.EndAuction(context.Background())
	assert.ErrorIs(t, err, ErrNoCurrentRound)
}

func TestResetAuction_RestartsNumberingAtOne(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	team := store.addTeam(500)
	store.addPlayer(models.PlayerStatusActive, 100)
	app := newTestApp(store)

	round, err := app.StartNextRound(ctx)
	require.NoError(t, err)
	_, err = app.ActivateRound(ctx, round.ID)
	require.NoError(t, err)
	_, err = app.SellCurrentPlayer(ctx, SellRequest{
		PlayerID: round.DrawOrder[0], TeamID: &team.ID, FinalPrice: 100,
	})
	require.NoError(t, err)

	summary, err := app.ResetAuction(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PlayersReset)
	assert.Equal(t, 1, summary.TeamsReset)
	assert.Equal(t, int64(500), store.teams[team.ID].RemainingBudget)

	fresh, err := app.StartNextRound(ctx)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Equal(t, 1, fresh.Round)
}

func TestAreAllPlayersSold(t *testing.T) {
	ctx := context.Background()

	t.Run("empty pool is not all sold", func(t *testing.T) {
		app := newTestApp(newFakeStore())
		allSold, err := app.AreAllPlayersSold(ctx)
		require.NoError(t, err)
		assert.False(t, allSold)
	})

	t.Run("every player sold", func(t *testing.T) {
		store := newFakeStore()
		store.addPlayer(models.PlayerStatusSold, 100)
		store.addPlayer(models.PlayerStatusSold, 100)
		app := newTestApp(store)
		allSold, err := app.AreAllPlayersSold(ctx)
		require.NoError(t, err)
		assert.True(t, allSold)
	})
}

func TestRemainingPlayersCount(t *testing.T) {
	store := newFakeStore()
	store.addPlayer(models.PlayerStatusActive, 100)
	store.addPlayer(models.PlayerStatusPending, 100)
	store.addPlayer(models.PlayerStatusUnsold, 100)
	store.addPlayer(models.PlayerStatusSold, 100)
	app := newTestApp(store)

	count, err := app.RemainingPlayersCount(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, count.Unsold)
	assert.Equal(t, 2, count.Active)
	assert.Equal(t, 4, count.Total)
}
