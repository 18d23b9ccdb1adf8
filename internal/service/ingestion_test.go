package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/rebound-edge/internal/datasource"
	"github.com/yourusername/rebound-edge/internal/models"
	"github.com/yourusername/rebound-edge/internal/registry"
)

type fakeSource struct {
	name   string
	rows   []datasource.GameLogRow
	events []datasource.RosterEvent
	err    error
}

func (f *fakeSource) FetchGameLogs(ctx context.Context, start, end time.Time) ([]datasource.GameLogRow, error) {
	return f.rows, f.err
}

func (f *fakeSource) FetchRosterTransactions(ctx context.Context, since time.Time) ([]datasource.RosterEvent, error) {
	return f.events, f.err
}

func (f *fakeSource) Name() string { return f.name }

type memObservationRepo struct {
	stored map[string]*models.GameObservation // key player|date
}

func newMemObservationRepo() *memObservationRepo {
	return &memObservationRepo{stored: make(map[string]*models.GameObservation)}
}

func obsKey(playerID string, gameDate time.Time) string {
	return playerID + "|" + gameDate.Format("2006-01-02")
}

func (r *memObservationRepo) Insert(ctx context.Context, obs *models.GameObservation) error {
	r.stored[obsKey(obs.PlayerID, obs.GameDate)] = obs
	return nil
}

func (r *memObservationRepo) InsertBatch(ctx context.Context, obs []*models.GameObservation) error {
	for _, o := range obs {
		r.stored[obsKey(o.PlayerID, o.GameDate)] = o
	}
	return nil
}

func (r *memObservationRepo) GetByPlayer(ctx context.Context, playerID string, before time.Time) ([]*models.GameObservation, error) {
	var out []*models.GameObservation
	for _, o := range r.stored {
		if o.PlayerID == playerID && o.GameDate.Before(before) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memObservationRepo) GetLeague(ctx context.Context, before time.Time) ([]*models.GameObservation, error) {
	var out []*models.GameObservation
	for _, o := range r.stored {
		if o.GameDate.Before(before) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memObservationRepo) Exists(ctx context.Context, playerID string, gameDate time.Time) (bool, error) {
	_, ok := r.stored[obsKey(playerID, gameDate)]
	return ok, nil
}

type memAssignmentRepo struct {
	inserted []*models.PlayerTeamAssignment
	closed   map[uuid.UUID]time.Time
}

func newMemAssignmentRepo() *memAssignmentRepo {
	return &memAssignmentRepo{closed: make(map[uuid.UUID]time.Time)}
}

func (r *memAssignmentRepo) Insert(ctx context.Context, a *models.PlayerTeamAssignment) error {
	r.inserted = append(r.inserted, a)
	return nil
}

func (r *memAssignmentRepo) CloseInterval(ctx context.Context, id uuid.UUID, end time.Time) error {
	r.closed[id] = end
	return nil
}

func (r *memAssignmentRepo) GetByPlayer(ctx context.Context, playerID string) ([]*models.PlayerTeamAssignment, error) {
	return nil, nil
}

func (r *memAssignmentRepo) GetAll(ctx context.Context) ([]*models.PlayerTeamAssignment, error) {
	return nil, nil
}

func newIngestionFixture(t *testing.T, src *fakeSource) (*IngestionService, *memObservationRepo, *memAssignmentRepo, *registry.Registry) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	obsRepo := newMemObservationRepo()
	assignRepo := newMemAssignmentRepo()
	reg := registry.New(logger)

	svc := NewIngestionService(
		[]datasource.GameLogSource{src},
		obsRepo,
		assignRepo,
		reg,
		NewDataValidator(logger),
		NewDataNormalizer(logger),
		logger,
		2,
	)
	return svc, obsRepo, assignRepo, reg
}

func logRow(playerID, date string, rebounds int) datasource.GameLogRow {
	return datasource.GameLogRow{
		PlayerID:   playerID,
		GameDate:   date,
		TeamID:     "DEN",
		OpponentID: "LAL",
		Minutes:    decPtr("32"),
		Rebounds:   intPtr(rebounds),
		HomeAway:   "home",
	}
}

func TestIngestGameLogs(t *testing.T) {
	src := &fakeSource{
		name: "statsapi",
		rows: []datasource.GameLogRow{
			logRow("player-a", "2024-01-10", 10),
			logRow("player-a", "2024-01-11", 8), // back-to-back
			logRow("player-b", "2024-01-10", 5),
			{PlayerID: "player-c", GameDate: "bad-date", TeamID: "DEN", OpponentID: "LAL", Rebounds: intPtr(3), HomeAway: "home"},
		},
	}
	svc, obsRepo, _, _ := newIngestionFixture(t, src)

	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	m, err := svc.IngestGameLogs(context.Background(), "statsapi", start, start.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 4, m.TotalRows)
	assert.Equal(t, 3, m.SuccessfulRows)
	assert.Equal(t, 1, m.ValidationErrors)
	assert.Len(t, obsRepo.stored, 3)

	secondNight := obsRepo.stored[obsKey("player-a", time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC))]
	require.NotNil(t, secondNight)
	assert.True(t, secondNight.BackToBack)

	firstNight := obsRepo.stored[obsKey("player-a", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))]
	require.NotNil(t, firstNight)
	assert.False(t, firstNight.BackToBack)
}

func TestIngestGameLogsSkipsDuplicates(t *testing.T) {
	src := &fakeSource{
		name: "statsapi",
		rows: []datasource.GameLogRow{logRow("player-a", "2024-01-10", 10)},
	}
	svc, obsRepo, _, _ := newIngestionFixture(t, src)

	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.IngestGameLogs(context.Background(), "statsapi", start, start)
	require.NoError(t, err)

	m, err := svc.IngestGameLogs(context.Background(), "statsapi", start, start)
	require.NoError(t, err)

	assert.Equal(t, 0, m.SuccessfulRows)
	assert.Equal(t, 1, m.Duplicates)
	assert.Len(t, obsRepo.stored, 1)
}

func TestIngestGameLogsUnknownSource(t *testing.T) {
	svc, _, _, _ := newIngestionFixture(t, &fakeSource{name: "statsapi"})

	_, err := svc.IngestGameLogs(context.Background(), "nope", time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data source not found")
}

func TestSyncRoster(t *testing.T) {
	src := &fakeSource{
		name: "statsapi",
		events: []datasource.RosterEvent{
			{PlayerID: "player-a", NewTeamID: "MIA", EffectiveDate: "2024-01-15"},
			{PlayerID: "player-a", NewTeamID: "LAL", EffectiveDate: "2024-01-01"},
		},
	}
	svc, _, assignRepo, reg := newIngestionFixture(t, src)

	m, err := svc.SyncRoster(context.Background(), "statsapi", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 2, m.RosterEvents)
	require.Len(t, assignRepo.inserted, 2)

	// Events apply in effective-date order, so the signing lands before the trade.
	assert.Equal(t, "LAL", reg.ResolveTeam("player-a", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "MIA", reg.ResolveTeam("player-a", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)))

	// The first interval was closed the day before the trade took effect.
	require.Len(t, assignRepo.closed, 1)
	for _, end := range assignRepo.closed {
		assert.Equal(t, time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), end)
	}
}

func TestSyncRosterRejectsConflicts(t *testing.T) {
	src := &fakeSource{
		name: "statsapi",
		events: []datasource.RosterEvent{
			{PlayerID: "player-a", NewTeamID: "LAL", EffectiveDate: "2024-01-10"},
			{PlayerID: "player-a", NewTeamID: "MIA", EffectiveDate: "2024-01-10"},
		},
	}
	svc, _, assignRepo, _ := newIngestionFixture(t, src)

	m, err := svc.SyncRoster(context.Background(), "statsapi", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 1, m.RosterEvents)
	assert.Equal(t, 1, m.Errors)
	assert.Len(t, assignRepo.inserted, 1)
}
