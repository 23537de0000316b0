package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famgala/FantasyF1-BE-sub002/go/clients"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/engine"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/rules"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

// stubAPI is a scriptable DraftAPI. Responses are returned by value so
// tests can mutate the stub between calls.
type stubAPI struct {
	mu sync.Mutex

	state      *clients.DraftStateResponse
	stateErr   error
	stateCalls atomic.Int64
	stateDelay time.Duration

	submitResp *clients.DraftStateResponse
	submitErr  error

	drivers []models.Driver
}

func (s *stubAPI) GetDraftState(ctx context.Context, sessionID uuid.UUID) (*clients.DraftStateResponse, error) {
	s.stateCalls.Add(1)
	if s.stateDelay > 0 {
		select {
		case <-time.After(s.stateDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stateErr != nil {
		return nil, s.stateErr
	}
	cp := *s.state
	return &cp, nil
}

func (s *stubAPI) SubmitPick(ctx context.Context, sessionID uuid.UUID, req clients.SubmitPickRequest) (*clients.DraftStateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	cp := *s.submitResp
	return &cp, nil
}

func (s *stubAPI) ListAvailableDrivers(ctx context.Context, sessionID uuid.UUID) ([]models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drivers, nil
}

func (s *stubAPI) setState(resp *clients.DraftStateResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = resp
}

type sessionFixture struct {
	api     *stubAPI
	client  *Client
	session models.DraftSession
	teams   []uuid.UUID
	drivers []models.Driver
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	teams := []uuid.UUID{uuid.New(), uuid.New()}
	entries := []models.DraftOrderEntry{
		{Position: 1, TeamID: teams[0], UserID: uuid.New()},
		{Position: 2, TeamID: teams[1], UserID: uuid.New()},
	}
	drivers := []models.Driver{
		{ID: uuid.New(), FullName: "A", Constructor: "Red Bull", Price: models.PriceFromTenths(100)},
		{ID: uuid.New(), FullName: "B", Constructor: "McLaren", Price: models.PriceFromTenths(90)},
		{ID: uuid.New(), FullName: "C", Constructor: "Ferrari", Price: models.PriceFromTenths(80)},
	}
	deadline := time.Now().Add(time.Minute)
	s := models.DraftSession{
		ID:          uuid.New(),
		DraftMethod: models.DraftMethodSnake,
		Settings: models.DraftSettings{
			PicksPerTeam:      1,
			TimePerPickSec:    60,
			MaxPerConstructor: 2,
			BudgetPerTeam:     models.PriceFromTenths(1000),
		},
		Order: entries,
		TurnState: models.DraftTurnState{
			CurrentRound:    1,
			CurrentPosition: 1,
			CurrentTeamID:   teams[0],
			TimerDeadline:   &deadline,
			Status:          models.DraftStatusInProgress,
		},
	}
	api := &stubAPI{
		state:   &clients.DraftStateResponse{Session: s, ServerTime: time.Now()},
		drivers: drivers,
	}
	client, err := NewClient(Config{
		API:       api,
		SessionID: s.ID,
		TeamID:    teams[0],
	})
	require.NoError(t, err)
	return &sessionFixture{api: api, client: client, session: s, teams: teams, drivers: drivers}
}

func TestRefreshReplacesMirror(t *testing.T) {
	f := newSessionFixture(t)
	assert.Nil(t, f.client.Mirror())

	m, err := f.client.Refresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, f.session.ID, m.Session.ID)
	assert.Same(t, m, f.client.Mirror())
}

func TestRefreshCoalescesConcurrentCallers(t *testing.T) {
	f := newSessionFixture(t)
	f.api.stateDelay = 50 * time.Millisecond

	var wg sync.WaitGroup
	results := make([]*Mirror, 4)
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.client.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), f.api.stateCalls.Load(), "concurrent refreshes share one request")
	for _, m := range results {
		assert.Same(t, results[0], m, "all callers observe the same snapshot")
	}
}

func TestRefreshFailureKeepsLastKnownGood(t *testing.T) {
	f := newSessionFixture(t)
	good, err := f.client.Refresh(context.Background())
	require.NoError(t, err)

	f.api.mu.Lock()
	f.api.stateErr = errors.New("backend down")
	f.api.mu.Unlock()

	got, err := f.client.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.Same(t, good, got, "stale-but-valid mirror survives the failure")
	assert.Same(t, good, f.client.Mirror())
}

func TestValidateRequiresMirror(t *testing.T) {
	f := newSessionFixture(t)
	assert.ErrorIs(t, f.client.Validate(f.drivers[0].ID), ErrNoMirror)
}

func TestValidateRejectsOffTurnPick(t *testing.T) {
	f := newSessionFixture(t)
	f.session.TurnState.CurrentTeamID = f.teams[1]
	f.api.setState(&clients.DraftStateResponse{Session: f.session, ServerTime: time.Now()})

	_, err := f.client.Refresh(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, f.client.Validate(f.drivers[0].ID), engine.ErrNotYourTurn)
}

func TestSubmitPickReplacesMirrorWithResponse(t *testing.T) {
	f := newSessionFixture(t)
	_, err := f.client.Refresh(context.Background())
	require.NoError(t, err)

	after := f.session
	after.TurnState.CurrentTeamID = f.teams[1]
	after.TurnState.CurrentPosition = 2
	after.TurnState.TotalPicksMade = 1
	f.api.mu.Lock()
	f.api.submitResp = &clients.DraftStateResponse{
		Session:    after,
		Picks:      []models.PickRecord{{TeamID: f.teams[0], DriverID: f.drivers[0].ID, PickNumber: 1, Round: 1}},
		ServerTime: time.Now(),
	}
	f.api.mu.Unlock()
	f.api.setState(f.api.submitResp)

	require.NoError(t, f.client.SubmitPick(context.Background(), f.drivers[0].ID))

	m := f.client.Mirror()
	require.NotNil(t, m)
	assert.Equal(t, 1, m.Session.TurnState.TotalPicksMade)
	assert.Equal(t, f.teams[1], m.Session.TurnState.CurrentTeamID)
	require.Len(t, m.Picks, 1)
	assert.Equal(t, f.drivers[0].ID, m.Picks[0].DriverID)
}

func TestSubmitPickRevertsOnRejection(t *testing.T) {
	f := newSessionFixture(t)
	before, err := f.client.Refresh(context.Background())
	require.NoError(t, err)

	f.api.mu.Lock()
	f.api.submitErr = &clients.APIError{
		StatusCode: 422,
		Code:       clients.ErrCodeConstraintViolation,
		Message:    "pick rejected",
		Violations: []rules.Violation{{Rule: rules.RuleBudgetExceeded, Message: "over budget"}},
	}
	f.api.mu.Unlock()

	err = f.client.SubmitPick(context.Background(), f.drivers[0].ID)
	ve, ok := engine.AsViolationError(err)
	require.True(t, ok)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, rules.RuleBudgetExceeded, ve.Violations[0].Rule)

	assert.Same(t, before, f.client.Mirror(), "optimistic overlay rolled back")
}

func TestSubmitPickTranslatesNotYourTurn(t *testing.T) {
	f := newSessionFixture(t)
	_, err := f.client.Refresh(context.Background())
	require.NoError(t, err)

	f.api.mu.Lock()
	f.api.submitErr = &clients.APIError{StatusCode: 409, Code: clients.ErrCodeNotYourTurn}
	f.api.mu.Unlock()

	assert.ErrorIs(t, f.client.SubmitPick(context.Background(), f.drivers[0].ID), engine.ErrNotYourTurn)
}

func TestSubmitPickStaleStateForcesRefresh(t *testing.T) {
	f := newSessionFixture(t)
	_, err := f.client.Refresh(context.Background())
	require.NoError(t, err)
	calls := f.api.stateCalls.Load()

	f.api.mu.Lock()
	f.api.submitErr = &clients.APIError{StatusCode: 409, Code: clients.ErrCodeStaleState}
	f.api.mu.Unlock()

	assert.ErrorIs(t, f.client.SubmitPick(context.Background(), f.drivers[0].ID), ErrStaleState)
	assert.Greater(t, f.api.stateCalls.Load(), calls, "stale rejection triggers a forced refresh")
}

func TestSubmitPickLocalPrecheckSkipsNetwork(t *testing.T) {
	f := newSessionFixture(t)
	_, err := f.client.Refresh(context.Background())
	require.NoError(t, err)

	err = f.client.SubmitPick(context.Background(), uuid.New())
	ve, ok := engine.AsViolationError(err)
	require.True(t, ok)
	assert.Equal(t, rules.RuleDriverUnavailable, ve.Violations[0].Rule)
}

func TestTimeRemainingUsesServerClock(t *testing.T) {
	serverNow := time.Date(2026, 3, 8, 14, 0, 0, 0, time.UTC)
	deadline := serverNow.Add(30 * time.Second)
	fetchedAt := time.Date(2026, 3, 8, 19, 0, 0, 0, time.UTC) // local clock 5h ahead

	m := &Mirror{
		Session: models.DraftSession{
			TurnState: models.DraftTurnState{TimerDeadline: &deadline},
		},
		ServerTime: serverNow,
		FetchedAt:  fetchedAt,
	}
	assert.Equal(t, 30*time.Second, m.TimeRemaining(fetchedAt))
	assert.Equal(t, 20*time.Second, m.TimeRemaining(fetchedAt.Add(10*time.Second)))
	assert.Equal(t, time.Duration(0), m.TimeRemaining(fetchedAt.Add(time.Minute)), "countdown clamps at zero")
}

func TestRunStopsWhenDraftCompletes(t *testing.T) {
	f := newSessionFixture(t)

	client, err := NewClient(Config{
		API:          f.api,
		SessionID:    f.session.ID,
		TeamID:       f.teams[0],
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		done := f.session
		done.TurnState.IsComplete = true
		done.TurnState.Status = models.DraftStatusCompleted
		f.api.setState(&clients.DraftStateResponse{Session: done, ServerTime: time.Now()})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, client.Run(ctx), "run exits cleanly on completion")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	f := newSessionFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.client.Run(ctx), context.Canceled)
}
