package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/order"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/rules"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

type fixture struct {
	machine *Machine
	clock   *clockwork.FakeClock
	seats   []order.TeamSeat
	drivers []models.Driver
}

func newFixture(t *testing.T, teams, picksPerTeam int, drivers []models.Driver) *fixture {
	t.Helper()
	seats := make([]order.TeamSeat, teams)
	for i := range seats {
		seats[i] = order.TeamSeat{TeamID: uuid.New(), UserID: uuid.New()}
	}
	ord, err := order.NewGenerator().Generate(seats, models.DraftMethodSnake)
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	machine, err := NewMachine(Config{
		SessionID: uuid.New(),
		Settings: models.DraftSettings{
			PicksPerTeam:      picksPerTeam,
			TimePerPickSec:    60,
			MaxPerConstructor: 2,
			BudgetPerTeam:     models.PriceFromTenths(1000),
		},
		Order:   ord,
		Drivers: drivers,
		Clock:   clock,
	})
	require.NoError(t, err)
	return &fixture{machine: machine, clock: clock, seats: seats, drivers: drivers}
}

func driverPool(n int) []models.Driver {
	constructors := []string{"Red Bull", "McLaren", "Ferrari", "Mercedes", "Aston Martin", "Alpine", "Williams", "Haas"}
	out := make([]models.Driver, n)
	for i := range out {
		out[i] = models.Driver{
			ID:            uuid.New(),
			FullName:      "Driver",
			Constructor:   constructors[i%len(constructors)],
			Price:         models.PriceFromTenths(int64(100 + i*10)),
			AveragePoints: float64(i),
		}
	}
	return out
}

func TestMachineLifecycle(t *testing.T) {
	f := newFixture(t, 2, 1, driverPool(4))

	// Picks are rejected before Start.
	_, err := f.machine.ApplyPick(f.seats[0].TeamID, f.drivers[0].ID)
	assert.ErrorIs(t, err, ErrDraftNotStarted)

	require.NoError(t, f.machine.Start())
	assert.Error(t, f.machine.Start(), "double start rejected")

	state := f.machine.TurnState()
	assert.Equal(t, models.DraftStatusInProgress, state.Status)
	assert.Equal(t, 1, state.CurrentRound)
	assert.Equal(t, 1, state.CurrentPosition)
	assert.Equal(t, f.seats[0].TeamID, state.CurrentTeamID)
	require.NotNil(t, state.TimerDeadline)
	assert.Equal(t, f.clock.Now().Add(60*time.Second), *state.TimerDeadline)
}

func TestApplyPickAdvancesTurn(t *testing.T) {
	f := newFixture(t, 2, 2, driverPool(6))
	require.NoError(t, f.machine.Start())

	record, err := f.machine.ApplyPick(f.seats[0].TeamID, f.drivers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, record.PickNumber)
	assert.Equal(t, 1, record.Round)
	assert.False(t, record.IsAutoPick)

	state := f.machine.TurnState()
	assert.Equal(t, 1, state.TotalPicksMade)
	assert.Equal(t, f.seats[1].TeamID, state.CurrentTeamID)
}

func TestTotalPicksStrictlyIncreases(t *testing.T) {
	f := newFixture(t, 2, 2, driverPool(6))
	require.NoError(t, f.machine.Start())

	prev := 0
	// Snake with 2 teams: 1,2 then 2,1.
	turns := []int{0, 1, 1, 0}
	for i, seat := range turns {
		_, err := f.machine.ApplyPick(f.seats[seat].TeamID, f.drivers[i].ID)
		require.NoError(t, err)
		state := f.machine.TurnState()
		assert.Equal(t, prev+1, state.TotalPicksMade, "exactly one increment per accepted pick")
		prev = state.TotalPicksMade
	}
	assert.True(t, f.machine.TurnState().IsComplete)
}

func TestNotYourTurnDoesNotMutate(t *testing.T) {
	f := newFixture(t, 3, 1, driverPool(5))
	require.NoError(t, f.machine.Start())

	before := f.machine.TurnState()
	_, err := f.machine.ApplyPick(f.seats[1].TeamID, f.drivers[0].ID)
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Equal(t, before, f.machine.TurnState())
	assert.Empty(t, f.machine.Picks())
}

func TestDriverUniqueAcrossSession(t *testing.T) {
	f := newFixture(t, 2, 2, driverPool(6))
	require.NoError(t, f.machine.Start())

	_, err := f.machine.ApplyPick(f.seats[0].TeamID, f.drivers[0].ID)
	require.NoError(t, err)

	_, err = f.machine.ApplyPick(f.seats[1].TeamID, f.drivers[0].ID)
	ve, ok := AsViolationError(err)
	require.True(t, ok)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, rules.RuleDriverUnavailable, ve.Violations[0].Rule)
	assert.Equal(t, 1, f.machine.TurnState().TotalPicksMade)

	seen := map[uuid.UUID]bool{}
	for _, p := range f.machine.Picks() {
		assert.False(t, seen[p.DriverID])
		seen[p.DriverID] = true
	}
}

func TestBudgetExceededPickRejected(t *testing.T) {
	drivers := driverPool(4)
	drivers[0].Price = models.PriceFromTenths(75) // 7.5 credits

	seats := []order.TeamSeat{
		{TeamID: uuid.New(), UserID: uuid.New()},
		{TeamID: uuid.New(), UserID: uuid.New()},
	}
	ord, err := order.NewGenerator().Generate(seats, models.DraftMethodSnake)
	require.NoError(t, err)
	machine, err := NewMachine(Config{
		SessionID: uuid.New(),
		Settings: models.DraftSettings{
			PicksPerTeam:      1,
			TimePerPickSec:    60,
			MaxPerConstructor: 2,
			BudgetPerTeam:     models.PriceFromTenths(50), // 5.0 credits
		},
		Order:   ord,
		Drivers: drivers,
		Clock:   clockwork.NewFakeClock(),
	})
	require.NoError(t, err)
	require.NoError(t, machine.Start())

	_, err = machine.ApplyPick(seats[0].TeamID, drivers[0].ID)
	ve, ok := AsViolationError(err)
	require.True(t, ok)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, rules.RuleBudgetExceeded, ve.Violations[0].Rule)
	assert.Equal(t, 0, machine.TurnState().TotalPicksMade, "rejected pick creates no record")
	assert.Empty(t, machine.Picks())
}

func TestExpireTimerAutoPicks(t *testing.T) {
	f := newFixture(t, 2, 1, driverPool(4))
	require.NoError(t, f.machine.Start())

	_, err := f.machine.ExpireTimer()
	assert.ErrorIs(t, err, ErrTimerNotExpired, "deadline not reached yet")

	f.clock.Advance(61 * time.Second)
	record, err := f.machine.ExpireTimer()
	require.NoError(t, err)
	assert.True(t, record.IsAutoPick)
	assert.Equal(t, f.seats[0].TeamID, record.TeamID)

	// The turn advanced exactly as a manual pick would.
	state := f.machine.TurnState()
	assert.Equal(t, 1, state.TotalPicksMade)
	assert.Equal(t, f.seats[1].TeamID, state.CurrentTeamID)
}

func TestAutoPickPolicyIsDeterministic(t *testing.T) {
	drivers := driverPool(5)
	// Two cheapest share a price; the higher average must win.
	drivers[0].Price = models.PriceFromTenths(100)
	drivers[0].AveragePoints = 3.0
	drivers[1].Price = models.PriceFromTenths(100)
	drivers[1].AveragePoints = 9.0

	f := newFixture(t, 2, 1, drivers)
	require.NoError(t, f.machine.Start())
	f.clock.Advance(time.Minute + time.Second)

	record, err := f.machine.ExpireTimer()
	require.NoError(t, err)
	assert.Equal(t, drivers[1].ID, record.DriverID)
}

func TestCheapestLegalStrategySkipsIllegalDrivers(t *testing.T) {
	cheap := models.Driver{ID: uuid.New(), Constructor: "Alpine", Price: models.PriceFromTenths(50)}
	taken := models.Driver{ID: uuid.New(), Constructor: "Haas", Price: models.PriceFromTenths(10)}

	c := rules.RosterConstraint{
		MaxDrivers:      5,
		MaxPerRealTeam:  2,
		BudgetRemaining: models.PriceFromTenths(100),
		HeldPerTeam:     map[string]int{},
	}
	drafted := map[uuid.UUID]struct{}{taken.ID: {}}

	choice, err := CheapestLegalStrategy{}.SelectDriver([]models.Driver{cheap, taken}, c, drafted)
	require.NoError(t, err)
	assert.Equal(t, cheap.ID, choice.ID)

	_, err = CheapestLegalStrategy{}.SelectDriver([]models.Driver{taken}, c, drafted)
	assert.ErrorIs(t, err, ErrNoLegalDriver)
}

func TestCompletionRejectsFurtherTransitions(t *testing.T) {
	f := newFixture(t, 2, 1, driverPool(4))
	require.NoError(t, f.machine.Start())

	_, err := f.machine.ApplyPick(f.seats[0].TeamID, f.drivers[0].ID)
	require.NoError(t, err)
	_, err = f.machine.ApplyPick(f.seats[1].TeamID, f.drivers[1].ID)
	require.NoError(t, err)

	state := f.machine.TurnState()
	assert.True(t, state.IsComplete)
	assert.Equal(t, models.DraftStatusCompleted, state.Status)
	assert.Nil(t, state.TimerDeadline)

	_, err = f.machine.ApplyPick(f.seats[0].TeamID, f.drivers[2].ID)
	assert.ErrorIs(t, err, ErrDraftAlreadyComplete)
	_, err = f.machine.ExpireTimer()
	assert.ErrorIs(t, err, ErrDraftAlreadyComplete)
}

func TestSnakeSecondRoundOrder(t *testing.T) {
	f := newFixture(t, 4, 2, driverPool(10))
	require.NoError(t, f.machine.Start())

	// Round 1: seats 0..3 in order.
	for i := 0; i < 4; i++ {
		_, err := f.machine.ApplyPick(f.seats[i].TeamID, f.drivers[i].ID)
		require.NoError(t, err)
	}
	// Round 2 opens with the last team of round 1.
	state := f.machine.TurnState()
	assert.Equal(t, 2, state.CurrentRound)
	assert.Equal(t, 1, state.CurrentPosition)
	assert.Equal(t, f.seats[3].TeamID, state.CurrentTeamID)
}

func TestPickNumbersAreDense(t *testing.T) {
	f := newFixture(t, 2, 2, driverPool(6))
	require.NoError(t, f.machine.Start())

	turns := []int{0, 1, 1, 0}
	for i, seat := range turns {
		_, err := f.machine.ApplyPick(f.seats[seat].TeamID, f.drivers[i].ID)
		require.NoError(t, err)
	}
	picks := f.machine.Picks()
	require.Len(t, picks, 4)
	for i, p := range picks {
		assert.Equal(t, i+1, p.PickNumber, "pick numbers dense and increasing")
	}
}
