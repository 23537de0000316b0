package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/order"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/rules"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

// Config configures a draft turn state machine.
type Config struct {
	SessionID uuid.UUID
	Settings  models.DraftSettings
	Order     *order.Order
	Drivers   []models.Driver
	Clock     clockwork.Clock  // defaults to the real clock
	Strategy  AutoPickStrategy // defaults to CheapestLegalStrategy
}

// Machine is the draft turn state machine: NotStarted -> InProgress ->
// Complete. The backend of record runs the authoritative instance; client
// mirrors are rebuilt from authoritative snapshots and never commit
// transitions of their own.
type Machine struct {
	sessionID uuid.UUID
	settings  models.DraftSettings
	order     *order.Order
	clock     clockwork.Clock
	strategy  AutoPickStrategy

	drivers map[uuid.UUID]models.Driver
	picks   []models.PickRecord
	state   models.DraftTurnState
}

// NewMachine builds a machine in the NotStarted state.
func NewMachine(cfg Config) (*Machine, error) {
	if cfg.Order == nil {
		return nil, fmt.Errorf("order is required")
	}
	if cfg.Settings.PicksPerTeam < 1 {
		return nil, fmt.Errorf("picks per team must be >= 1, got %d", cfg.Settings.PicksPerTeam)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	strat := cfg.Strategy
	if strat == nil {
		strat = CheapestLegalStrategy{}
	}
	drivers := make(map[uuid.UUID]models.Driver, len(cfg.Drivers))
	for _, d := range cfg.Drivers {
		drivers[d.ID] = d
	}
	return &Machine{
		sessionID: cfg.SessionID,
		settings:  cfg.Settings,
		order:     cfg.Order,
		clock:     clk,
		strategy:  strat,
		drivers:   drivers,
		state: models.DraftTurnState{
			Status: models.DraftStatusNotStarted,
		},
	}, nil
}

// Start moves the machine into InProgress and puts the first team on the
// clock. Starting twice is an error.
func (m *Machine) Start() error {
	if m.state.Status != models.DraftStatusNotStarted {
		return fmt.Errorf("cannot start draft in status %s", m.state.Status)
	}
	first, err := m.order.TeamAt(1, 1)
	if err != nil {
		return err
	}
	deadline := m.clock.Now().Add(m.pickTimeout())
	m.state = models.DraftTurnState{
		CurrentRound:    1,
		CurrentPosition: 1,
		CurrentTeamID:   first.TeamID,
		TimerDeadline:   &deadline,
		Status:          models.DraftStatusInProgress,
	}
	log.Info().
		Str("session_id", m.sessionID.String()).
		Str("team_id", first.TeamID.String()).
		Time("deadline", deadline).
		Msg("draft started")
	return nil
}

// ApplyPick commits a pick for the acting team. The team must be on the
// clock and the pick must pass constraint validation; a rejected pick
// leaves the machine untouched.
func (m *Machine) ApplyPick(teamID, driverID uuid.UUID) (*models.PickRecord, error) {
	return m.commitPick(teamID, driverID, false)
}

// ExpireTimer performs the timeout transition: if the pick deadline has
// passed with no submission, the auto-pick strategy selects a driver for
// the team on the clock and the turn advances exactly as a manual pick
// would, with IsAutoPick set.
func (m *Machine) ExpireTimer() (*models.PickRecord, error) {
	if m.state.Status == models.DraftStatusCompleted || m.state.IsComplete {
		return nil, ErrDraftAlreadyComplete
	}
	if m.state.Status == models.DraftStatusNotStarted {
		return nil, ErrDraftNotStarted
	}
	if m.state.TimerDeadline == nil || m.clock.Now().Before(*m.state.TimerDeadline) {
		return nil, ErrTimerNotExpired
	}

	teamID := m.state.CurrentTeamID
	constraint := rules.ConstraintFor(teamID, m.settings, m.picks, m.drivers)
	drafted := rules.DraftedSet(m.picks)
	choice, err := m.strategy.SelectDriver(m.availableDrivers(drafted), constraint, drafted)
	if err != nil {
		return nil, fmt.Errorf("auto-pick selection: %w", err)
	}

	log.Info().
		Str("session_id", m.sessionID.String()).
		Str("team_id", teamID.String()).
		Str("driver_id", choice.ID.String()).
		Msg("timer expired, committing auto-pick")
	return m.commitPick(teamID, choice.ID, true)
}

func (m *Machine) commitPick(teamID, driverID uuid.UUID, auto bool) (*models.PickRecord, error) {
	if m.state.Status == models.DraftStatusCompleted || m.state.IsComplete {
		return nil, ErrDraftAlreadyComplete
	}
	if m.state.Status == models.DraftStatusNotStarted {
		return nil, ErrDraftNotStarted
	}
	if teamID != m.state.CurrentTeamID {
		return nil, fmt.Errorf("%w: %s is on the clock", ErrNotYourTurn, m.state.CurrentTeamID)
	}

	driver, ok := m.drivers[driverID]
	if !ok {
		return nil, &ViolationError{Violations: []rules.Violation{{
			Rule:    rules.RuleDriverUnavailable,
			Message: fmt.Sprintf("unknown driver %s", driverID),
		}}}
	}

	constraint := rules.ConstraintFor(teamID, m.settings, m.picks, m.drivers)
	drafted := rules.DraftedSet(m.picks)
	if violations := rules.Validate(rules.PickRequest{TeamID: teamID, Driver: driver}, constraint, drafted); len(violations) > 0 {
		return nil, &ViolationError{Violations: violations}
	}

	record := models.PickRecord{
		ID:         uuid.New(),
		SessionID:  m.sessionID,
		Round:      m.state.CurrentRound,
		PickNumber: m.state.TotalPicksMade + 1,
		TeamID:     teamID,
		DriverID:   driverID,
		IsAutoPick: auto,
		CreatedAt:  m.clock.Now(),
	}
	m.picks = append(m.picks, record)
	m.advance()

	log.Info().
		Str("session_id", m.sessionID.String()).
		Str("team_id", teamID.String()).
		Str("driver_id", driverID.String()).
		Int("pick_number", record.PickNumber).
		Bool("auto_pick", auto).
		Msg("pick committed")
	return &record, nil
}

// advance recomputes (round, position, team) for the next pick, or
// completes the draft after the final pick.
func (m *Machine) advance() {
	m.state.TotalPicksMade++
	total := m.order.Size() * m.settings.PicksPerTeam
	if m.state.TotalPicksMade >= total {
		m.state.IsComplete = true
		m.state.Status = models.DraftStatusCompleted
		m.state.TimerDeadline = nil
		m.state.CurrentTeamID = uuid.Nil
		log.Info().
			Str("session_id", m.sessionID.String()).
			Int("total_picks", m.state.TotalPicksMade).
			Msg("draft completed")
		return
	}

	round, position, entry, err := m.order.SlotForPick(m.state.TotalPicksMade + 1)
	if err != nil {
		// Unreachable while TotalPicksMade < total; keep the machine sane.
		log.Error().Err(err).Str("session_id", m.sessionID.String()).Msg("slot resolution failed")
		return
	}
	deadline := m.clock.Now().Add(m.pickTimeout())
	m.state.CurrentRound = round
	m.state.CurrentPosition = position
	m.state.CurrentTeamID = entry.TeamID
	m.state.TimerDeadline = &deadline
}

func (m *Machine) pickTimeout() time.Duration {
	return time.Duration(m.settings.TimePerPickSec) * time.Second
}

func (m *Machine) availableDrivers(drafted map[uuid.UUID]struct{}) []models.Driver {
	avail := make([]models.Driver, 0, len(m.drivers))
	for id, d := range m.drivers {
		if _, taken := drafted[id]; !taken {
			avail = append(avail, d)
		}
	}
	return avail
}

// AvailableDrivers returns the undrafted driver pool.
func (m *Machine) AvailableDrivers() []models.Driver {
	return m.availableDrivers(rules.DraftedSet(m.picks))
}

// TurnState returns a snapshot of the current turn state.
func (m *Machine) TurnState() models.DraftTurnState {
	st := m.state
	if st.TimerDeadline != nil {
		d := *st.TimerDeadline
		st.TimerDeadline = &d
	}
	return st
}

// Picks returns a copy of the committed pick history in pick order.
func (m *Machine) Picks() []models.PickRecord {
	cp := make([]models.PickRecord, len(m.picks))
	copy(cp, m.picks)
	return cp
}

// Deadline returns the current pick deadline, or nil when no team is on
// the clock.
func (m *Machine) Deadline() *time.Time {
	return m.state.TimerDeadline
}
