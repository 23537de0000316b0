package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/famgala/FantasyF1-BE-sub002/go/clients"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/engine"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/order"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/rules"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

var (
	ErrRefreshFailed = errors.New("draft state refresh failed")
	ErrStaleState    = errors.New("local draft mirror was stale")
	ErrNoMirror      = errors.New("no draft state fetched yet")
)

// DraftAPI is what the session client needs from the backend of record.
// *clients.FantasyClient satisfies it.
type DraftAPI interface {
	GetDraftState(ctx context.Context, sessionID uuid.UUID) (*clients.DraftStateResponse, error)
	SubmitPick(ctx context.Context, sessionID uuid.UUID, req clients.SubmitPickRequest) (*clients.DraftStateResponse, error)
	ListAvailableDrivers(ctx context.Context, sessionID uuid.UUID) ([]models.Driver, error)
}

// Mirror is the client-side copy of authoritative draft state. It is
// replaced wholesale on every successful refresh; it is never merged
// incrementally.
type Mirror struct {
	Session    models.DraftSession
	Picks      []models.PickRecord
	ServerTime time.Time
	FetchedAt  time.Time
}

// TimeRemaining computes the pick countdown against the server clock
// captured at fetch time, so a skewed local clock cannot inflate it.
func (m *Mirror) TimeRemaining(now time.Time) time.Duration {
	if m.Session.TurnState.TimerDeadline == nil {
		return 0
	}
	elapsed := now.Sub(m.FetchedAt)
	remaining := m.Session.TurnState.TimerDeadline.Sub(m.ServerTime.Add(elapsed))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Config configures a session Client.
type Config struct {
	API          DraftAPI
	SessionID    uuid.UUID
	TeamID       uuid.UUID // the acting team this client submits for
	PollInterval time.Duration
	Clock        clockwork.Clock
}

// Client bridges the authoritative backend and local draft view state.
// The mirror it maintains is read-only with respect to draft semantics:
// every authoritative response wins over any optimistic overlay.
type Client struct {
	api          DraftAPI
	sessionID    uuid.UUID
	teamID       uuid.UUID
	pollInterval time.Duration
	clock        clockwork.Clock

	sf singleflight.Group

	mu      sync.RWMutex
	mirror  *Mirror
	drivers map[uuid.UUID]models.Driver
}

const defaultPollInterval = 3 * time.Second

// NewClient creates a session client. It performs no I/O until Refresh or
// Run is called.
func NewClient(cfg Config) (*Client, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("api is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Client{
		api:          cfg.API,
		sessionID:    cfg.SessionID,
		teamID:       cfg.TeamID,
		pollInterval: cfg.PollInterval,
		clock:        cfg.Clock,
		drivers:      make(map[uuid.UUID]models.Driver),
	}, nil
}

// Mirror returns the last-known-good state, or nil before the first
// successful refresh.
func (c *Client) Mirror() *Mirror {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mirror
}

// Refresh fetches the authoritative turn state and pick history and
// replaces the local mirror. Concurrent calls are coalesced: a Refresh
// invoked while one is in flight receives the in-flight result rather
// than issuing a second request. On failure the last-known-good mirror is
// preserved and a retryable error returned.
func (c *Client) Refresh(ctx context.Context) (*Mirror, error) {
	v, err, _ := c.sf.Do("refresh", func() (interface{}, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return c.Mirror(), fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	return v.(*Mirror), nil
}

func (c *Client) fetch(ctx context.Context) (*Mirror, error) {
	resp, err := c.api.GetDraftState(ctx, c.sessionID)
	if err != nil {
		return nil, err
	}
	drivers, err := c.api.ListAvailableDrivers(ctx, c.sessionID)
	if err != nil {
		return nil, err
	}

	mirror := &Mirror{
		Session:    resp.Session,
		Picks:      resp.Picks,
		ServerTime: resp.ServerTime,
		FetchedAt:  c.clock.Now(),
	}

	c.mu.Lock()
	c.mirror = mirror
	for _, d := range drivers {
		c.drivers[d.ID] = d
	}
	c.mu.Unlock()

	log.Debug().
		Str("session_id", c.sessionID.String()).
		Int("picks", len(resp.Picks)).
		Bool("complete", resp.Session.TurnState.IsComplete).
		Msg("draft mirror replaced")
	return mirror, nil
}

// Validate pre-checks a pick against the mirrored state without touching
// the network. It returns the complete violation list, or ErrNotYourTurn
// if the acting team is not on the clock.
func (c *Client) Validate(driverID uuid.UUID) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mirror == nil {
		return ErrNoMirror
	}
	state := c.mirror.Session.TurnState
	if state.IsComplete {
		return engine.ErrDraftAlreadyComplete
	}
	if state.CurrentTeamID != c.teamID {
		return engine.ErrNotYourTurn
	}
	driver, ok := c.drivers[driverID]
	if !ok {
		return &engine.ViolationError{Violations: []rules.Violation{{
			Rule:    rules.RuleDriverUnavailable,
			Message: fmt.Sprintf("unknown driver %s", driverID),
		}}}
	}
	constraint := rules.ConstraintFor(c.teamID, c.mirror.Session.Settings, c.mirror.Picks, c.drivers)
	drafted := rules.DraftedSet(c.mirror.Picks)
	if violations := rules.Validate(rules.PickRequest{TeamID: c.teamID, Driver: driver}, constraint, drafted); len(violations) > 0 {
		return &engine.ViolationError{Violations: violations}
	}
	return nil
}

// SubmitPick validates locally for fast feedback, submits the pick, and
// reconciles. The optimistic turn advance is discarded the moment the
// authoritative response lands: on acceptance the response replaces the
// mirror outright, on rejection the pre-submit mirror is restored and the
// specific violations are surfaced.
func (c *Client) SubmitPick(ctx context.Context, driverID uuid.UUID) error {
	if err := c.Validate(driverID); err != nil {
		return err
	}

	c.mu.Lock()
	saved := c.mirror
	c.applyOptimisticAdvance(driverID)
	c.mu.Unlock()

	resp, err := c.api.SubmitPick(ctx, c.sessionID, clients.SubmitPickRequest{
		TeamID:   c.teamID,
		DriverID: driverID,
	})
	if err != nil {
		c.mu.Lock()
		c.mirror = saved
		c.mu.Unlock()
		return c.translateSubmitError(ctx, err)
	}

	c.mu.Lock()
	c.mirror = &Mirror{
		Session:    resp.Session,
		Picks:      resp.Picks,
		ServerTime: resp.ServerTime,
		FetchedAt:  c.clock.Now(),
	}
	c.mu.Unlock()

	// Reconcile once more so pick history and driver pool catch up with
	// anything that landed between submit and response.
	if _, err := c.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("session_id", c.sessionID.String()).Msg("post-pick reconcile failed")
	}
	return nil
}

// applyOptimisticAdvance overlays an eager turn advance on the mirror.
// Callers hold c.mu. The overlay is always discardable: it is replaced by
// the next authoritative response.
func (c *Client) applyOptimisticAdvance(driverID uuid.UUID) {
	if c.mirror == nil {
		return
	}
	next := *c.mirror
	next.Picks = append(append([]models.PickRecord{}, c.mirror.Picks...), models.PickRecord{
		SessionID:  c.sessionID,
		Round:      next.Session.TurnState.CurrentRound,
		PickNumber: next.Session.TurnState.TotalPicksMade + 1,
		TeamID:     c.teamID,
		DriverID:   driverID,
		CreatedAt:  c.clock.Now(),
	})
	next.Session.TurnState.TotalPicksMade++
	totalTeams := len(next.Session.Order)
	if totalTeams > 0 && next.Session.TurnState.TotalPicksMade >= totalTeams*next.Session.Settings.PicksPerTeam {
		next.Session.TurnState.IsComplete = true
		next.Session.TurnState.Status = models.DraftStatusCompleted
		next.Session.TurnState.TimerDeadline = nil
	} else if ord, err := order.FromEntries(next.Session.DraftMethod, next.Session.Order); err == nil {
		if round, position, entry, err := ord.SlotForPick(next.Session.TurnState.TotalPicksMade + 1); err == nil {
			next.Session.TurnState.CurrentRound = round
			next.Session.TurnState.CurrentPosition = position
			next.Session.TurnState.CurrentTeamID = entry.TeamID
		}
	}
	c.mirror = &next
}

// translateSubmitError maps a backend rejection onto the local error
// taxonomy, forcing a refresh for conflicts the mirror cannot resolve on
// its own.
func (c *Client) translateSubmitError(ctx context.Context, err error) error {
	ae, ok := clients.AsAPIError(err)
	if !ok {
		return err
	}
	switch ae.Code {
	case clients.ErrCodeNotYourTurn:
		return engine.ErrNotYourTurn
	case clients.ErrCodeDraftComplete:
		return engine.ErrDraftAlreadyComplete
	case clients.ErrCodeConstraintViolation:
		return &engine.ViolationError{Violations: ae.Violations}
	case clients.ErrCodeStaleState:
		if _, rerr := c.Refresh(ctx); rerr != nil {
			log.Warn().Err(rerr).Str("session_id", c.sessionID.String()).Msg("forced refresh after stale state failed")
		}
		return ErrStaleState
	default:
		return err
	}
}

// Run polls the backend on a fixed interval while the draft is in
// progress. It returns when the draft completes or ctx is cancelled; no
// polling survives teardown. A countdown that reaches zero locally only
// prompts an early refresh — expiry is committed by the backend alone.
func (c *Client) Run(ctx context.Context) error {
	if _, err := c.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("session_id", c.sessionID.String()).Msg("initial refresh failed, keeping last known good")
	}

	ticker := c.clock.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		if m := c.Mirror(); m != nil && m.Session.TurnState.IsComplete {
			log.Info().Str("session_id", c.sessionID.String()).Msg("draft complete, polling stopped")
			return nil
		}

		select {
		case <-ctx.Done():
			log.Info().Str("session_id", c.sessionID.String()).Msg("draft view torn down, polling stopped")
			return ctx.Err()
		case <-ticker.Chan():
			if _, err := c.Refresh(ctx); err != nil {
				log.Warn().Err(err).Str("session_id", c.sessionID.String()).Msg("poll refresh failed, keeping last known good")
			}
		}
	}
}
