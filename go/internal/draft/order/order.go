package order

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

var (
	ErrTooFewTeams      = errors.New("draft order requires at least 2 teams")
	ErrDuplicateTeam    = errors.New("duplicate team id in draft order input")
	ErrInvalidMethod    = errors.New("unknown draft method")
	ErrRoundOutOfRange  = errors.New("round must be >= 1")
	ErrPositionOutRange = errors.New("position out of range")
)

// Generator produces draft orders. The random method draws from the
// generator's own rand source, seeded once at construction so consecutive
// generations differ unless an explicit seed was supplied.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator constructs a Generator with its own time-based seed.
func NewGenerator() *Generator {
	return &Generator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededGenerator constructs a Generator with a fixed seed for
// reproducible orders.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Order is a resolved draft order for one session. It holds the base
// (round 1) order; per-round positions are computed on demand from round
// parity so large round counts are never materialized.
type Order struct {
	method  models.DraftMethod
	entries []models.DraftOrderEntry
}

// TeamSeat pairs a fantasy team with its owning user for order input.
type TeamSeat struct {
	TeamID uuid.UUID
	UserID uuid.UUID
}

// Generate computes the base draft order for the given teams.
func (g *Generator) Generate(seats []TeamSeat, method models.DraftMethod) (*Order, error) {
	if len(seats) < 2 {
		return nil, ErrTooFewTeams
	}
	seen := make(map[uuid.UUID]struct{}, len(seats))
	for _, s := range seats {
		if _, dup := seen[s.TeamID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTeam, s.TeamID)
		}
		seen[s.TeamID] = struct{}{}
	}

	base := make([]TeamSeat, len(seats))
	copy(base, seats)

	switch method {
	case models.DraftMethodRandom:
		g.rng.Shuffle(len(base), func(i, j int) {
			base[i], base[j] = base[j], base[i]
		})
	case models.DraftMethodSequential, models.DraftMethodSnake:
		// caller-supplied order is the base order
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	entries := make([]models.DraftOrderEntry, len(base))
	for i, s := range base {
		entries[i] = models.DraftOrderEntry{
			Position: i + 1,
			TeamID:   s.TeamID,
			UserID:   s.UserID,
		}
	}
	return &Order{method: method, entries: entries}, nil
}

// FromEntries rebuilds an Order from a previously persisted entry list,
// e.g. the order carried on an authoritative DraftSession.
func FromEntries(method models.DraftMethod, entries []models.DraftOrderEntry) (*Order, error) {
	if len(entries) < 2 {
		return nil, ErrTooFewTeams
	}
	seen := make(map[uuid.UUID]struct{}, len(entries))
	for i, e := range entries {
		if e.Position != i+1 {
			return nil, fmt.Errorf("entry %d has position %d, want %d", i, e.Position, i+1)
		}
		if _, dup := seen[e.TeamID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTeam, e.TeamID)
		}
		seen[e.TeamID] = struct{}{}
	}
	cp := make([]models.DraftOrderEntry, len(entries))
	copy(cp, entries)
	return &Order{method: method, entries: cp}, nil
}

// Method returns the draft method this order was generated for.
func (o *Order) Method() models.DraftMethod {
	return o.method
}

// Size returns the number of teams in the order.
func (o *Order) Size() int {
	return len(o.entries)
}

// Entries returns a copy of the base (round 1) order.
func (o *Order) Entries() []models.DraftOrderEntry {
	cp := make([]models.DraftOrderEntry, len(o.entries))
	copy(cp, o.entries)
	return cp
}

// TeamAt resolves the team on the clock for a (round, position) pair.
// Snake orders reverse on even rounds; all other methods repeat the base
// order every round. Round and position are 1-based.
func (o *Order) TeamAt(round, position int) (models.DraftOrderEntry, error) {
	if round < 1 {
		return models.DraftOrderEntry{}, ErrRoundOutOfRange
	}
	n := len(o.entries)
	if position < 1 || position > n {
		return models.DraftOrderEntry{}, fmt.Errorf("%w: %d of %d", ErrPositionOutRange, position, n)
	}
	idx := position - 1
	if o.method == models.DraftMethodSnake && round%2 == 0 {
		idx = n - position
	}
	return o.entries[idx], nil
}

// SlotForPick resolves the (round, position, team) for an overall pick
// number (1-based).
func (o *Order) SlotForPick(overallPick int) (round, position int, entry models.DraftOrderEntry, err error) {
	if overallPick < 1 {
		return 0, 0, models.DraftOrderEntry{}, fmt.Errorf("overall pick must be >= 1, got %d", overallPick)
	}
	n := len(o.entries)
	round = (overallPick-1)/n + 1
	position = (overallPick-1)%n + 1
	entry, err = o.TeamAt(round, position)
	return round, position, entry, err
}
