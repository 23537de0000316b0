package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftMethod defines how the pick order for a draft is produced.
type DraftMethod string

const (
	DraftMethodRandom     DraftMethod = "RANDOM"
	DraftMethodSequential DraftMethod = "SEQUENTIAL"
	DraftMethodSnake      DraftMethod = "SNAKE"
)

// DraftStatus defines the lifecycle status of a draft session.
type DraftStatus string

const (
	DraftStatusNotStarted DraftStatus = "NOT_STARTED"
	DraftStatusInProgress DraftStatus = "IN_PROGRESS"
	DraftStatusCompleted  DraftStatus = "COMPLETED"
)

// DraftSettings holds per-session draft configuration.
type DraftSettings struct {
	PicksPerTeam      int   `json:"picks_per_team"`
	TimePerPickSec    int   `json:"time_per_pick_sec"`
	MaxPerConstructor int   `json:"max_per_constructor"`
	BudgetPerTeam     Price `json:"budget_per_team"`
}

// DraftOrderEntry maps one base-order position to a fantasy team.
// Positions are a contiguous permutation of 1..N.
type DraftOrderEntry struct {
	Position int       `json:"position"`
	TeamID   uuid.UUID `json:"team_id"`
	UserID   uuid.UUID `json:"user_id"`
}

// DraftTurnState is the authoritative "whose turn is it" snapshot.
type DraftTurnState struct {
	CurrentRound    int         `json:"current_round"`
	CurrentPosition int         `json:"current_position"`
	TotalPicksMade  int         `json:"total_picks_made"`
	IsComplete      bool        `json:"is_complete"`
	CurrentTeamID   uuid.UUID   `json:"current_team_id"`
	TimerDeadline   *time.Time  `json:"timer_deadline,omitempty"`
	Status          DraftStatus `json:"status"`
}

// DraftSession represents one draft for a (league, race) pair.
// Its order is immutable once created; only the turn state mutates.
type DraftSession struct {
	ID          uuid.UUID         `json:"id"`
	LeagueID    uuid.UUID         `json:"league_id"`
	RaceID      uuid.UUID         `json:"race_id"`
	DraftMethod DraftMethod       `json:"draft_method"`
	Settings    DraftSettings     `json:"settings"`
	Order       []DraftOrderEntry `json:"order"`
	TurnState   DraftTurnState    `json:"turn_state"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}
