package models

import (
	"time"

	"github.com/google/uuid"
)

// PickRecord represents a single completed pick in a draft session.
// PickNumber is strictly increasing and dense across the session; a
// driver appears in at most one record per session.
type PickRecord struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	Round      int       `json:"round"`
	PickNumber int       `json:"pick_number"` // overall pick number
	TeamID     uuid.UUID `json:"team_id"`
	DriverID   uuid.UUID `json:"driver_id"`
	IsAutoPick bool      `json:"is_auto_pick"`
	CreatedAt  time.Time `json:"created_at"`
}
