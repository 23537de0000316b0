package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

// Event is the envelope for every message delivered on the realtime
// channel.
type Event struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id,omitempty"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType identifies the payload carried by an Event.
type EventType string

const (
	EventTypeDraftStarted   EventType = "DraftStarted"
	EventTypePickStarted    EventType = "PickStarted"
	EventTypePickMade       EventType = "PickMade"
	EventTypeDraftCompleted EventType = "DraftCompleted"
	EventTypeTimerTick      EventType = "TimerTick"
	EventTypeNotification   EventType = "Notification"
)

// DraftStartedPayload is the payload for a DraftStarted event.
type DraftStartedPayload struct {
	SessionID   string    `json:"session_id"`
	DraftMethod string    `json:"draft_method"`
	StartedAt   time.Time `json:"started_at"`
	TotalRounds int       `json:"total_rounds"`
	TotalPicks  int       `json:"total_picks"`
}

// PickStartedPayload is the payload for a PickStarted event.
type PickStartedPayload struct {
	TeamID         string    `json:"team_id"`
	Round          int       `json:"round"`
	Position       int       `json:"position"`
	OverallPick    int       `json:"overall_pick"`
	StartedAt      time.Time `json:"started_at"`
	TimeoutAt      time.Time `json:"timeout_at"`
	TimePerPickSec int       `json:"time_per_pick_sec"`
}

// PickMadePayload is the payload for a PickMade event.
type PickMadePayload struct {
	PickID      string    `json:"pick_id"`
	TeamID      string    `json:"team_id"`
	TeamName    string    `json:"team_name"`
	DriverID    string    `json:"driver_id"`
	DriverName  string    `json:"driver_name"`
	Round       int       `json:"round"`
	Position    int       `json:"position"`
	OverallPick int       `json:"overall_pick"`
	IsAutoPick  bool      `json:"is_auto_pick"`
	MadeAt      time.Time `json:"made_at"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event.
type DraftCompletedPayload struct {
	SessionID   string    `json:"session_id"`
	CompletedAt time.Time `json:"completed_at"`
	TotalPicks  int       `json:"total_picks"`
}

// TimerTickPayload carries periodic countdown updates.
type TimerTickPayload struct {
	TeamID           string    `json:"team_id"`
	TimeRemainingSec int       `json:"time_remaining_sec"`
	TickedAt         time.Time `json:"ticked_at"`
}

// ParsePayload decodes an event's data into its typed payload. A
// Notification event decodes into models.Notification. Unknown event
// types return (nil, nil) so callers can skip them without treating the
// message as malformed.
func ParsePayload(ev *Event) (interface{}, error) {
	switch ev.Type {
	case EventTypeDraftStarted:
		var p DraftStartedPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("decode DraftStarted payload: %w", err)
		}
		return p, nil
	case EventTypePickStarted:
		var p PickStartedPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("decode PickStarted payload: %w", err)
		}
		return p, nil
	case EventTypePickMade:
		var p PickMadePayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("decode PickMade payload: %w", err)
		}
		return p, nil
	case EventTypeDraftCompleted:
		var p DraftCompletedPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("decode DraftCompleted payload: %w", err)
		}
		return p, nil
	case EventTypeTimerTick:
		var p TimerTickPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, fmt.Errorf("decode TimerTick payload: %w", err)
		}
		return p, nil
	case EventTypeNotification:
		var n models.Notification
		if err := json.Unmarshal(ev.Data, &n); err != nil {
			return nil, fmt.Errorf("decode Notification payload: %w", err)
		}
		return n, nil
	default:
		return nil, nil
	}
}
