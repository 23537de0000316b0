package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a notification for presentation dispatch.
type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeWarning NotificationType = "warning"
	NotificationTypeError   NotificationType = "error"

	// Domain-specific subtypes delivered by the draft backend.
	NotificationTypeDraftTurn     NotificationType = "draft_turn"
	NotificationTypeDraftPick     NotificationType = "draft_pick"
	NotificationTypeDraftComplete NotificationType = "draft_complete"
	NotificationTypeRaceResult    NotificationType = "race_result"
)

// Notification represents a server-created notification delivered to the
// client. Only read state and deletion are mutated locally, and those
// mutations are mirrored back to the server.
type Notification struct {
	ID          uuid.UUID        `json:"id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Read        bool             `json:"read"`
	ActionURL   string           `json:"action_url,omitempty"`
	ActionLabel string           `json:"action_label,omitempty"`
	LeagueID    *uuid.UUID       `json:"league_id,omitempty"`
	RaceID      *uuid.UUID       `json:"race_id,omitempty"`
	SessionID   *uuid.UUID       `json:"session_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
