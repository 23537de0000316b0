package notifications

import (
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

// Presentation describes how a notification category renders: icon,
// accent color and default action label. Dispatch happens through a
// single lookup table rather than per-component branching.
type Presentation struct {
	Icon        string
	Color       string
	ActionLabel string
}

var presentations = map[models.NotificationType]Presentation{
	models.NotificationTypeInfo:          {Icon: "info", Color: "#3b82f6", ActionLabel: "View"},
	models.NotificationTypeSuccess:       {Icon: "check-circle", Color: "#22c55e", ActionLabel: "View"},
	models.NotificationTypeWarning:       {Icon: "alert-triangle", Color: "#f59e0b", ActionLabel: "View"},
	models.NotificationTypeError:         {Icon: "alert-octagon", Color: "#ef4444", ActionLabel: "Details"},
	models.NotificationTypeDraftTurn:     {Icon: "flag", Color: "#e10600", ActionLabel: "Make your pick"},
	models.NotificationTypeDraftPick:     {Icon: "user-plus", Color: "#3b82f6", ActionLabel: "View draft"},
	models.NotificationTypeDraftComplete: {Icon: "trophy", Color: "#22c55e", ActionLabel: "View results"},
	models.NotificationTypeRaceResult:    {Icon: "bar-chart", Color: "#8b5cf6", ActionLabel: "View standings"},
}

// PresentationFor returns the presentation for a notification type,
// falling back to the info presentation for unknown types.
func PresentationFor(t models.NotificationType) Presentation {
	if p, ok := presentations[t]; ok {
		return p
	}
	return presentations[models.NotificationTypeInfo]
}

// ToastFromEvent decides whether a notification forks a transient toast
// copy alongside its persistent store entry. Everything is toastable
// today; the hook exists so quiet categories can opt out later.
func ToastFromEvent(n models.Notification) bool {
	return true
}
