package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

// Toast is an ephemeral on-screen copy of a notification. It lives only
// in the presentation layer and is never persisted.
type Toast struct {
	Notification models.Notification
	ShownAt      time.Time
	Duration     time.Duration
	Exiting      bool
}

const (
	defaultToastDuration = 5 * time.Second
	// toastExitDuration is how long the exit transition runs before the
	// entry is removed, so the UI layer can animate the dismissal.
	toastExitDuration = 300 * time.Millisecond
)

// ToastQueue holds the transient toast entries. Each entry self-expires
// after its display duration unless dismissed earlier; dismissal is
// two-phase (mark exiting, then remove). When MaxVisible is set, excess
// toasts queue FIFO behind the expiring visible slots; the default of 0
// keeps the queue unbounded.
type ToastQueue struct {
	clock    clockwork.Clock
	duration time.Duration

	// MaxVisible caps simultaneously visible toasts; 0 means no cap.
	MaxVisible int

	// OnChange, when set, fires after every queue mutation.
	OnChange func()

	mu      sync.Mutex
	visible []*Toast
	pending []models.Notification
	timers  map[uuid.UUID]clockwork.Timer
}

// NewToastQueue creates a queue with the given display duration; a
// non-positive duration selects the 5 second default.
func NewToastQueue(clock clockwork.Clock, duration time.Duration) *ToastQueue {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if duration <= 0 {
		duration = defaultToastDuration
	}
	return &ToastQueue{
		clock:    clock,
		duration: duration,
		timers:   make(map[uuid.UUID]clockwork.Timer),
	}
}

// Show enqueues a toast for the notification. It becomes visible
// immediately unless the visible cap is reached, in which case it waits
// FIFO for a slot.
func (q *ToastQueue) Show(n models.Notification) {
	q.mu.Lock()
	if q.MaxVisible > 0 && len(q.visible) >= q.MaxVisible {
		q.pending = append(q.pending, n)
		q.mu.Unlock()
		q.notify()
		return
	}
	q.showLocked(n)
	q.mu.Unlock()
	q.notify()
}

// showLocked makes a toast visible and arms its expiry timer. Callers
// hold q.mu.
func (q *ToastQueue) showLocked(n models.Notification) {
	t := &Toast{
		Notification: n,
		ShownAt:      q.clock.Now(),
		Duration:     q.duration,
	}
	q.visible = append(q.visible, t)
	id := n.ID
	q.timers[id] = q.clock.AfterFunc(q.duration, func() {
		q.Dismiss(id)
	})
}

// Dismiss starts the two-phase removal of a toast: the entry is marked
// exiting so the UI can animate, then removed after the exit transition.
// Dismissing an unknown or already-exiting toast is a no-op.
func (q *ToastQueue) Dismiss(id uuid.UUID) {
	q.mu.Lock()
	var target *Toast
	for _, t := range q.visible {
		if t.Notification.ID == id {
			target = t
			break
		}
	}
	if target == nil || target.Exiting {
		q.mu.Unlock()
		return
	}
	target.Exiting = true
	if timer, ok := q.timers[id]; ok {
		timer.Stop()
	}
	q.timers[id] = q.clock.AfterFunc(toastExitDuration, func() {
		q.remove(id)
	})
	q.mu.Unlock()
	q.notify()
}

// remove completes the second phase: the toast leaves the queue and a
// pending toast, if any, is promoted into the freed slot.
func (q *ToastQueue) remove(id uuid.UUID) {
	q.mu.Lock()
	for i, t := range q.visible {
		if t.Notification.ID == id {
			q.visible = append(q.visible[:i], q.visible[i+1:]...)
			break
		}
	}
	delete(q.timers, id)
	if len(q.pending) > 0 && (q.MaxVisible == 0 || len(q.visible) < q.MaxVisible) {
		next := q.pending[0]
		q.pending = q.pending[1:]
		q.showLocked(next)
	}
	q.mu.Unlock()
	q.notify()
}

// Visible returns a snapshot of the visible toasts in display order.
func (q *ToastQueue) Visible() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	cp := make([]Toast, len(q.visible))
	for i, t := range q.visible {
		cp[i] = *t
	}
	return cp
}

// PendingCount returns the number of toasts waiting behind the visible
// cap.
func (q *ToastQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *ToastQueue) notify() {
	if q.OnChange != nil {
		q.OnChange()
	}
}
