package notifications

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

func visibleIDs(q *ToastQueue) []string {
	var ids []string
	for _, t := range q.Visible() {
		ids = append(ids, t.Notification.ID.String())
	}
	return ids
}

func waitForVisible(t *testing.T, q *ToastQueue, want int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return len(q.Visible()) == want
	}, time.Second, time.Millisecond)
}

func TestShowMakesToastVisible(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := NewToastQueue(clock, 5*time.Second)

	n := notif(false)
	q.Show(n)

	visible := q.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, n.ID, visible[0].Notification.ID)
	assert.Equal(t, 5*time.Second, visible[0].Duration)
	assert.False(t, visible[0].Exiting)
}

func TestToastAutoExpiresInTwoPhases(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := NewToastQueue(clock, 5*time.Second)
	q.Show(notif(false))

	// Expiry fires the dismissal, which first marks the entry exiting.
	clock.Advance(5 * time.Second)
	assert.Eventually(t, func() bool {
		v := q.Visible()
		return len(v) == 1 && v[0].Exiting
	}, time.Second, time.Millisecond, "toast enters its exit transition")

	// The entry leaves the queue only after the exit transition.
	clock.Advance(300 * time.Millisecond)
	waitForVisible(t, q, 0)
}

func TestDismissBeforeExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := NewToastQueue(clock, 5*time.Second)
	n := notif(false)
	q.Show(n)

	q.Dismiss(n.ID)
	v := q.Visible()
	require.Len(t, v, 1)
	assert.True(t, v[0].Exiting, "dismissal is two-phase, not an instant removal")

	// Dismissing again while exiting is a no-op.
	q.Dismiss(n.ID)

	clock.Advance(300 * time.Millisecond)
	waitForVisible(t, q, 0)
}

func TestDismissUnknownIDIsNoOp(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := NewToastQueue(clock, 5*time.Second)
	q.Show(notif(false))
	q.Dismiss(notif(false).ID)
	assert.Len(t, q.Visible(), 1)
}

func TestMaxVisiblePromotesPendingFIFO(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := NewToastQueue(clock, 5*time.Second)
	q.MaxVisible = 2

	first := notif(false)
	second := notif(false)
	third := notif(false)
	fourth := notif(false)
	q.Show(first)
	q.Show(second)
	q.Show(third)
	q.Show(fourth)

	require.Len(t, q.Visible(), 2)
	assert.Equal(t, 2, q.PendingCount())
	assert.Equal(t, []string{first.ID.String(), second.ID.String()}, visibleIDs(q))

	// Freeing a slot promotes the oldest pending toast.
	q.Dismiss(first.ID)
	clock.Advance(300 * time.Millisecond)
	assert.Eventually(t, func() bool {
		ids := visibleIDs(q)
		return len(ids) == 2 && ids[1] == third.ID.String()
	}, time.Second, time.Millisecond, "third toast takes the freed slot")
	assert.Equal(t, 1, q.PendingCount())
}

func TestOnChangeFiresOnMutations(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := NewToastQueue(clock, 5*time.Second)

	changes := 0
	q.OnChange = func() { changes++ }

	n := notif(false)
	q.Show(n)
	assert.Equal(t, 1, changes)
	q.Dismiss(n.ID)
	assert.Equal(t, 2, changes)
}

func TestDefaultDuration(t *testing.T) {
	q := NewToastQueue(clockwork.NewFakeClock(), 0)
	q.Show(notif(false))
	assert.Equal(t, defaultToastDuration, q.Visible()[0].Duration)
}

func TestPresentationLookup(t *testing.T) {
	turn := PresentationFor(models.NotificationTypeDraftTurn)
	assert.Equal(t, "flag", turn.Icon)
	assert.Equal(t, "Make your pick", turn.ActionLabel)

	unknown := PresentationFor(models.NotificationType("mystery"))
	assert.Equal(t, PresentationFor(models.NotificationTypeInfo), unknown, "unknown types render as info")
}
