package notifications

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

// SyncConflictError reports an optimistic notification mutation the
// server rejected. The local change has already been reverted when this
// error is returned.
type SyncConflictError struct {
	Op  string
	Err error
}

func (e *SyncConflictError) Error() string {
	return fmt.Sprintf("notification %s rejected by server, local change reverted: %v", e.Op, e.Err)
}

func (e *SyncConflictError) Unwrap() error {
	return e.Err
}

// NotificationAPI is what the store needs from the backend to mirror
// read/unread and deletion actions. *clients.FantasyClient satisfies it.
type NotificationAPI interface {
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
	MarkNotificationUnread(ctx context.Context, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id uuid.UUID) error
	ClearNotifications(ctx context.Context) error
}

// Store is the in-memory notification collection for an authenticated
// session, newest first. Mutations apply optimistically and are mirrored
// to the server; a rejection reverts the local change so the store never
// diverges for longer than one round trip.
type Store struct {
	api NotificationAPI

	mu     sync.RWMutex
	items  []models.Notification // newest first
	unread int
}

// NewStore creates an empty store. The store is rebuilt from scratch on
// sign-in and discarded on sign-out.
func NewStore(api NotificationAPI) *Store {
	return &Store{api: api}
}

// Replace rebuilds the store from a server snapshot, e.g. the first feed
// page fetched after sign-in.
func (s *Store) Replace(items []models.Notification, unread int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]models.Notification{}, items...)
	if unread < 0 {
		unread = 0
	}
	s.unread = unread
}

// Ingest prepends a pushed notification. Channel insertion order is
// authoritative for newest-first placement, so no timestamp sorting
// happens here.
func (s *Store) Ingest(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]models.Notification{n}, s.items...)
	if !n.Read {
		s.unread++
	}
	log.Debug().
		Str("notification_id", n.ID.String()).
		Str("type", string(n.Type)).
		Int("unread", s.unread).
		Msg("notification ingested")
}

// Notifications returns a copy of the collection, newest first.
func (s *Store) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]models.Notification, len(s.items))
	copy(cp, s.items)
	return cp
}

// Unread returns the unread count.
func (s *Store) Unread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Len returns the number of notifications held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// MarkRead marks a notification read. Marking an already-read
// notification again is a no-op and never double-decrements the unread
// counter.
func (s *Store) MarkRead(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 || s.items[idx].Read {
		s.mu.Unlock()
		return nil
	}
	s.items[idx].Read = true
	s.decUnread()
	s.mu.Unlock()

	if err := s.api.MarkNotificationRead(ctx, id); err != nil {
		s.mu.Lock()
		if idx := s.indexOf(id); idx >= 0 {
			s.items[idx].Read = false
			s.unread++
		}
		s.mu.Unlock()
		return &SyncConflictError{Op: "mark read", Err: err}
	}
	return nil
}

// MarkUnread marks a notification unread, mirroring to the server.
func (s *Store) MarkUnread(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 || !s.items[idx].Read {
		s.mu.Unlock()
		return nil
	}
	s.items[idx].Read = false
	s.unread++
	s.mu.Unlock()

	if err := s.api.MarkNotificationUnread(ctx, id); err != nil {
		s.mu.Lock()
		if idx := s.indexOf(id); idx >= 0 {
			s.items[idx].Read = true
			s.decUnread()
		}
		s.mu.Unlock()
		return &SyncConflictError{Op: "mark unread", Err: err}
	}
	return nil
}

// MarkAllRead marks the whole feed read. Idempotent: a second call leaves
// the unread count at zero.
func (s *Store) MarkAllRead(ctx context.Context) error {
	s.mu.Lock()
	wasUnread := make([]uuid.UUID, 0, s.unread)
	for i := range s.items {
		if !s.items[i].Read {
			wasUnread = append(wasUnread, s.items[i].ID)
			s.items[i].Read = true
		}
	}
	s.unread = 0
	s.mu.Unlock()

	if len(wasUnread) == 0 {
		return nil
	}

	if err := s.api.MarkAllNotificationsRead(ctx); err != nil {
		s.mu.Lock()
		for _, id := range wasUnread {
			if idx := s.indexOf(id); idx >= 0 {
				s.items[idx].Read = false
				s.unread++
			}
		}
		s.mu.Unlock()
		return &SyncConflictError{Op: "mark all read", Err: err}
	}
	return nil
}

// Delete removes a notification; an unread removal decrements the
// counter, clamped at zero.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	removed := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	if !removed.Read {
		s.decUnread()
	}
	s.mu.Unlock()

	if err := s.api.DeleteNotification(ctx, id); err != nil {
		s.mu.Lock()
		if idx > len(s.items) {
			idx = len(s.items)
		}
		s.items = append(s.items[:idx], append([]models.Notification{removed}, s.items[idx:]...)...)
		if !removed.Read {
			s.unread++
		}
		s.mu.Unlock()
		return &SyncConflictError{Op: "delete", Err: err}
	}
	return nil
}

// ClearAll empties the feed.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	saved := s.items
	savedUnread := s.unread
	s.items = nil
	s.unread = 0
	s.mu.Unlock()

	if len(saved) == 0 {
		return nil
	}

	if err := s.api.ClearNotifications(ctx); err != nil {
		s.mu.Lock()
		s.items = saved
		s.unread = savedUnread
		s.mu.Unlock()
		return &SyncConflictError{Op: "clear all", Err: err}
	}
	return nil
}

// indexOf returns the index of id, or -1. Callers hold s.mu.
func (s *Store) indexOf(id uuid.UUID) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// decUnread decrements the unread counter, clamped at zero. Callers hold
// s.mu.
func (s *Store) decUnread() {
	if s.unread > 0 {
		s.unread--
	}
}
