package backendtest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/famgala/FantasyF1-BE-sub002/go/clients"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/engine"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/order"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/events"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

// Server is an in-process stand-in for the fantasy backend of record. It
// serves the draft REST surface, the notification feed, and the realtime
// websocket channel, arbitrating picks through an authoritative draft
// engine. Tests drive it through httptest; the cmd subpackage runs it as
// a local dev backend.
type Server struct {
	clock clockwork.Clock

	mu            sync.Mutex
	session       models.DraftSession
	machine       *engine.Machine
	notifications []models.Notification

	upgrader websocket.Upgrader
	connMu   sync.Mutex
	conns    map[*websocket.Conn]chan []byte
}

// Config seeds a Server with one draft session.
type Config struct {
	LeagueID uuid.UUID
	RaceID   uuid.UUID
	Method   models.DraftMethod
	Settings models.DraftSettings
	Seats    []order.TeamSeat
	Drivers  []models.Driver
	Clock    clockwork.Clock
	Seed     int64 // seed for random order generation
}

// NewServer builds a server with a started draft session.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	gen := order.NewSeededGenerator(cfg.Seed)
	ord, err := gen.Generate(cfg.Seats, cfg.Method)
	if err != nil {
		return nil, fmt.Errorf("generate order: %w", err)
	}

	sessionID := uuid.New()
	machine, err := engine.NewMachine(engine.Config{
		SessionID: sessionID,
		Settings:  cfg.Settings,
		Order:     ord,
		Drivers:   cfg.Drivers,
		Clock:     cfg.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("build machine: %w", err)
	}
	if err := machine.Start(); err != nil {
		return nil, fmt.Errorf("start machine: %w", err)
	}

	s := &Server{
		clock: cfg.Clock,
		session: models.DraftSession{
			ID:          sessionID,
			LeagueID:    cfg.LeagueID,
			RaceID:      cfg.RaceID,
			DraftMethod: cfg.Method,
			Settings:    cfg.Settings,
			Order:       ord.Entries(),
			CreatedAt:   cfg.Clock.Now(),
		},
		machine: machine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]chan []byte),
	}
	return s, nil
}

// SessionID returns the id of the seeded draft session.
func (s *Server) SessionID() uuid.UUID {
	return s.session.ID
}

// Handler returns the full HTTP handler, CORS-wrapped for browser dev
// use.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/drafts/{id}/state", s.handleDraftState)
	mux.HandleFunc("GET /api/leagues/{league}/races/{race}/draft", s.handleDraftByLeagueRace)
	mux.HandleFunc("GET /api/drafts/{id}/picks", s.handleListPicks)
	mux.HandleFunc("POST /api/drafts/{id}/picks", s.handleSubmitPick)
	mux.HandleFunc("GET /api/drafts/{id}/drivers", s.handleListDrivers)
	mux.HandleFunc("GET /api/notifications", s.handleListNotifications)
	mux.HandleFunc("POST /api/notifications/read-all", s.handleMarkAllRead)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.handleMarkRead)
	mux.HandleFunc("POST /api/notifications/{id}/unread", s.handleMarkUnread)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.handleDeleteNotification)
	mux.HandleFunc("DELETE /api/notifications", s.handleClearNotifications)
	mux.HandleFunc("/api/events", s.handleEvents)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}

func (s *Server) stateResponse() clients.DraftStateResponse {
	session := s.session
	session.TurnState = s.machine.TurnState()
	return clients.DraftStateResponse{
		Session:    session,
		Picks:      s.machine.Picks(),
		ServerTime: s.clock.Now(),
	}
}

func (s *Server) handleDraftState(w http.ResponseWriter, r *http.Request) {
	if !s.checkSession(w, r.PathValue("id")) {
		return
	}
	s.mu.Lock()
	resp := s.stateResponse()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDraftByLeagueRace(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("league") != s.session.LeagueID.String() || r.PathValue("race") != s.session.RaceID.String() {
		writeError(w, http.StatusNotFound, clients.ErrCodeNotFound, "no draft for that league and race", nil)
		return
	}
	s.mu.Lock()
	resp := s.stateResponse()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPicks(w http.ResponseWriter, r *http.Request) {
	if !s.checkSession(w, r.PathValue("id")) {
		return
	}
	s.mu.Lock()
	picks := s.machine.Picks()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, clients.PickPage{Picks: picks})
}

func (s *Server) handleSubmitPick(w http.ResponseWriter, r *http.Request) {
	if !s.checkSession(w, r.PathValue("id")) {
		return
	}
	var req clients.SubmitPickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, clients.ErrCodeStaleState, "malformed pick request", nil)
		return
	}

	s.mu.Lock()
	record, err := s.machine.ApplyPick(req.TeamID, req.DriverID)
	var resp clients.DraftStateResponse
	if err == nil {
		resp = s.stateResponse()
	}
	s.mu.Unlock()

	if err != nil {
		s.writePickError(w, err)
		return
	}
	s.broadcastPick(record, resp.Session.TurnState)
	writeJSON(w, http.StatusOK, resp)
}

// ExpireCurrentTimer forces the timeout transition, as the real backend's
// scheduler would once the pick deadline passes.
func (s *Server) ExpireCurrentTimer() (*models.PickRecord, error) {
	s.mu.Lock()
	record, err := s.machine.ExpireTimer()
	var state models.DraftTurnState
	if err == nil {
		state = s.machine.TurnState()
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.broadcastPick(record, state)
	return record, nil
}

func (s *Server) writePickError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrDraftAlreadyComplete):
		writeError(w, http.StatusConflict, clients.ErrCodeDraftComplete, err.Error(), nil)
	case errors.Is(err, engine.ErrNotYourTurn):
		writeError(w, http.StatusConflict, clients.ErrCodeNotYourTurn, err.Error(), nil)
	default:
		if ve, ok := engine.AsViolationError(err); ok {
			writeError(w, http.StatusUnprocessableEntity, clients.ErrCodeConstraintViolation, "pick violates roster constraints", ve.Violations)
			return
		}
		writeError(w, http.StatusBadRequest, clients.ErrCodeStaleState, err.Error(), nil)
	}
}

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	if !s.checkSession(w, r.PathValue("id")) {
		return
	}
	s.mu.Lock()
	drivers := s.machine.AvailableDrivers()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, drivers)
}

func (s *Server) checkSession(w http.ResponseWriter, id string) bool {
	if id != s.session.ID.String() {
		writeError(w, http.StatusNotFound, clients.ErrCodeNotFound, "unknown draft session", nil)
		return false
	}
	return true
}

// PushNotification stores a notification and delivers it on the realtime
// channel.
func (s *Server) PushNotification(n models.Notification) {
	s.mu.Lock()
	s.notifications = append([]models.Notification{n}, s.notifications...)
	s.mu.Unlock()

	data, _ := json.Marshal(n)
	s.broadcast(&events.Event{
		ID:        uuid.New().String(),
		Type:      events.EventTypeNotification,
		Timestamp: s.clock.Now(),
		Data:      data,
	})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unread := 0
	for _, n := range s.notifications {
		if !n.Read {
			unread++
		}
	}
	writeJSON(w, http.StatusOK, clients.NotificationPage{
		Notifications: s.notifications,
		UnreadCount:   unread,
	})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	s.setRead(w, r.PathValue("id"), true)
}

func (s *Server) handleMarkUnread(w http.ResponseWriter, r *http.Request) {
	s.setRead(w, r.PathValue("id"), false)
}

func (s *Server) setRead(w http.ResponseWriter, id string, read bool) {
	nid, err := uuid.Parse(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, clients.ErrCodeNotFound, "invalid notification id", nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == nid {
			s.notifications[i].Read = read
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}
	}
	writeError(w, http.StatusNotFound, clients.ErrCodeNotFound, "unknown notification", nil)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	nid, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, clients.ErrCodeNotFound, "invalid notification id", nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == nid {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}
	}
	writeError(w, http.StatusNotFound, clients.ErrCodeNotFound, "unknown notification", nil)
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.notifications = nil
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleEvents upgrades the realtime channel and streams events until the
// client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	send := make(chan []byte, 64)
	s.connMu.Lock()
	s.conns[conn] = send
	s.connMu.Unlock()

	go func() {
		for msg := range send {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.connMu.Lock()
	delete(s.conns, conn)
	close(send)
	s.connMu.Unlock()
	conn.Close()
}

// SendRaw pushes a raw frame to every connected channel client. Tests use
// it to exercise malformed-message handling.
func (s *Server) SendRaw(data []byte) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for _, send := range s.conns {
		select {
		case send <- data:
		default:
		}
	}
}

func (s *Server) broadcast(ev *events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("marshal event for broadcast")
		return
	}
	s.SendRaw(data)
}

func (s *Server) broadcastPick(record *models.PickRecord, state models.DraftTurnState) {
	payload, _ := json.Marshal(events.PickMadePayload{
		PickID:      record.ID.String(),
		TeamID:      record.TeamID.String(),
		DriverID:    record.DriverID.String(),
		Round:       record.Round,
		OverallPick: record.PickNumber,
		IsAutoPick:  record.IsAutoPick,
		MadeAt:      record.CreatedAt,
	})
	s.broadcast(&events.Event{
		ID:        uuid.New().String(),
		SessionID: s.session.ID.String(),
		Type:      events.EventTypePickMade,
		Timestamp: s.clock.Now(),
		Data:      payload,
	})

	if state.IsComplete {
		done, _ := json.Marshal(events.DraftCompletedPayload{
			SessionID:   s.session.ID.String(),
			CompletedAt: s.clock.Now(),
			TotalPicks:  state.TotalPicksMade,
		})
		s.broadcast(&events.Event{
			ID:        uuid.New().String(),
			SessionID: s.session.ID.String(),
			Type:      events.EventTypeDraftCompleted,
			Timestamp: s.clock.Now(),
			Data:      done,
		})
		return
	}

	started, _ := json.Marshal(events.PickStartedPayload{
		TeamID:         state.CurrentTeamID.String(),
		Round:          state.CurrentRound,
		Position:       state.CurrentPosition,
		OverallPick:    state.TotalPicksMade + 1,
		StartedAt:      s.clock.Now(),
		TimeoutAt:      deref(state.TimerDeadline),
		TimePerPickSec: s.session.Settings.TimePerPickSec,
	})
	s.broadcast(&events.Event{
		ID:        uuid.New().String(),
		SessionID: s.session.ID.String(),
		Type:      events.EventTypePickStarted,
		Timestamp: s.clock.Now(),
		Data:      started,
	})
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code clients.ErrorCode, message string, violations interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if violations != nil {
		resp["violations"] = violations
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("encode error response")
	}
}
