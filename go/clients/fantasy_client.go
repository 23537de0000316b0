package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/famgala/FantasyF1-BE-sub002/go/internal/draft/rules"
	"github.com/famgala/FantasyF1-BE-sub002/go/internal/models"
)

// ErrorCode identifies a structured backend rejection.
type ErrorCode string

const (
	ErrCodeNotYourTurn         ErrorCode = "not_your_turn"
	ErrCodeConstraintViolation ErrorCode = "constraint_violation"
	ErrCodeDraftComplete       ErrorCode = "draft_already_complete"
	ErrCodeStaleState          ErrorCode = "stale_state"
	ErrCodeNotFound            ErrorCode = "not_found"
)

// APIError is a structured error response from the fantasy backend.
// Constraint rejections carry the full violated-rule list.
type APIError struct {
	StatusCode int               `json:"-"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Violations []rules.Violation `json:"violations,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Violations) > 0 {
		return fmt.Sprintf("%s: %s (%d violations)", e.Code, e.Message, len(e.Violations))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsAPIError unwraps err into an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// DraftStateResponse is the authoritative draft snapshot: the session
// (order, settings, turn state) plus recent pick history, along with the
// server's clock for countdown sync.
type DraftStateResponse struct {
	Session    models.DraftSession `json:"session"`
	Picks      []models.PickRecord `json:"picks"`
	ServerTime time.Time           `json:"server_time"`
}

// PickPage is one page of pick history.
type PickPage struct {
	Picks      []models.PickRecord `json:"picks"`
	NextCursor string              `json:"next_cursor,omitempty"`
	HasMore    bool                `json:"has_more"`
}

// NotificationPage is one page of the persistent notification feed.
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	NextCursor    string                `json:"next_cursor,omitempty"`
	HasMore       bool                  `json:"has_more"`
	UnreadCount   int                   `json:"unread_count"`
}

// SubmitPickRequest is the pick command body.
type SubmitPickRequest struct {
	TeamID   uuid.UUID `json:"team_id"`
	DriverID uuid.UUID `json:"driver_id"`
}

// FantasyClient talks to the fantasy F1 backend of record.
type FantasyClient struct {
	*BaseClient
}

// NewFantasyClient creates a client for the given base URL, authenticated
// with the session token.
func NewFantasyClient(baseURL, sessionToken string) *FantasyClient {
	base := NewBaseClient(baseURL)
	if sessionToken != "" {
		base.SetHeader("Authorization", "Bearer "+sessionToken)
	}
	return &FantasyClient{BaseClient: base}
}

// GetDraftSession resolves the draft session for a (league, race) pair.
func (c *FantasyClient) GetDraftSession(ctx context.Context, leagueID, raceID uuid.UUID) (*DraftStateResponse, error) {
	endpoint := fmt.Sprintf("/api/leagues/%s/races/%s/draft", leagueID, raceID)
	return c.getDraftState(ctx, endpoint)
}

// GetDraftState fetches the current authoritative turn state and recent
// picks for a session.
func (c *FantasyClient) GetDraftState(ctx context.Context, sessionID uuid.UUID) (*DraftStateResponse, error) {
	return c.getDraftState(ctx, fmt.Sprintf("/api/drafts/%s/state", sessionID))
}

func (c *FantasyClient) getDraftState(ctx context.Context, endpoint string) (*DraftStateResponse, error) {
	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, decodeError(err)
	}
	var resp DraftStateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode draft state: %w", err)
	}
	return &resp, nil
}

// ListPicks fetches one page of pick history for a session.
func (c *FantasyClient) ListPicks(ctx context.Context, sessionID uuid.UUID, cursor string, limit int) (*PickPage, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	endpoint := fmt.Sprintf("/api/drafts/%s/picks", sessionID)
	if enc := q.Encode(); enc != "" {
		endpoint += "?" + enc
	}
	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, decodeError(err)
	}
	var page PickPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode pick page: %w", err)
	}
	return &page, nil
}

// SubmitPick submits a pick for the acting team. Rejections come back as
// *APIError with the code and, for constraint failures, the violated
// rules.
func (c *FantasyClient) SubmitPick(ctx context.Context, sessionID uuid.UUID, req SubmitPickRequest) (*DraftStateResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode pick request: %w", err)
	}
	body, err := c.Post(ctx, fmt.Sprintf("/api/drafts/%s/picks", sessionID), bytes.NewReader(payload))
	if err != nil {
		return nil, decodeError(err)
	}
	var resp DraftStateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode pick response: %w", err)
	}
	return &resp, nil
}

// ListAvailableDrivers fetches the undrafted driver pool for a session,
// annotated with price, points and constructor.
func (c *FantasyClient) ListAvailableDrivers(ctx context.Context, sessionID uuid.UUID) ([]models.Driver, error) {
	body, err := c.Get(ctx, fmt.Sprintf("/api/drafts/%s/drivers", sessionID))
	if err != nil {
		return nil, decodeError(err)
	}
	var drivers []models.Driver
	if err := json.Unmarshal(body, &drivers); err != nil {
		return nil, fmt.Errorf("decode drivers: %w", err)
	}
	return drivers, nil
}

// ListNotifications fetches one page of the persistent notification feed.
func (c *FantasyClient) ListNotifications(ctx context.Context, cursor string, limit int) (*NotificationPage, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	endpoint := "/api/notifications"
	if enc := q.Encode(); enc != "" {
		endpoint += "?" + enc
	}
	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, decodeError(err)
	}
	var page NotificationPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode notification page: %w", err)
	}
	return &page, nil
}

// MarkNotificationRead marks a notification read on the server.
func (c *FantasyClient) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	_, err := c.Post(ctx, fmt.Sprintf("/api/notifications/%s/read", id), nil)
	return decodeError(err)
}

// MarkNotificationUnread marks a notification unread on the server.
func (c *FantasyClient) MarkNotificationUnread(ctx context.Context, id uuid.UUID) error {
	_, err := c.Post(ctx, fmt.Sprintf("/api/notifications/%s/unread", id), nil)
	return decodeError(err)
}

// MarkAllNotificationsRead marks the whole feed read on the server.
func (c *FantasyClient) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := c.Post(ctx, "/api/notifications/read-all", nil)
	return decodeError(err)
}

// DeleteNotification deletes a notification on the server.
func (c *FantasyClient) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	_, err := c.Delete(ctx, fmt.Sprintf("/api/notifications/%s", id))
	return decodeError(err)
}

// ClearNotifications deletes the whole feed on the server.
func (c *FantasyClient) ClearNotifications(ctx context.Context) error {
	_, err := c.Delete(ctx, "/api/notifications")
	return decodeError(err)
}

// decodeError upgrades a StatusError carrying a structured backend error
// body into an *APIError; anything else passes through unchanged.
func decodeError(err error) error {
	if err == nil {
		return nil
	}
	var se *StatusError
	if !errors.As(err, &se) {
		return err
	}
	var ae APIError
	if jsonErr := json.Unmarshal(se.Body, &ae); jsonErr != nil || ae.Code == "" {
		return err
	}
	ae.StatusCode = se.StatusCode
	return &ae
}
