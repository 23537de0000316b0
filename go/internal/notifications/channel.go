package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/famgala/FantasyF1-BE-sub002/go/internal/events"
)

// ChannelState is the lifecycle state of the realtime channel.
type ChannelState string

const (
	ChannelDisconnected ChannelState = "DISCONNECTED"
	ChannelConnecting   ChannelState = "CONNECTING"
	ChannelConnected    ChannelState = "CONNECTED"
)

// ChannelError wraps a transport or parse failure on the notification
// channel. Parse failures are surfaced through the error handler without
// closing the channel.
type ChannelError struct {
	Op  string
	Err error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("notification channel %s: %v", e.Op, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// ChannelConfig holds configuration for the realtime channel connection.
type ChannelConfig struct {
	URL            string // websocket endpoint, e.g. wss://host/api/events
	SessionToken   string
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
}

// DefaultChannelConfig returns the default channel configuration for the
// given endpoint and token.
func DefaultChannelConfig(url, token string) ChannelConfig {
	return ChannelConfig{
		URL:            url,
		SessionToken:   token,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 64 * 1024,
	}
}

// ChannelManager owns the single persistent realtime subscription for an
// authenticated session. It does not reconnect on its own: connection
// lifetime follows authentication-state transitions (connect on sign-in,
// disconnect on sign-out), so a transport error simply leaves the channel
// Disconnected until the caller reconnects.
type ChannelManager struct {
	config ChannelConfig
	dialer *websocket.Dialer

	// OnEvent receives every successfully decoded event.
	OnEvent func(*events.Event)
	// OnError receives parse and transport failures. Parse failures do
	// not close the channel.
	OnError func(error)

	mu    sync.Mutex
	state ChannelState
	conn  *websocket.Conn
	done  chan struct{}
}

// NewChannelManager creates a manager in the Disconnected state.
func NewChannelManager(config ChannelConfig) *ChannelManager {
	return &ChannelManager{
		config: config,
		dialer: websocket.DefaultDialer,
		state:  ChannelDisconnected,
	}
}

// State returns the current channel state.
func (cm *ChannelManager) State() ChannelState {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.state
}

// Connect opens the realtime channel. At most one channel is open per
// session: if a channel is already active it is closed before the new one
// is dialed.
func (cm *ChannelManager) Connect(ctx context.Context) error {
	cm.Close()

	cm.mu.Lock()
	cm.state = ChannelConnecting
	cm.mu.Unlock()

	header := http.Header{}
	if cm.config.SessionToken != "" {
		header.Set("Authorization", "Bearer "+cm.config.SessionToken)
	}

	conn, _, err := cm.dialer.DialContext(ctx, cm.config.URL, header)
	if err != nil {
		cm.mu.Lock()
		cm.state = ChannelDisconnected
		cm.mu.Unlock()
		return &ChannelError{Op: "dial", Err: err}
	}

	done := make(chan struct{})
	cm.mu.Lock()
	cm.conn = conn
	cm.done = done
	cm.state = ChannelConnected
	cm.mu.Unlock()

	go cm.readPump(conn, done)
	go cm.pingPump(conn, done)

	log.Info().Str("url", cm.config.URL).Msg("notification channel connected")
	return nil
}

// Close tears the channel down and waits for the read pump to exit. It is
// a no-op when already disconnected.
func (cm *ChannelManager) Close() {
	cm.mu.Lock()
	conn := cm.conn
	done := cm.done
	cm.conn = nil
	cm.done = nil
	cm.state = ChannelDisconnected
	cm.mu.Unlock()

	if conn == nil {
		return
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(cm.config.WriteTimeout))
	conn.Close()
	if done != nil {
		<-done
	}
	log.Info().Msg("notification channel closed")
}

// readPump reads and decodes events until the connection drops. A decode
// failure is reported and skipped; the message loop keeps running.
func (cm *ChannelManager) readPump(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		close(done)
		cm.markDisconnected(conn)
	}()

	conn.SetReadLimit(cm.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cm.reportError(&ChannelError{Op: "read", Err: err})
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))

		var ev events.Event
		if err := json.Unmarshal(message, &ev); err != nil {
			cm.reportError(&ChannelError{Op: "decode", Err: err})
			continue
		}
		if cm.OnEvent != nil {
			cm.OnEvent(&ev)
		}
	}
}

// pingPump keeps the connection alive until it is closed.
func (cm *ChannelManager) pingPump(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(cm.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(cm.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Msg("ping failed, channel closing")
				return
			}
		}
	}
}

// markDisconnected flips state to Disconnected if conn is still the
// active connection; a newer connection opened by Connect is left alone.
func (cm *ChannelManager) markDisconnected(conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.conn == conn {
		cm.conn = nil
		cm.done = nil
		cm.state = ChannelDisconnected
	}
}

func (cm *ChannelManager) reportError(err error) {
	log.Warn().Err(err).Msg("notification channel error")
	if cm.OnError != nil {
		cm.OnError(err)
	}
}
