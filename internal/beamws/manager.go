// Package beamws owns the single WebSocket connection to the beam channel:
// dialing, the authentication handshake, typed message dispatch, and the
// reconnect policy.
package beamws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/khaled-muhammad/moveit-cli/internal/clipboard"
	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Maximum frame size accepted from the peer.
	maxMessageSize = 512 * 1024 // 512KB

	// Reconnect backoff bounds. The policy retries for as long as the
	// manager runs, but never tighter than these.
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// State is the connection lifecycle phase.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "disconnected"
	}
}

// Event notifies the presentation layer that shared state changed.
type Event struct {
	Kind EventKind
}

// EventKind enumerates the notifications the manager emits.
type EventKind int

const (
	// EventState: the connection state changed; read Manager.State().
	EventState EventKind = iota
	// EventDevices: the connected-device list was replaced.
	EventDevices
	// EventClipboard: the item list changed (push, delete, or reload).
	EventClipboard
)

// SessionSource yields the session the manager should connect with.
// A nil session keeps the connection gate closed.
type SessionSource interface {
	Current() *domain.Session
}

// Manager drives the beam WebSocket. Construct with NewManager, wire it as
// the clipboard store's sender, then Start it once a session is ready.
type Manager struct {
	wsBase   string // e.g. "wss://moveit.hackclub.app"
	sessions SessionSource
	store    *clipboard.Store
	logger   *zap.Logger
	dialer   *websocket.Dialer

	events chan Event

	// writeMu serializes frame writes; gorilla connections allow only
	// one concurrent writer.
	writeMu sync.Mutex

	mu      sync.Mutex
	conn    *websocket.Conn
	state   State
	devices []domain.Device
	beamID  string // beam the current connection is keyed to
	cancel  context.CancelFunc
	running bool
}

// NewManager creates a manager for the given WebSocket origin.
func NewManager(wsBase string, sessions SessionSource, store *clipboard.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		wsBase:   wsBase,
		sessions: sessions,
		store:    store,
		logger:   logger.With(zap.String("component", "beamws")),
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		events:   make(chan Event, 64),
	}
}

// Events is the notification stream for the presentation layer. Events are
// dropped rather than blocking the read loop when the consumer lags.
func (m *Manager) Events() <-chan Event { return m.events }

// State returns the current connection phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Devices returns a snapshot of the connected-device list.
func (m *Manager) Devices() []domain.Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Device, len(m.devices))
	copy(out, m.devices)
	return out
}

// Start opens the connect gate and runs the connection loop until ctx is
// cancelled or Stop is called. Reconnection is automatic with bounded
// exponential backoff; an intentional Stop does not reconnect.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.running = true
	m.mu.Unlock()

	go m.run(ctx)
}

// Stop closes the connection intentionally and halts reconnection.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	conn := m.conn
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close() //nolint:errcheck // already tearing down
	}
}

// Kick drops the current connection so the loop redials immediately. Used
// after a beam switch: the next dial picks up the new session.
func (m *Manager) Kick() {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn != nil {
		conn.Close() //nolint:errcheck // read loop notices and redials
	}
}

func (m *Manager) run(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff
	bo.MaxInterval = maxBackoff
	bo.MaxElapsedTime = 0 // retry for as long as we run

	for {
		if ctx.Err() != nil {
			m.setState(StateDisconnected)
			return
		}

		sess := m.sessions.Current()
		if !sess.Valid() {
			// No session: gate closed, poll until one appears.
			if !sleepCtx(ctx, initialBackoff) {
				m.setState(StateDisconnected)
				return
			}
			continue
		}

		authed, err := m.connectOnce(ctx, sess)
		if ctx.Err() != nil {
			m.setState(StateDisconnected)
			return
		}
		if err != nil {
			m.logger.Warn("connection lost", zap.Error(err))
		}
		m.setState(StateDisconnected)

		if authed {
			bo.Reset()
		}
		if !sleepCtx(ctx, bo.NextBackOff()) {
			return
		}
	}
}

// connectOnce runs one connection lifetime: dial, handshake, read loop.
// It returns whether authentication succeeded at least once.
func (m *Manager) connectOnce(ctx context.Context, sess *domain.Session) (bool, error) {
	url := fmt.Sprintf("%s/ws/beam/%s/", m.wsBase, sess.BeamID)
	m.setState(StateConnecting)

	conn, _, err := m.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	m.mu.Lock()
	m.conn = conn
	m.beamID = sess.BeamID
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.conn = nil
		m.mu.Unlock()
		conn.Close() //nolint:errcheck // best-effort close
	}()

	m.setState(StateConnected)
	m.logger.Info("connected", zap.String("beam_id", sess.BeamID))

	// Application-level handshake: first frame out is always auth.
	frame, err := authFrame(sess.BeamKey)
	if err != nil {
		return false, fmt.Errorf("encode auth: %w", err)
	}
	if err := m.writeFrame(conn, frame); err != nil {
		return false, fmt.Errorf("send auth: %w", err)
	}
	m.setState(StateAuthenticating)

	authed := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return authed, fmt.Errorf("read: %w", err)
			}
			return authed, nil
		}

		msg, err := decodeMessage(data)
		if err != nil {
			m.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		if m.dispatch(ctx, sess, msg) {
			authed = true
		}
	}
}

// dispatch applies one inbound message. Returns true when the message
// authenticated the connection.
func (m *Manager) dispatch(ctx context.Context, sess *domain.Session, msg Message) bool {
	switch msg := msg.(type) {
	case AuthSuccess:
		m.setState(StateAuthenticated)
		m.logger.Info("authenticated", zap.String("info", msg.Info))
		// Exactly one reload per successful authentication event.
		m.reload(ctx, sess.BeamID)
		return true

	case AuthedUsers:
		m.mu.Lock()
		m.devices = msg.Users
		m.mu.Unlock()
		m.emit(Event{Kind: EventDevices})

	case ShareClipboard:
		m.store.ApplyLive(msg.Content, msg.Kind)
		m.emit(Event{Kind: EventClipboard})
		// Non-text kinds are persisted server-side on arrival; pull the
		// authoritative copy.
		if msg.Kind != domain.KindText {
			m.reload(ctx, sess.BeamID)
		}

	case DeleteNote:
		m.store.RemoveByContent(msg.Content)
		m.emit(Event{Kind: EventClipboard})
		m.reload(ctx, sess.BeamID)

	case BeamNotesLoaded:
		m.logger.Debug("beam notes saved", zap.ByteString("notes", msg.Raw))

	case Unknown:
		m.logger.Debug("ignoring unknown message", zap.String("type", msg.Type))
	}
	return false
}

// reload pulls persisted notes off the read loop so a slow REST call never
// stalls message dispatch.
func (m *Manager) reload(ctx context.Context, beamID string) {
	go func() {
		if err := m.store.Reload(ctx, beamID); err != nil {
			m.logger.Warn("notes reload failed", zap.Error(err))
			return
		}
		m.emit(Event{Kind: EventClipboard})
	}()
}

// ShareClipboard pushes content into the beam. Implements clipboard.Sender.
func (m *Manager) ShareClipboard(content string, kind domain.ContentKind) error {
	frame, err := shareFrame(content, kind)
	if err != nil {
		return fmt.Errorf("beamws.ShareClipboard: %w", err)
	}
	return m.send(frame, "beamws.ShareClipboard")
}

// DeleteNote pushes a deletion into the beam. Implements clipboard.Sender.
func (m *Manager) DeleteNote(content string) error {
	frame, err := deleteFrame(content)
	if err != nil {
		return fmt.Errorf("beamws.DeleteNote: %w", err)
	}
	return m.send(frame, "beamws.DeleteNote")
}

// SaveBeam asks the server to persist the beam's current items as notes.
func (m *Manager) SaveBeam(title string) error {
	frame, err := saveBeamFrame(title)
	if err != nil {
		return fmt.Errorf("beamws.SaveBeam: %w", err)
	}
	return m.send(frame, "beamws.SaveBeam")
}

func (m *Manager) send(frame []byte, op string) error {
	m.mu.Lock()
	conn := m.conn
	state := m.state
	m.mu.Unlock()

	if conn == nil || state != StateAuthenticated {
		return fmt.Errorf("%s: not connected", op)
	}
	if err := m.writeFrame(conn, frame); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (m *Manager) writeFrame(conn *websocket.Conn, frame []byte) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // deadline set is advisory
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	changed := m.state != s
	m.state = s
	if s == StateDisconnected {
		m.devices = nil
	}
	m.mu.Unlock()
	if changed {
		m.emit(Event{Kind: EventState})
	}
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		m.logger.Debug("event dropped, consumer lagging")
	}
}

// sleepCtx waits for d or until ctx ends; returns false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
