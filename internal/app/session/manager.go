// Package session connects the player's event loop with remote clients.
//
// The player state is only ever written by the display's event loop. Remote
// commands are posted into that loop through a Sender, and remote reads are
// served from the snapshot the loop last published.
package session

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/vinylbox/internal/app/notification"
	"github.com/osa030/vinylbox/internal/app/playback"
	"github.com/osa030/vinylbox/internal/app/session/state"
)

var (
	ErrNotAttached  = errors.New("player is not attached")
	ErrNotReady     = errors.New("catalog is not ready")
	ErrSessionEnded = errors.New("session has ended")
)

// outboxSize bounds notifications waiting for delivery.
const outboxSize = 64

// Sender posts a command into the player's event loop.
type Sender func(cmd playback.Command)

// Status is the session status served to remote clients.
type Status struct {
	Info        state.Info
	Snapshot    playback.Snapshot
	Subscribers int
}

// Manager manages the player session.
type Manager struct {
	mu sync.RWMutex

	send      Sender
	snapshot  playback.Snapshot
	published bool

	stateMgr     *state.Manager
	notification *notification.Manager
	outbox       chan *structpb.Struct

	done      chan struct{}
	closeOnce sync.Once
}

// NewManager creates a new session manager.
func NewManager() *Manager {
	return &Manager{
		stateMgr:     state.New(uuid.New().String()),
		notification: notification.NewManager(),
		outbox:       make(chan *structpb.Struct, outboxSize),
		done:         make(chan struct{}),
	}
}

// State returns the session state manager.
func (m *Manager) State() *state.Manager {
	return m.stateMgr
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Attach connects the player's event loop.
func (m *Manager) Attach(send Sender) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.send = send
}

// Dispatch posts a command to the player. It does not wait for the command
// to be applied.
func (m *Manager) Dispatch(cmd playback.Command) error {
	select {
	case <-m.done:
		return ErrSessionEnded
	default:
	}

	if !m.stateMgr.CanPlay() {
		return errors.Wrapf(ErrNotReady, "phase %s", m.stateMgr.GetPhase())
	}

	m.mu.RLock()
	send := m.send
	m.mu.RUnlock()
	if send == nil {
		return ErrNotAttached
	}

	zlog.Debug().Msgf("session: dispatching command: %s", cmd.Kind)
	send(cmd)
	return nil
}

// Publish records the player's latest snapshot and queues a notification when
// the track or the play mode changed.
// It never blocks: it is called from the player's event loop.
func (m *Manager) Publish(s playback.Snapshot) {
	m.mu.Lock()
	prev, had := m.snapshot, m.published
	m.snapshot = s
	m.published = true
	m.mu.Unlock()

	var kind string
	switch {
	case !had || !prev.SameTrack(s):
		kind = notification.TypeTrackChanged
	case !prev.SameMode(s):
		kind = notification.TypeStateChanged
	default:
		return
	}

	n, err := notification.New(kind, SnapshotFields(s))
	if err != nil {
		zlog.Error().Err(err).Msg("session: failed to build notification")
		return
	}

	select {
	case m.outbox <- n:
	default:
		zlog.Warn().Msgf("session: notification dropped: type=%s", kind)
	}
}

// Snapshot returns the last published snapshot.
func (m *Manager) Snapshot() (playback.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot, m.published
}

// GetStatus returns the session status.
func (m *Manager) GetStatus() Status {
	snap, _ := m.Snapshot()
	return Status{
		Info:        m.stateMgr.Info(),
		Snapshot:    snap,
		Subscribers: m.notification.SubscriberCount(),
	}
}

// Subscribe sends the initial state to stream and registers it for
// subsequent notifications. The caller must Unsubscribe the returned ID.
func (m *Manager) Subscribe(stream notification.Stream) (string, error) {
	n, err := notification.New(notification.TypeInitialState, StatusFields(m.GetStatus()))
	if err != nil {
		return "", err
	}
	m.notification.Stamp(n)
	if err := stream.Send(n); err != nil {
		return "", errors.Wrap(err, "failed to send initial state")
	}
	return m.notification.Subscribe(stream), nil
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(id string) {
	m.notification.Unsubscribe(id)
}

// SubscriptionGone returns a channel closed when the subscription ends,
// including when a subscriber that stopped reading is dropped.
func (m *Manager) SubscriptionGone(id string) <-chan struct{} {
	return m.notification.Gone(id)
}

// Run delivers queued notifications until ctx is cancelled or the session stops.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case n := <-m.outbox:
			m.notification.Broadcast(n)
		}
	}
}

// Done returns a channel closed when the session stops.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Stop ends the session. Subscriber streams return and further commands fail.
func (m *Manager) Stop() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.notification.Close()
		zlog.Info().Msg("session: stopped")
	})
}
