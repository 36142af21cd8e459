// Package notification provides the notification manager for broadcasting player events.
package notification

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/structpb"
)

// Notification types
const (
	TypeInitialState = "initial_state"
	TypeTrackChanged = "track_changed"
	TypeStateChanged = "state_changed"
)

// Field names shared by every notification.
const (
	FieldType       = "type"
	FieldSequenceNo = "sequence_no"
)

const (
	// sendTimeout bounds how long Broadcast waits on a single subscriber.
	sendTimeout = 500 * time.Millisecond
	// maxMisses is the number of consecutive missed notifications after
	// which a subscriber is dropped.
	maxMisses = 3
)

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*structpb.Struct) error
}

// New builds a notification of the given type carrying fields.
func New(kind string, fields map[string]any) (*structpb.Struct, error) {
	n, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build %s notification", kind)
	}
	n.Fields[FieldType] = structpb.NewStringValue(kind)
	return n, nil
}

// Type returns the notification type.
func Type(n *structpb.Struct) string {
	return n.GetFields()[FieldType].GetStringValue()
}

// SequenceNo returns the notification sequence number.
func SequenceNo(n *structpb.Struct) uint64 {
	return uint64(n.GetFields()[FieldSequenceNo].GetNumberValue())
}

// subscription is a registered stream. Sends to one stream never overlap:
// while a send is in flight, later notifications count as misses.
type subscription struct {
	id      string
	stream  Stream
	gone    chan struct{}
	sending atomic.Bool
	misses  int // guarded by Manager.mu
}

// Manager fans notifications out to subscribers with sequence numbers.
type Manager struct {
	mu            sync.Mutex
	subscriptions map[string]*subscription
	sequenceNo    atomic.Uint64
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe registers stream and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
		gone:   make(chan struct{}),
	}
	zlog.Debug().Msgf("notification: subscribed: id=%s", id)
	return id
}

// Gone returns a channel closed once the subscription is removed, either by
// Unsubscribe, Close, or because the subscriber stopped keeping up.
// Unknown IDs yield a closed channel.
func (m *Manager) Gone(subscriptionID string) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subscriptions[subscriptionID]; ok {
		return sub.gone
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

// NextSequenceNo returns the next sequence number.
func (m *Manager) NextSequenceNo() uint64 {
	return m.sequenceNo.Add(1)
}

// Stamp assigns the next sequence number to n.
func (m *Manager) Stamp(n *structpb.Struct) {
	n.Fields[FieldSequenceNo] = structpb.NewNumberValue(float64(m.NextSequenceNo()))
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeLocked(subscriptionID) {
		zlog.Debug().Msgf("notification: unsubscribed: id=%s", subscriptionID)
	}
}

func (m *Manager) removeLocked(id string) bool {
	sub, ok := m.subscriptions[id]
	if !ok {
		return false
	}
	delete(m.subscriptions, id)
	close(sub.gone)
	return true
}

// Broadcast stamps the notification and sends it to all subscribers in
// parallel, waiting at most sendTimeout. A subscriber whose send fails is
// dropped, and so is one that misses maxMisses notifications in a row.
func (m *Manager) Broadcast(n *structpb.Struct) {
	m.Stamp(n)

	m.mu.Lock()
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	delivered := make([]bool, len(subs))
	failed := make([]bool, len(subs))
	var wg sync.WaitGroup
	for i, sub := range subs {
		if !sub.sending.CompareAndSwap(false, true) {
			zlog.Debug().Msgf("notification: previous send still pending: id=%s", sub.id)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			done := make(chan error, 1)
			go func() {
				defer sub.sending.Store(false)
				done <- sub.stream.Send(n)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Err(err).Msgf("notification: send failed: id=%s", sub.id)
					failed[i] = true
					return
				}
				delivered[i] = true
			case <-time.After(sendTimeout):
				zlog.Debug().Msgf("notification: send timed out: id=%s", sub.id)
			}
		}()
	}
	wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range subs {
		if delivered[i] {
			sub.misses = 0
			continue
		}
		sub.misses++
		if failed[i] || sub.misses >= maxMisses {
			if m.removeLocked(sub.id) {
				zlog.Warn().Msgf("notification: subscriber dropped: id=%s", sub.id)
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.subscriptions {
		m.removeLocked(id)
	}
}
