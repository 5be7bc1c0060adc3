// Package notification fans out player updates to stream subscribers.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/slokabox/internal/api/playerv1"
)

// DefaultSendTimeout bounds a single subscriber send.
const DefaultSendTimeout = 500 * time.Millisecond

// Stream represents an update stream for a subscriber.
type Stream interface {
	Send(*playerv1.PlayerUpdate) error
}

// subscription represents a subscriber's subscription to one player.
type subscription struct {
	id       string
	playerID string
	stream   Stream
}

// Manager manages update subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
	sendTimeout   time.Duration
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
		sendTimeout:   DefaultSendTimeout,
	}
}

// SetSendTimeout changes the per-subscriber send timeout.
func (m *Manager) SetSendTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendTimeout = d
}

// Subscribe registers stream for updates of playerID and returns the subscription ID.
func (m *Manager) Subscribe(playerID string, stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:       id,
		playerID: playerID,
		stream:   stream,
	}
	return id
}

// SubscribeWithSnapshot registers stream and then sends it the update built
// by snapshot, stamped with a fresh sequence number. Broadcasts that arrive
// before the snapshot is sent are held back and delivered after it, except
// those the snapshot already covers.
func (m *Manager) SubscribeWithSnapshot(playerID string, stream Stream, snapshot func() *playerv1.PlayerUpdate) (string, error) {
	g := &gatedStream{Stream: stream}
	id := m.Subscribe(playerID, g)

	seq := m.NextSequenceNo()
	initial := snapshot()
	initial.SequenceNo = seq

	if err := g.release(initial); err != nil {
		m.Unsubscribe(id)
		return "", errors.Wrap(err, "failed to send initial state")
	}
	return id, nil
}

// NextSequenceNo returns the next sequence number and increments the counter.
func (m *Manager) NextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// UnsubscribePlayer removes every subscription of playerID.
func (m *Manager) UnsubscribePlayer(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sub := range m.subscriptions {
		if sub.playerID == playerID {
			delete(m.subscriptions, id)
		}
	}
}

// Broadcast stamps update with a sequence number and sends it to every
// subscriber of update.PlayerID. Each send runs in its own goroutine
// bounded by the send timeout.
func (m *Manager) Broadcast(update *playerv1.PlayerUpdate) {
	update.SequenceNo = m.NextSequenceNo()

	m.mu.RLock()
	timeout := m.sendTimeout
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		if sub.playerID == update.PlayerID {
			subs = append(subs, sub)
		}
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(update)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Msgf("notification: send failed: subscription=%s error=%v", s.id, err)
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("notification: send timed out: subscription=%s", s.id)
			}
		}(sub)
	}

	wg.Wait()
}

// SubscriberCount returns the number of subscribers of playerID.
func (m *Manager) SubscriberCount(playerID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, sub := range m.subscriptions {
		if sub.playerID == playerID {
			n++
		}
	}
	return n
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}

// gatedStream queues updates until release has sent the initial snapshot.
type gatedStream struct {
	Stream

	mu      sync.Mutex
	open    bool
	pending []*playerv1.PlayerUpdate
}

func (g *gatedStream) Send(u *playerv1.PlayerUpdate) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open {
		g.pending = append(g.pending, u)
		return nil
	}
	return g.Stream.Send(u)
}

func (g *gatedStream) release(initial *playerv1.PlayerUpdate) error {
	if err := g.Stream.Send(initial); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, u := range g.pending {
		if coveredBy(initial, u) {
			continue
		}
		if err := g.Stream.Send(u); err != nil {
			return err
		}
	}
	g.pending = nil
	g.open = true
	return nil
}

// coveredBy reports whether the snapshot initial already reflects u. The
// snapshot carries only the active load command, so other commands are
// covered only when they belong to an older generation.
func coveredBy(initial, u *playerv1.PlayerUpdate) bool {
	if u.Kind == playerv1.UpdateKindCommand && u.Command != nil {
		if initial.Command == nil {
			return false
		}
		if u.Command.Generation < initial.Command.Generation {
			return true
		}
		return u.Command.Generation == initial.Command.Generation && u.Command.Op == playerv1.CommandLoad
	}
	return u.SequenceNo <= initial.SequenceNo
}
