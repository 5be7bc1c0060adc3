// Package player manages open book views, each driving a sequential
// playback controller on a client-side audio engine.
package player

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slokabox/internal/app/notification"
	"github.com/osa030/slokabox/internal/app/playback"
	"github.com/osa030/slokabox/internal/domain/listener"
	"github.com/osa030/slokabox/internal/domain/sloka"
	"github.com/osa030/slokabox/internal/infra/config"
)

// Errors
var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInvalidRequest     = errors.New("collection id or slug is required")
	ErrUnknownEngineEvent = errors.New("unknown engine event")
)

// defaultReapInterval is how often idle players are looked for.
const defaultReapInterval = time.Minute

// CollectionResolver looks up the collection a player plays.
type CollectionResolver interface {
	Collection(ctx context.Context, id int64) (*sloka.Collection, error)
	CollectionBySlug(ctx context.Context, slug string) (*sloka.Collection, error)
}

// OpenRequest selects the collection to open, by ID or by title slug.
type OpenRequest struct {
	CollectionID int64
	Slug         string
	DisplayName  string
	StartIndex   int // Verse cued without playing
}

type playerSettings struct {
	transitionDelay time.Duration
	eventBuffer     int
	commandBuffer   int
}

// Manager owns all open players.
type Manager struct {
	settings    playerSettings
	idleTimeout time.Duration
	resolver    CollectionResolver
	notify      *notification.Manager

	mu      sync.RWMutex
	players map[string]*Player

	reapInterval time.Duration
}

// NewManager creates a new player manager.
func NewManager(cfg *config.Config, resolver CollectionResolver) *Manager {
	commandBuffer := cfg.Player.CommandBuffer
	if commandBuffer <= 0 {
		commandBuffer = 64
	}
	return &Manager{
		settings: playerSettings{
			transitionDelay: cfg.Player.TransitionDelay(),
			eventBuffer:     cfg.Player.EventBuffer,
			commandBuffer:   commandBuffer,
		},
		idleTimeout:  cfg.Player.IdleTimeout(),
		resolver:     resolver,
		notify:       notification.NewManager(),
		players:      make(map[string]*Player),
		reapInterval: defaultReapInterval,
	}
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notify
}

// Open resolves the collection, creates a player for it and preloads the
// first verse.
func (m *Manager) Open(ctx context.Context, req OpenRequest) (*Player, error) {
	c, err := m.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	session := listener.NewSession(id, req.DisplayName, c.ID, c.Title)
	verses := c.VerseRefs()

	p := newPlayer(session, verses, m.settings, m.notify)
	p.controller.SetSequence(verses)
	if req.StartIndex > 0 && len(verses) > 0 {
		// Cue the verse: select it, then withdraw the play intent while it loads.
		_ = p.controller.SelectIndex(req.StartIndex)
		_ = p.controller.SetPlaying(false)
	}

	m.mu.Lock()
	m.players[id] = p
	m.mu.Unlock()

	zlog.Info().Msgf("player: opened: player=%s collection=%d title=%s verses=%d display_name=%s",
		id, c.ID, c.Title, len(verses), req.DisplayName)
	return p, nil
}

func (m *Manager) resolve(ctx context.Context, req OpenRequest) (*sloka.Collection, error) {
	var (
		c   *sloka.Collection
		err error
	)
	switch {
	case req.CollectionID > 0:
		c, err = m.resolver.Collection(ctx, req.CollectionID)
	case req.Slug != "":
		c, err = m.resolver.CollectionBySlug(ctx, req.Slug)
	default:
		return nil, ErrInvalidRequest
	}

	if errors.Is(err, sloka.ErrNotFound) {
		return nil, errors.Mark(err, ErrCollectionNotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve collection")
	}
	return c, nil
}

// Get returns the player with the given ID.
func (m *Manager) Get(id string) (*Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.players[id]
	if !ok {
		return nil, errors.Wrapf(ErrPlayerNotFound, "player %s", id)
	}
	return p, nil
}

// List returns the sessions of all open players, oldest first.
func (m *Manager) List() []listener.Session {
	m.mu.RLock()
	players := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	m.mu.RUnlock()

	out := make([]listener.Session, 0, len(players))
	for _, p := range players {
		out = append(out, p.Session())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// Close shuts the player down and drops its subscribers.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	p, ok := m.players[id]
	delete(m.players, id)
	m.mu.Unlock()

	if !ok {
		return errors.Wrapf(ErrPlayerNotFound, "player %s", id)
	}

	p.close()
	m.notify.UnsubscribePlayer(id)
	zlog.Info().Msgf("player: closed: player=%s", id)
	return nil
}

// CloseAll shuts every player down.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.players))
	for id := range m.players {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.Close(id)
	}
	m.notify.Close()
}

// Select jumps to verse index and plays it.
func (m *Manager) Select(id string, index int) (playback.PlaybackState, error) {
	return m.apply(id, func(c *playback.Controller) error {
		return c.SelectIndex(index)
	})
}

// TogglePlay flips play intent.
func (m *Manager) TogglePlay(id string) (playback.PlaybackState, error) {
	return m.apply(id, func(c *playback.Controller) error {
		return c.TogglePlay()
	})
}

// SetPlaying sets play intent.
func (m *Manager) SetPlaying(id string, playing bool) (playback.PlaybackState, error) {
	return m.apply(id, func(c *playback.Controller) error {
		return c.SetPlaying(playing)
	})
}

// ToggleLoop flips single-verse repeat.
func (m *Manager) ToggleLoop(id string) (playback.PlaybackState, error) {
	return m.apply(id, func(c *playback.Controller) error {
		c.ToggleLoop()
		return nil
	})
}

// SetSpeed sets the playback rate.
func (m *Manager) SetSpeed(id string, speed float64) (playback.PlaybackState, error) {
	return m.apply(id, func(c *playback.Controller) error {
		return c.SetSpeed(speed)
	})
}

// CycleSpeed steps to the next supported rate.
func (m *Manager) CycleSpeed(id string) (playback.PlaybackState, error) {
	return m.apply(id, func(c *playback.Controller) error {
		c.CycleSpeed()
		return nil
	})
}

// Seek moves within the current verse.
func (m *Manager) Seek(id string, fraction float64) (playback.PlaybackState, error) {
	return m.apply(id, func(c *playback.Controller) error {
		return c.Seek(fraction)
	})
}

// State returns the player's playback state.
func (m *Manager) State(id string) (playback.PlaybackState, error) {
	p, err := m.Get(id)
	if err != nil {
		return playback.PlaybackState{}, err
	}
	return p.State(), nil
}

func (m *Manager) apply(id string, fn func(*playback.Controller) error) (playback.PlaybackState, error) {
	p, err := m.Get(id)
	if err != nil {
		return playback.PlaybackState{}, err
	}
	p.touch()

	if err := fn(p.controller); err != nil {
		return p.State(), err
	}
	return p.State(), nil
}

// ReportEngineEvent delivers an event from the client's engine. It
// reports false when gen no longer names a live engine instance.
func (m *Manager) ReportEngineEvent(id string, gen uint64, event string, currentTime, duration float64, errMsg string) (bool, error) {
	p, err := m.Get(id)
	if err != nil {
		return false, err
	}

	ev, err := engineEvent(event, errMsg)
	if err != nil {
		return false, errors.Mark(err, ErrUnknownEngineEvent)
	}
	return p.reportEngineEvent(gen, ev, currentTime, duration), nil
}

// Subscribe streams the player's updates to stream until ctx is done or
// the player closes. The first update is the initial state.
func (m *Manager) Subscribe(ctx context.Context, id string, stream notification.Stream) error {
	p, err := m.Get(id)
	if err != nil {
		return err
	}

	subscriptionID, err := m.notify.SubscribeWithSnapshot(id, stream, p.InitialUpdate)
	if err != nil {
		return err
	}
	defer m.notify.Unsubscribe(subscriptionID)
	zlog.Debug().Msgf("player: subscribed: player=%s subscription=%s", id, subscriptionID)

	select {
	case <-ctx.Done():
	case <-p.Done():
	}
	return nil
}

// Start closes players that have been idle with no subscribers for
// longer than the idle timeout. It blocks until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	if m.idleTimeout <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(m.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.reapIdle(now)
		}
	}
}

func (m *Manager) reapIdle(now time.Time) {
	m.mu.RLock()
	var idle []string
	for id, p := range m.players {
		if p.isIdle(now, m.idleTimeout) && m.notify.SubscriberCount(id) == 0 {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range idle {
		zlog.Info().Msgf("player: closing idle player: player=%s timeout=%v", id, m.idleTimeout)
		_ = m.Close(id)
	}
}
