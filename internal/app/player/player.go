package player

import (
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/slokabox/internal/api/playerv1"
	"github.com/osa030/slokabox/internal/app/notification"
	"github.com/osa030/slokabox/internal/app/playback"
	"github.com/osa030/slokabox/internal/domain/listener"
	"github.com/osa030/slokabox/internal/domain/sloka"
)

// Player is one open book view: a controller playing a collection on a
// client-side engine, with its updates fanned out to subscribers.
type Player struct {
	id         string
	verses     []sloka.VerseRef
	controller *playback.Controller
	notify     *notification.Manager
	commands   chan playerv1.EngineCommand

	mu         sync.Mutex
	session    *listener.Session
	engines    map[uint64]*remoteEngine
	activeLoad *playerv1.EngineCommand

	done      chan struct{}
	closeOnce sync.Once
}

func newPlayer(session *listener.Session, verses []sloka.VerseRef, cfg playerSettings, notify *notification.Manager) *Player {
	p := &Player{
		id:       session.ID,
		verses:   verses,
		notify:   notify,
		commands: make(chan playerv1.EngineCommand, cfg.commandBuffer),
		session:  session,
		engines:  make(map[uint64]*remoteEngine),
		done:     make(chan struct{}),
	}
	p.controller = playback.NewController(playback.EngineFactoryFunc(p.createEngine), playback.Config{
		TransitionDelay: cfg.transitionDelay,
		EventBuffer:     cfg.eventBuffer,
	})

	go p.run()
	return p
}

// ID returns the player ID.
func (p *Player) ID() string {
	return p.id
}

// Verses returns the playback sequence.
func (p *Player) Verses() []sloka.VerseRef {
	return p.verses
}

// Session returns a copy of the listener session.
func (p *Player) Session() listener.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.session
}

// State returns the current playback state.
func (p *Player) State() playback.PlaybackState {
	return p.controller.State()
}

// Done is closed once the player has shut down.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// InitialUpdate builds the snapshot sent to a new subscriber. It carries
// the active load command so a late client can attach to the current verse.
func (p *Player) InitialUpdate() *playerv1.PlayerUpdate {
	state := p.controller.State()

	p.mu.Lock()
	var cmd *playerv1.EngineCommand
	if p.activeLoad != nil {
		c := *p.activeLoad
		cmd = &c
	}
	p.mu.Unlock()

	return &playerv1.PlayerUpdate{
		PlayerID: p.id,
		Kind:     playerv1.UpdateKindInitialState,
		State:    toPlayerState(state),
		Command:  cmd,
	}
}

func (p *Player) touch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session.Touch(time.Now())
}

func (p *Player) isIdle(now time.Time, timeout time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.IsIdle(now, timeout)
}

// reportEngineEvent routes a client report to the engine instance of gen.
// It reports false when that instance is gone.
func (p *Player) reportEngineEvent(gen uint64, ev playback.EngineEvent, currentTime, duration float64) bool {
	p.mu.Lock()
	p.session.Touch(time.Now())
	e, ok := p.engines[gen]
	p.mu.Unlock()

	if !ok {
		zlog.Debug().Msgf("player: engine report for unknown generation: player=%s generation=%d event=%s",
			p.id, gen, ev.Type)
		return false
	}
	return e.emit(ev, currentTime, duration)
}

func (p *Player) close() {
	p.closeOnce.Do(func() {
		p.controller.Close()
	})
	<-p.done
}

// createEngine is the controller's engine factory.
func (p *Player) createEngine(opts playback.EngineOptions) (playback.Engine, error) {
	e := newRemoteEngine(opts.Generation, p.queueCommand, p.forgetEngine)

	p.mu.Lock()
	p.engines[opts.Generation] = e
	p.mu.Unlock()

	return e, nil
}

func (p *Player) forgetEngine(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.engines, gen)
}

// queueCommand records the active load and queues cmd for broadcast.
// Called with the controller lock held, so it never blocks.
func (p *Player) queueCommand(cmd playerv1.EngineCommand) {
	p.mu.Lock()
	switch cmd.Op {
	case playerv1.CommandLoad:
		c := cmd
		p.activeLoad = &c
	case playerv1.CommandDestroy:
		if p.activeLoad != nil && p.activeLoad.Generation == cmd.Generation {
			p.activeLoad = nil
		}
	}
	p.mu.Unlock()

	select {
	case p.commands <- cmd:
	default:
		zlog.Warn().Msgf("player: engine command dropped, queue full: player=%s op=%s generation=%d",
			p.id, cmd.Op, cmd.Generation)
	}
}

// run broadcasts controller events and engine commands until the
// controller is closed.
func (p *Player) run() {
	defer close(p.done)

	events := p.controller.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.flushCommands()
				p.notify.Broadcast(&playerv1.PlayerUpdate{PlayerID: p.id, Kind: playerv1.UpdateKindClosed})
				zlog.Debug().Msgf("player: loop stopped: player=%s", p.id)
				return
			}
			p.handleEvent(ev)
		case cmd := <-p.commands:
			p.broadcastCommand(cmd)
		}
	}
}

func (p *Player) flushCommands() {
	for {
		select {
		case cmd := <-p.commands:
			p.broadcastCommand(cmd)
		default:
			return
		}
	}
}

func (p *Player) broadcastCommand(cmd playerv1.EngineCommand) {
	p.notify.Broadcast(&playerv1.PlayerUpdate{
		PlayerID: p.id,
		Kind:     playerv1.UpdateKindCommand,
		Command:  &cmd,
	})
}

func (p *Player) handleEvent(ev playback.Event) {
	update := &playerv1.PlayerUpdate{
		PlayerID: p.id,
		State:    toPlayerState(ev.State),
	}

	switch ev.Type {
	case playback.EventStateChanged:
		update.Kind = playerv1.UpdateKindState

	case playback.EventVerseChanged:
		// Advancing after a natural finish is reported while transitioning.
		if ev.State.Transitioning {
			p.recordVerseCompleted(false)
		}
		update.Kind = playerv1.UpdateKindVerse
		update.Index = ev.Index

	case playback.EventPlayStateChanged:
		update.Kind = playerv1.UpdateKindPlayState

	case playback.EventSequenceComplete:
		p.recordVerseCompleted(true)
		update.Kind = playerv1.UpdateKindComplete

	case playback.EventLoadFailed:
		update.Kind = playerv1.UpdateKindError
		if ev.Err != nil {
			update.Error = ev.Err.Error()
		}

	default:
		return
	}

	p.notify.Broadcast(update)
}

func (p *Player) recordVerseCompleted(sequenceDone bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.session.RecordVerseCompleted()
	if sequenceDone {
		p.session.MarkCompleted(time.Now())
		zlog.Info().Msgf("player: sequence completed: player=%s collection=%d verses_completed=%d",
			p.id, p.session.CollectionID, p.session.VersesCompleted)
	}
}
