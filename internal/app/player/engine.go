package player

import (
	"sync"

	"github.com/cockroachdb/errors"

	playerv1 "github.com/osa030/slokabox/internal/api/playerv1"
	"github.com/osa030/slokabox/internal/app/playback"
)

// remoteEngine is a playback.Engine whose audio runs on the client.
// Method calls become EngineCommands passed to sink and the client
// reports events back through emit.
type remoteEngine struct {
	gen       uint64
	sink      func(playerv1.EngineCommand)
	onDestroy func(gen uint64)

	mu          sync.Mutex
	handlers    map[playback.EngineEventType]map[int]playback.EngineHandler
	nextID      int
	currentTime float64
	duration    float64
	destroyed   bool
}

func newRemoteEngine(gen uint64, sink func(playerv1.EngineCommand), onDestroy func(uint64)) *remoteEngine {
	return &remoteEngine{
		gen:       gen,
		sink:      sink,
		onDestroy: onDestroy,
		handlers:  make(map[playback.EngineEventType]map[int]playback.EngineHandler),
	}
}

func (e *remoteEngine) Load(url string) {
	e.send(playerv1.EngineCommand{Op: playerv1.CommandLoad, URL: url})
}

func (e *remoteEngine) Play() {
	e.send(playerv1.EngineCommand{Op: playerv1.CommandPlay})
}

func (e *remoteEngine) Pause() {
	e.send(playerv1.EngineCommand{Op: playerv1.CommandPause})
}

func (e *remoteEngine) SeekTo(fraction float64) {
	e.mu.Lock()
	e.currentTime = fraction * e.duration
	e.mu.Unlock()
	e.send(playerv1.EngineCommand{Op: playerv1.CommandSeek, Fraction: fraction})
}

func (e *remoteEngine) SetPlaybackRate(rate float64) {
	e.send(playerv1.EngineCommand{Op: playerv1.CommandRate, Rate: rate})
}

func (e *remoteEngine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentTime
}

func (e *remoteEngine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *remoteEngine) On(t playback.EngineEventType, h playback.EngineHandler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handlers[t] == nil {
		e.handlers[t] = make(map[int]playback.EngineHandler)
	}
	id := e.nextID
	e.nextID++
	e.handlers[t][id] = h

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.handlers[t], id)
	}
}

func (e *remoteEngine) Destroy() {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	e.handlers = make(map[playback.EngineEventType]map[int]playback.EngineHandler)
	e.mu.Unlock()

	e.send(playerv1.EngineCommand{Op: playerv1.CommandDestroy})
	if e.onDestroy != nil {
		e.onDestroy(e.gen)
	}
}

// emit records the client's clock and dispatches ev to the registered
// handlers. It reports false once the engine is destroyed.
func (e *remoteEngine) emit(ev playback.EngineEvent, currentTime, duration float64) bool {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return false
	}
	if currentTime >= 0 {
		e.currentTime = currentTime
	}
	if duration > 0 {
		e.duration = duration
	}
	handlers := make([]playback.EngineHandler, 0, len(e.handlers[ev.Type]))
	for _, h := range e.handlers[ev.Type] {
		handlers = append(handlers, h)
	}
	e.mu.Unlock()

	// Handlers take the controller lock, so they run without ours.
	for _, h := range handlers {
		h(ev)
	}
	return true
}

// send tags cmd with the instance generation. sink must not block; the
// controller calls engine methods with its lock held.
func (e *remoteEngine) send(cmd playerv1.EngineCommand) {
	cmd.Generation = e.gen
	e.sink(cmd)
}

// engineEvent converts a client report into an engine event.
func engineEvent(name, errMsg string) (playback.EngineEvent, error) {
	t, err := playback.ParseEngineEventType(name)
	if err != nil {
		return playback.EngineEvent{}, err
	}
	ev := playback.EngineEvent{Type: t}
	if t == playback.EngineError {
		if errMsg == "" {
			errMsg = "engine error"
		}
		ev.Err = errors.Newf("client engine: %s", errMsg)
	}
	return ev, nil
}
