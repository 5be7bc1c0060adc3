package playback

import (
	"sync"

	"github.com/cockroachdb/errors"
)

type fakeEngine struct {
	mu sync.Mutex

	opts      EngineOptions
	url       string
	playing   bool
	rate      float64
	seeks     []float64
	current   float64
	duration  float64
	destroyed bool

	nextID   int
	handlers map[EngineEventType]map[int]EngineHandler
	all      map[EngineEventType][]EngineHandler
}

func newFakeEngine(opts EngineOptions) *fakeEngine {
	return &fakeEngine{
		opts:     opts,
		rate:     1,
		duration: 10,
		handlers: make(map[EngineEventType]map[int]EngineHandler),
		all:      make(map[EngineEventType][]EngineHandler),
	}
}

func (e *fakeEngine) Load(url string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.url = url
}

func (e *fakeEngine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = true
}

func (e *fakeEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
}

func (e *fakeEngine) SeekTo(fraction float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seeks = append(e.seeks, fraction)
	e.current = fraction * e.duration
}

func (e *fakeEngine) SetPlaybackRate(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rate = rate
}

func (e *fakeEngine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *fakeEngine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *fakeEngine) On(t EngineEventType, h EngineHandler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	if e.handlers[t] == nil {
		e.handlers[t] = make(map[int]EngineHandler)
	}
	e.handlers[t][id] = h
	e.all[t] = append(e.all[t], h)

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.handlers[t], id)
	}
}

func (e *fakeEngine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyed = true
}

// Emit delivers an event to the currently attached handlers.
func (e *fakeEngine) Emit(ev EngineEvent) {
	e.mu.Lock()
	var hs []EngineHandler
	for _, h := range e.handlers[ev.Type] {
		hs = append(hs, h)
	}
	e.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
}

// EmitStale delivers an event to every handler ever attached, simulating
// a callback that races with detachment.
func (e *fakeEngine) EmitStale(ev EngineEvent) {
	e.mu.Lock()
	hs := append([]EngineHandler(nil), e.all[ev.Type]...)
	e.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
}

func (e *fakeEngine) Ready()  { e.Emit(EngineEvent{Type: EngineReady}) }
func (e *fakeEngine) Finish() { e.Emit(EngineEvent{Type: EngineFinish}) }

func (e *fakeEngine) Fail() {
	e.Emit(EngineEvent{Type: EngineError, Err: errors.New("decode failed")})
}

func (e *fakeEngine) Progress(current float64) {
	e.mu.Lock()
	e.current = current
	e.mu.Unlock()
	e.Emit(EngineEvent{Type: EngineAudioProcess})
}

func (e *fakeEngine) isPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *fakeEngine) isDestroyed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}

func (e *fakeEngine) playbackRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rate
}

func (e *fakeEngine) attached() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, hs := range e.handlers {
		n += len(hs)
	}
	return n
}

type fakeFactory struct {
	mu       sync.Mutex
	engines  []*fakeEngine
	failNext bool
}

func (f *fakeFactory) Create(opts EngineOptions) (Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext {
		f.failNext = false
		return nil, errors.New("no audio device")
	}
	e := newFakeEngine(opts)
	f.engines = append(f.engines, e)
	return e, nil
}

func (f *fakeFactory) last() *fakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.engines) == 0 {
		return nil
	}
	return f.engines[len(f.engines)-1]
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}
