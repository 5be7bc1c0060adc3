package playback

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/slokabox/internal/domain/sloka"
)

// EngineEventType names an event emitted by an audio engine.
type EngineEventType int

const (
	EngineReady        EngineEventType = iota // Audio decoded, duration known
	EngineError                               // Fetch or decode failed
	EngineFinish                              // Reached the end naturally
	EngineAudioProcess                        // Periodic progress tick
	EngineInteraction                         // User seeked on the rendering
)

var engineEventNames = map[EngineEventType]string{
	EngineReady:        "ready",
	EngineError:        "error",
	EngineFinish:       "finish",
	EngineAudioProcess: "audioprocess",
	EngineInteraction:  "interaction",
}

// String returns the wire name of the event.
func (t EngineEventType) String() string {
	if name, ok := engineEventNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseEngineEventType parses a wire name.
func ParseEngineEventType(name string) (EngineEventType, error) {
	for t, n := range engineEventNames {
		if n == name {
			return t, nil
		}
	}
	return 0, errors.Newf("unknown engine event: %q", name)
}

// EngineEvent is delivered to handlers registered with Engine.On.
type EngineEvent struct {
	Type EngineEventType
	Err  error // EngineError only
}

// EngineHandler handles an engine event.
type EngineHandler func(EngineEvent)

// Engine plays a single audio item.
//
// Handlers must never be invoked synchronously from inside an Engine
// method; the controller calls engine methods while holding its lock.
type Engine interface {
	Load(url string)
	Play()
	Pause()
	SeekTo(fraction float64)
	SetPlaybackRate(rate float64)
	CurrentTime() float64
	Duration() float64
	// On subscribes h to events of type t and returns the unsubscribe func.
	On(t EngineEventType, h EngineHandler) (off func())
	Destroy()
}

// EngineOptions are passed to EngineFactory.Create.
type EngineOptions struct {
	Generation uint64         // Increments for every instance a controller creates
	Verse      sloka.VerseRef // Item the instance will load
}

// EngineFactory constructs engine instances.
type EngineFactory interface {
	Create(opts EngineOptions) (Engine, error)
}

// EngineFactoryFunc adapts a function to EngineFactory.
type EngineFactoryFunc func(opts EngineOptions) (Engine, error)

// Create calls f.
func (f EngineFactoryFunc) Create(opts EngineOptions) (Engine, error) {
	return f(opts)
}
