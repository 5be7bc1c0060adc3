package playback

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slokabox/internal/domain/sloka"
)

// Errors
var (
	ErrEmptySequence = errors.New("no verses to play")
	ErrLoadFailed    = errors.New("failed to load audio")
	ErrInvalidSpeed  = errors.New("unsupported playback speed")
	ErrClosed        = errors.New("controller is closed")
)

// Config holds controller configuration.
type Config struct {
	TransitionDelay time.Duration // Pause between a natural finish and loading the next verse
	EventBuffer     int           // Event channel capacity
}

// Controller plays an ordered verse sequence one engine instance at a time.
type Controller struct {
	mu sync.Mutex

	factory EngineFactory
	config  Config

	// Sequence and cursor
	items []sloka.VerseRef
	index int

	// Playback state
	state     State
	isPlaying bool
	progress  float64
	duration  float64
	loop      bool
	speed     float64

	// Requests buffered until the active item is ready
	wantPlay    bool
	pendingSeek *float64

	// Active engine instance
	engine     Engine
	engineOff  []func()
	generation uint64

	transitionCancel func()

	eventCh chan Event
	closed  bool
}

// NewController creates a new playback controller with no content.
func NewController(factory EngineFactory, config Config) *Controller {
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}
	return &Controller{
		factory: factory,
		config:  config,
		state:   StateIdle,
		speed:   1,
		eventCh: make(chan Event, config.EventBuffer),
	}
}

// Events returns the event channel. It is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// SetSequence replaces the verse list, resets the cursor to 0 and
// preloads the first verse without starting it. An empty list leaves
// the controller with no content.
func (c *Controller) SetSequence(items []sloka.VerseRef) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.cancelTransitionLocked()
	c.releaseEngineLocked()

	c.items = append([]sloka.VerseRef(nil), items...)
	c.index = 0
	c.progress = 0
	c.duration = 0
	c.wantPlay = false
	c.pendingSeek = nil
	c.setPlayingLocked(false)

	if len(c.items) == 0 {
		c.state = StateIdle
		c.sendStateLocked()
		return
	}

	zlog.Debug().Msgf("playback: sequence replaced: items=%d", len(c.items))
	c.sendEventLocked(Event{Type: EventVerseChanged, Index: 0, State: c.snapshotLocked()})
	c.loadLocked(false)
	c.sendStateLocked()
}

// SelectIndex jumps to verse i and plays it once loaded.
// Out-of-range indexes are clamped. Selecting also retries a failed load.
func (c *Controller) SelectIndex(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkContentLocked(); err != nil {
		return err
	}

	if i < 0 {
		i = 0
	}
	if i >= len(c.items) {
		i = len(c.items) - 1
	}

	c.cancelTransitionLocked()
	changed := i != c.index
	c.index = i
	if changed {
		c.sendEventLocked(Event{Type: EventVerseChanged, Index: i, State: c.snapshotLocked()})
	}

	c.pendingSeek = nil
	c.loadLocked(true)
	c.sendStateLocked()
	return nil
}

// TogglePlay flips between playing and paused. While the verse is
// loading or transitioning the flip is recorded and applied at ready.
func (c *Controller) TogglePlay() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkContentLocked(); err != nil {
		return err
	}

	target := !c.isPlaying
	if c.state == StateLoading || c.state == StateTransitioning {
		target = !c.wantPlay
	}
	return c.setPlayIntentLocked(target)
}

// SetPlaying requests playing (true) or paused (false).
func (c *Controller) SetPlaying(play bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkContentLocked(); err != nil {
		return err
	}
	return c.setPlayIntentLocked(play)
}

func (c *Controller) setPlayIntentLocked(play bool) error {
	switch c.state {
	case StateLoading, StateTransitioning:
		c.wantPlay = play
		if !play {
			c.setPlayingLocked(false)
		}
		c.sendStateLocked()
		return nil
	case StateErrored:
		return ErrLoadFailed
	case StateIdle:
		return ErrEmptySequence
	}

	if play {
		if c.state == StatePlaying {
			return nil
		}
		if c.progress >= 1 {
			c.engine.SeekTo(0)
			c.progress = 0
		}
		c.engine.Play()
		c.state = StatePlaying
		c.setPlayingLocked(true)
	} else {
		if c.state != StatePlaying {
			return nil
		}
		c.engine.Pause()
		c.state = StatePaused
		c.setPlayingLocked(false)
	}

	c.sendStateLocked()
	return nil
}

// ToggleLoop flips looping of the current verse and returns the new value.
// Playback position is not affected.
func (c *Controller) ToggleLoop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loop = !c.loop
	c.sendStateLocked()
	return c.loop
}

// SetLoop sets looping of the current verse.
func (c *Controller) SetLoop(loop bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loop == loop {
		return
	}
	c.loop = loop
	c.sendStateLocked()
}

// SetSpeed changes the playback rate. It applies immediately to a loaded
// engine and is otherwise applied when the next verse becomes ready.
func (c *Controller) SetSpeed(x float64) error {
	if !ValidSpeed(x) {
		return errors.Wrapf(ErrInvalidSpeed, "speed %v", x)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.applySpeedLocked(x)
	return nil
}

// CycleSpeed advances to the next supported speed and returns it.
func (c *Controller) CycleSpeed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.applySpeedLocked(NextSpeed(c.speed))
	return c.speed
}

func (c *Controller) applySpeedLocked(x float64) {
	c.speed = x
	if c.engineUsableLocked() {
		c.engine.SetPlaybackRate(x)
	}
	c.sendStateLocked()
}

// Seek moves to fraction of the current verse, clamped to [0,1].
// Progress updates at once; a seek during loading is applied at ready,
// and one during a transition is applied to the next verse.
func (c *Controller) Seek(fraction float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkContentLocked(); err != nil {
		return err
	}
	if c.state == StateErrored {
		return ErrLoadFailed
	}

	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	switch {
	case c.state == StateTransitioning:
		// The finished verse is left alone; the seek lands on the next one.
		f := fraction
		c.pendingSeek = &f
	case c.state == StateLoading:
		f := fraction
		c.pendingSeek = &f
		c.progress = fraction
	case c.engine != nil:
		c.engine.SeekTo(fraction)
		c.progress = fraction
	default:
		c.progress = fraction
	}

	c.sendStateLocked()
	return nil
}

// State returns the current playback state.
func (c *Controller) State() PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close releases the active engine and closes the event channel.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.cancelTransitionLocked()
	c.releaseEngineLocked()
	c.closed = true
	close(c.eventCh)
}

func (c *Controller) checkContentLocked() error {
	if c.closed {
		return ErrClosed
	}
	if len(c.items) == 0 {
		return ErrEmptySequence
	}
	return nil
}

func (c *Controller) engineUsableLocked() bool {
	if c.engine == nil {
		return false
	}
	return c.state != StateLoading && c.state != StateErrored
}

// loadLocked replaces the engine instance with a new one for the current index.
// With autoPlay the play state is left as is until ready, so moving on from a
// playing verse never reports a pause.
// Must be called with lock held.
func (c *Controller) loadLocked(autoPlay bool) {
	c.releaseEngineLocked()

	c.generation++
	gen := c.generation
	ref := c.items[c.index]

	c.state = StateLoading
	c.progress = 0
	c.duration = 0
	c.wantPlay = autoPlay
	if !autoPlay {
		c.setPlayingLocked(false)
	}

	engine, err := c.factory.Create(EngineOptions{Generation: gen, Verse: ref})
	if err != nil {
		c.failLocked(errors.Wrap(err, "failed to create engine"))
		return
	}
	c.engine = engine

	for t := range engineEventNames {
		off := engine.On(t, func(ev EngineEvent) {
			c.handleEngineEvent(gen, ev)
		})
		c.engineOff = append(c.engineOff, off)
	}

	zlog.Debug().Msgf("playback: loading verse: index=%d id=%s generation=%d autoplay=%t",
		c.index, ref.ID, gen, autoPlay)
	engine.Load(ref.AudioURL)
}

// releaseEngineLocked stops the active engine, detaches its handlers and destroys it.
// Must be called with lock held.
func (c *Controller) releaseEngineLocked() {
	if c.engine == nil {
		return
	}
	c.engine.Pause()
	for _, off := range c.engineOff {
		off()
	}
	c.engineOff = nil
	c.engine.Destroy()
	c.engine = nil
}

func (c *Controller) cancelTransitionLocked() {
	if c.transitionCancel != nil {
		c.transitionCancel()
		c.transitionCancel = nil
	}
}

// handleEngineEvent dispatches an engine callback. Callbacks from an
// instance other than the current generation are ignored.
func (c *Controller) handleEngineEvent(gen uint64, ev EngineEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.engine == nil || gen != c.generation {
		zlog.Debug().Msgf("playback: ignoring stale engine event: event=%s generation=%d current=%d",
			ev.Type, gen, c.generation)
		return
	}

	switch ev.Type {
	case EngineReady:
		c.onReadyLocked()
	case EngineError:
		c.failLocked(ev.Err)
	case EngineFinish:
		c.onFinishLocked()
	case EngineAudioProcess, EngineInteraction:
		c.onProgressLocked()
	}
}

func (c *Controller) onReadyLocked() {
	if c.state != StateLoading {
		return
	}

	c.duration = nonNegative(c.engine.Duration())
	c.engine.SetPlaybackRate(c.speed)
	if c.pendingSeek != nil {
		c.engine.SeekTo(*c.pendingSeek)
		c.progress = *c.pendingSeek
		c.pendingSeek = nil
	}

	if c.wantPlay {
		c.engine.Play()
		c.state = StatePlaying
		c.setPlayingLocked(true)
	} else {
		c.state = StateReady
		c.setPlayingLocked(false)
	}
	c.wantPlay = false

	c.sendStateLocked()
}

func (c *Controller) failLocked(err error) {
	if err == nil {
		err = ErrLoadFailed
	} else {
		err = errors.Mark(err, ErrLoadFailed)
	}
	zlog.Warn().Msgf("playback: verse failed: index=%d generation=%d error=%v", c.index, c.generation, err)

	c.state = StateErrored
	c.wantPlay = false
	c.pendingSeek = nil
	c.setPlayingLocked(false)

	c.sendEventLocked(Event{Type: EventLoadFailed, Err: err, State: c.snapshotLocked()})
	c.sendStateLocked()
}

func (c *Controller) onFinishLocked() {
	switch c.state {
	case StatePlaying, StatePaused, StateReady:
	default:
		// Transitioning, or a finish the engine sent before ready.
		zlog.Debug().Msgf("playback: ignoring finish: state=%s index=%d", c.state, c.index)
		return
	}

	c.state = StateFinished
	c.progress = 1

	if c.loop {
		c.engine.SeekTo(0)
		c.engine.Play()
		c.progress = 0
		c.state = StatePlaying
		c.setPlayingLocked(true)
		c.sendStateLocked()
		return
	}

	if c.index < len(c.items)-1 {
		c.state = StateTransitioning
		c.wantPlay = true
		c.sendStateLocked()

		if c.config.TransitionDelay <= 0 {
			c.advanceLocked()
			return
		}

		gen := c.generation
		c.transitionCancel = startTimer(c.config.TransitionDelay, func() {
			c.mu.Lock()
			defer c.mu.Unlock()

			if c.closed || gen != c.generation || c.state != StateTransitioning {
				return
			}
			c.transitionCancel = nil
			c.advanceLocked()
		})
		return
	}

	c.state = StatePaused
	c.setPlayingLocked(false)
	zlog.Debug().Msgf("playback: sequence complete: items=%d", len(c.items))
	c.sendEventLocked(Event{Type: EventSequenceComplete, State: c.snapshotLocked()})
	c.sendStateLocked()
}

// advanceLocked moves the cursor to the next verse and loads it.
func (c *Controller) advanceLocked() {
	c.index++
	c.sendEventLocked(Event{Type: EventVerseChanged, Index: c.index, State: c.snapshotLocked()})
	c.loadLocked(c.wantPlay)
	c.sendStateLocked()
}

func (c *Controller) onProgressLocked() {
	d := c.engine.Duration()
	den := d
	if den <= 0 {
		den = 1
	}
	p := c.engine.CurrentTime() / den
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	c.progress = p
	if d > 0 {
		c.duration = d
	}
	c.sendStateLocked()
}

func (c *Controller) setPlayingLocked(playing bool) {
	if c.isPlaying == playing {
		return
	}
	c.isPlaying = playing
	c.sendEventLocked(Event{Type: EventPlayStateChanged, IsPlaying: playing, State: c.snapshotLocked()})
}

func (c *Controller) snapshotLocked() PlaybackState {
	s := PlaybackState{
		Phase:            c.state,
		Items:            len(c.items),
		CurrentIndex:     c.index,
		IsPlaying:        c.isPlaying,
		ProgressFraction: c.progress,
		DurationSeconds:  c.duration,
		Loop:             c.loop,
		Speed:            c.speed,
		Loading:          c.state == StateLoading,
		Errored:          c.state == StateErrored,
		Transitioning:    c.state == StateTransitioning,
		NoContent:        len(c.items) == 0,
		Generation:       c.generation,
	}
	if len(c.items) > 0 {
		ref := c.items[c.index]
		s.Current = &ref
	}
	return s
}

func (c *Controller) sendStateLocked() {
	c.sendEventLocked(Event{Type: EventStateChanged, State: c.snapshotLocked()})
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(e Event) {
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	default:
		zlog.Debug().Msgf("playback: event dropped, channel full: type=%s", e.Type)
	}
}

// startTimer runs callback after duration and returns a cancel function.
func startTimer(duration time.Duration, callback func()) func() {
	t := time.AfterFunc(duration, callback)
	return func() { t.Stop() }
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
