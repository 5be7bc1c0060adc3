package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/slokabox/internal/domain/sloka"
)

func testVerses(n int) []sloka.VerseRef {
	urls := []string{"a", "b", "c", "d"}
	refs := make([]sloka.VerseRef, n)
	for i := range refs {
		refs[i] = sloka.VerseRef{
			ID:       string(rune('A' + i)),
			AudioURL: "https://audio.example.com/" + urls[i%len(urls)] + ".mp3",
			Title:    "Verse",
		}
	}
	return refs
}

func newTestController(delay time.Duration) (*Controller, *fakeFactory) {
	f := &fakeFactory{}
	c := NewController(f, Config{TransitionDelay: delay, EventBuffer: 256})
	return c, f
}

func drainEvents(c *Controller) []Event {
	var events []Event
	for {
		select {
		case e, ok := <-c.Events():
			if !ok {
				return events
			}
			events = append(events, e)
		default:
			return events
		}
	}
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func TestController_SetSequence(t *testing.T) {
	c, f := newTestController(0)
	defer c.Close()

	c.SetSequence(testVerses(3))

	s := c.State()
	assert.Equal(t, 0, s.CurrentIndex)
	assert.False(t, s.IsPlaying)
	assert.True(t, s.Loading)
	assert.False(t, s.NoContent)
	assert.Equal(t, 3, s.Items)
	require.NotNil(t, s.Current)
	assert.Equal(t, "A", s.Current.ID)

	require.Equal(t, 1, f.count())
	assert.Equal(t, "https://audio.example.com/a.mp3", f.last().url)

	// Preloaded item does not start on its own
	f.last().Ready()
	s = c.State()
	assert.Equal(t, StateReady, s.Phase)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, 10.0, s.DurationSeconds)
}

func TestController_EmptySequence(t *testing.T) {
	c, f := newTestController(0)
	defer c.Close()

	c.SetSequence(nil)

	s := c.State()
	assert.True(t, s.NoContent)
	assert.Equal(t, StateIdle, s.Phase)
	assert.Nil(t, s.Current)
	assert.Equal(t, 0, f.count())

	assert.ErrorIs(t, c.TogglePlay(), ErrEmptySequence)
	assert.ErrorIs(t, c.SelectIndex(0), ErrEmptySequence)
	assert.ErrorIs(t, c.SetPlaying(true), ErrEmptySequence)
	assert.ErrorIs(t, c.Seek(0.5), ErrEmptySequence)
}

func TestController_SelectIndex(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		expected int
	}{
		{name: "first", index: 0, expected: 0},
		{name: "middle", index: 1, expected: 1},
		{name: "last", index: 2, expected: 2},
		{name: "past the end is clamped", index: 10, expected: 2},
		{name: "negative is clamped", index: -3, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, f := newTestController(0)
			defer c.Close()
			verses := testVerses(3)
			c.SetSequence(verses)

			require.NoError(t, c.SelectIndex(tt.index))

			s := c.State()
			assert.Equal(t, tt.expected, s.CurrentIndex)
			assert.True(t, s.Loading)
			assert.False(t, s.IsPlaying)
			assert.Equal(t, verses[tt.expected].AudioURL, f.last().url)

			f.last().Ready()

			s = c.State()
			assert.True(t, s.IsPlaying)
			assert.Equal(t, StatePlaying, s.Phase)
			assert.True(t, f.last().isPlaying())
		})
	}
}

func TestController_FinishAdvancesThroughSequence(t *testing.T) {
	c, f := newTestController(0)
	defer c.Close()
	c.SetSequence(testVerses(3))

	require.NoError(t, c.SelectIndex(0))
	f.last().Ready()
	f.last().Finish()

	s := c.State()
	assert.Equal(t, 1, s.CurrentIndex)
	assert.True(t, s.Loading)
	assert.Equal(t, "https://audio.example.com/b.mp3", f.last().url)

	f.last().Ready()
	assert.True(t, c.State().IsPlaying)
	f.last().Finish()

	s = c.State()
	assert.Equal(t, 2, s.CurrentIndex)
	f.last().Ready()
	f.last().Finish()

	s = c.State()
	assert.False(t, s.IsPlaying)
	assert.Equal(t, 2, s.CurrentIndex)
	assert.Equal(t, StatePaused, s.Phase)
	assert.Contains(t, eventTypes(drainEvents(c)), EventSequenceComplete)
}

func TestController_AutoAdvanceKeepsPlayState(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
	}{
		{name: "immediate", delay: 0},
		{name: "after transition delay", delay: 10 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, f := newTestController(tt.delay)
			defer c.Close()
			c.SetSequence(testVerses(3))

			require.NoError(t, c.SelectIndex(0))
			f.last().Ready()
			require.True(t, c.State().IsPlaying)
			drainEvents(c)

			f.last().Finish()
			require.Eventually(t, func() bool {
				return c.State().CurrentIndex == 1
			}, time.Second, 5*time.Millisecond)

			s := c.State()
			assert.True(t, s.Loading)
			assert.True(t, s.IsPlaying)

			f.last().Ready()
			assert.True(t, c.State().IsPlaying)

			for _, e := range drainEvents(c) {
				assert.NotEqual(t, EventPlayStateChanged, e.Type)
			}
		})
	}

	t.Run("pause while loading is reported at once", func(t *testing.T) {
		c, f := newTestController(0)
		defer c.Close()
		c.SetSequence(testVerses(2))

		require.NoError(t, c.SelectIndex(0))
		f.last().Ready()
		f.last().Finish()
		require.True(t, c.State().IsPlaying)

		require.NoError(t, c.TogglePlay())
		assert.False(t, c.State().IsPlaying)

		f.last().Ready()
		s := c.State()
		assert.Equal(t, StateReady, s.Phase)
		assert.False(t, s.IsPlaying)
		assert.False(t, f.last().isPlaying())
	})
}

func TestController_LoopReplaysSameVerse(t *testing.T) {
	c, f := newTestController(0)
	defer c.Close()
	c.SetSequence(testVerses(1))
	c.SetLoop(true)

	require.NoError(t, c.SelectIndex(0))
	e := f.last()
	e.Ready()
	e.Progress(9)
	e.Finish()

	s := c.State()
	assert.Equal(t, 0, s.CurrentIndex)
	assert.True(t, s.IsPlaying)
	assert.Equal(t, StatePlaying, s.Phase)
	assert.Equal(t, 0.0, s.ProgressFraction)
	assert.Same(t, e, f.last())
	assert.Equal(t, []float64{0}, e.seeks)
	assert.True(t, e.isPlaying())
}

func TestController_LastVerseStops(t *testing.T) {
	c, f := newTestController(0)
	defer c.Close()
	c.SetSequence(testVerses(2))

	require.NoError(t, c.SelectIndex(1))
	f.last().Ready()
	engines := f.count()
	f.last().Finish()

	s := c.State()
	assert.False(t, s.IsPlaying)
	assert.Equal(t, 1, s.CurrentIndex)
	assert.Equal(t, engines, f.count())

	// Play again restarts the finished verse from the top
	require.NoError(t, c.TogglePlay())
	assert.True(t, c.State().IsPlaying)
	assert.Equal(t, []float64{0}, f.last().seeks)
}

func TestController_DuplicateFinishAdvancesOnce(t *testing.T) {
	t.Run("stale instance", func(t *testing.T) {
		c, f := newTestController(0)
		defer c.Close()
		c.SetSequence(testVerses(3))

		require.NoError(t, c.SelectIndex(0))
		first := f.last()
		first.Ready()
		first.Finish()
		// Fired by the released instance after detachment
		first.EmitStale(EngineEvent{Type: EngineFinish})
		// Fired by the new instance before it is ready
		f.last().Finish()

		s := c.State()
		assert.Equal(t, 1, s.CurrentIndex)
		assert.True(t, s.Loading)
	})

	t.Run("during transition delay", func(t *testing.T) {
		c, f := newTestController(20 * time.Millisecond)
		defer c.Close()
		c.SetSequence(testVerses(3))

		require.NoError(t, c.SelectIndex(0))
		e := f.last()
		e.Ready()
		e.Finish()
		assert.True(t, c.State().Transitioning)
		e.Finish()

		assert.Eventually(t, func() bool {
			return c.State().CurrentIndex == 1
		}, time.Second, 5*time.Millisecond)

		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, 1, c.State().CurrentIndex)
		assert.Equal(t, 3, f.count())
	})
}

func TestController_TransitionDelay(t *testing.T) {
	t.Run("auto plays next verse", func(t *testing.T) {
		c, f := newTestController(10 * time.Millisecond)
		defer c.Close()
		c.SetSequence(testVerses(2))

		require.NoError(t, c.SelectIndex(0))
		f.last().Ready()
		f.last().Finish()

		s := c.State()
		assert.Equal(t, StateTransitioning, s.Phase)
		assert.Equal(t, 0, s.CurrentIndex)

		assert.Eventually(t, func() bool {
			return c.State().CurrentIndex == 1
		}, time.Second, 5*time.Millisecond)

		f.last().Ready()
		assert.True(t, c.State().IsPlaying)
	})

	t.Run("pause during transition is kept", func(t *testing.T) {
		c, f := newTestController(10 * time.Millisecond)
		defer c.Close()
		c.SetSequence(testVerses(2))

		require.NoError(t, c.SelectIndex(0))
		f.last().Ready()
		f.last().Finish()
		require.NoError(t, c.SetPlaying(false))

		assert.Eventually(t, func() bool {
			return c.State().CurrentIndex == 1
		}, time.Second, 5*time.Millisecond)

		f.last().Ready()
		s := c.State()
		assert.Equal(t, StateReady, s.Phase)
		assert.False(t, s.IsPlaying)
	})

	t.Run("select cancels pending advance", func(t *testing.T) {
		c, f := newTestController(20 * time.Millisecond)
		defer c.Close()
		c.SetSequence(testVerses(3))

		require.NoError(t, c.SelectIndex(0))
		f.last().Ready()
		f.last().Finish()
		require.NoError(t, c.SelectIndex(2))

		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, 2, c.State().CurrentIndex)
	})
}

func TestController_Errors(t *testing.T) {
	c, f := newTestController(0)
	defer c.Close()
	c.SetSequence(testVerses(3))

	require.NoError(t, c.SelectIndex(1))
	f.last().Fail()

	s := c.State()
	assert.True(t, s.Errored)
	assert.False(t, s.Loading)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, 1, s.CurrentIndex)

	assert.ErrorIs(t, c.TogglePlay(), ErrLoadFailed)
	assert.ErrorIs(t, c.Seek(0.5), ErrLoadFailed)

	var failed *Event
	for _, e := range drainEvents(c) {
		if e.Type == EventLoadFailed {
			e := e
			failed = &e
		}
	}
	require.NotNil(t, failed)
	assert.ErrorIs(t, failed.Err, ErrLoadFailed)

	// Explicit selection retries
	require.NoError(t, c.SelectIndex(1))
	s = c.State()
	assert.False(t, s.Errored)
	assert.True(t, s.Loading)

	f.last().Ready()
	assert.True(t, c.State().IsPlaying)
}

func TestController_FactoryFailure(t *testing.T) {
	c, f := newTestController(0)
	defer c.Close()
	f.failNext = true

	c.SetSequence(testVerses(2))

	s := c.State()
	assert.True(t, s.Errored)
	assert.Equal(t, 0, f.count())

	c.SetSequence(testVerses(2))
	assert.False(t, c.State().Errored)
	assert.Equal(t, 1, f.count())
}

func TestController_ReplaceSequenceWhilePlaying(t *testing.T) {
	c, f := newTestController(0)
	defer c.Close()
	c.SetSequence(testVerses(3))

	require.NoError(t, c.SelectIndex(2))
	old := f.last()
	old.Ready()
	old.Progress(4)
	require.True(t, c.State().IsPlaying)

	c.SetSequence(testVerses(2))

	assert.True(t, old.isDestroyed())
	assert.False(t, old.isPlaying())
	assert.Equal(t, 0, old.attached())

	s := c.State()
	assert.Equal(t, 0, s.CurrentIndex)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, 0.0, s.ProgressFraction)
	assert.Equal(t, 0.0, s.DurationSeconds)
	assert.Equal(t, 2, s.Items)

	// Late ready from the released instance has no effect
	old.EmitStale(EngineEvent{Type: EngineReady})
	assert.True(t, c.State().Loading)
}

func TestController_PlayDeferredWhileLoading(t *testing.T) {
	tests := []struct {
		name     string
		toggles  int
		expected bool
	}{
		{name: "single toggle plays at ready", toggles: 1, expected: true},
		{name: "double toggle stays paused", toggles: 2, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, f := newTestController(0)
			defer c.Close()
			c.SetSequence(testVerses(2))

			for i := 0; i < tt.toggles; i++ {
				require.NoError(t, c.TogglePlay())
			}
			assert.False(t, c.State().IsPlaying)

			f.last().Ready()
			assert.Equal(t, tt.expected, c.State().IsPlaying)
			assert.Equal(t, tt.expected, f.last().isPlaying())
		})
	}
}

func TestController_TogglePlay(t *testing.T) {
	c, f := newTestController(0)
	defer c.Close()
	c.SetSequence(testVerses(1))
	f.last().Ready()

	require.NoError(t, c.TogglePlay())
	assert.True(t, c.State().IsPlaying)
	assert.True(t, f.last().isPlaying())

	require.NoError(t, c.TogglePlay())
	s := c.State()
	assert.False(t, s.IsPlaying)
	assert.Equal(t, StatePaused, s.Phase)
	assert.False(t, f.last().isPlaying())

	require.NoError(t, c.SetPlaying(false))
	assert.False(t, c.State().IsPlaying)

	var changes []bool
	for _, e := range drainEvents(c) {
		if e.Type == EventPlayStateChanged {
			changes = append(changes, e.IsPlaying)
		}
	}
	assert.Equal(t, []bool{true, false}, changes)
}

func TestController_Speed(t *testing.T) {
	c, f := newTestController(0)
	defer c.Close()
	c.SetSequence(testVerses(2))

	// Buffered while loading
	require.NoError(t, c.SetSpeed(1.5))
	assert.Equal(t, 1.0, f.last().playbackRate())
	assert.Equal(t, 1.5, c.State().Speed)

	f.last().Ready()
	assert.Equal(t, 1.5, f.last().playbackRate())

	// Applied immediately once loaded
	require.NoError(t, c.SetSpeed(2))
	assert.Equal(t, 2.0, f.last().playbackRate())

	// Kept for the next verse
	require.NoError(t, c.SelectIndex(1))
	f.last().Ready()
	assert.Equal(t, 2.0, f.last().playbackRate())

	err := c.SetSpeed(3)
	assert.ErrorIs(t, err, ErrInvalidSpeed)
	assert.Equal(t, 2.0, c.State().Speed)
}

func TestController_CycleSpeed(t *testing.T) {
	c, _ := newTestController(0)
	defer c.Close()

	var got []float64
	for i := 0; i < 4; i++ {
		got = append(got, c.CycleSpeed())
	}
	assert.Equal(t, []float64{1.5, 2, 0.5, 1}, got)
}

func TestController_ToggleLoopKeepsPlayback(t *testing.T) {
	c, f := newTestController(0)
	defer c.Close()
	c.SetSequence(testVerses(2))

	require.NoError(t, c.SelectIndex(0))
	e := f.last()
	e.Ready()
	e.Progress(3)

	assert.True(t, c.ToggleLoop())

	s := c.State()
	assert.True(t, s.Loop)
	assert.True(t, s.IsPlaying)
	assert.InDelta(t, 0.3, s.ProgressFraction, 1e-9)
	assert.Same(t, e, f.last())
	assert.Empty(t, e.seeks)

	assert.False(t, c.ToggleLoop())
}

func TestController_Seek(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		expected float64
	}{
		{name: "middle", fraction: 0.5, expected: 0.5},
		{name: "above range", fraction: 2, expected: 1},
		{name: "below range", fraction: -1, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, f := newTestController(0)
			defer c.Close()
			c.SetSequence(testVerses(1))
			f.last().Ready()

			require.NoError(t, c.Seek(tt.fraction))
			assert.Equal(t, tt.expected, c.State().ProgressFraction)
			assert.Equal(t, []float64{tt.expected}, f.last().seeks)
		})
	}

	t.Run("buffered while loading", func(t *testing.T) {
		c, f := newTestController(0)
		defer c.Close()
		c.SetSequence(testVerses(1))

		require.NoError(t, c.Seek(0.25))
		assert.Equal(t, 0.25, c.State().ProgressFraction)
		assert.Empty(t, f.last().seeks)

		f.last().Ready()
		assert.Equal(t, []float64{0.25}, f.last().seeks)
		assert.Equal(t, 0.25, c.State().ProgressFraction)
	})

	t.Run("during transition lands on next verse", func(t *testing.T) {
		c, f := newTestController(20 * time.Millisecond)
		defer c.Close()
		c.SetSequence(testVerses(2))

		require.NoError(t, c.SelectIndex(0))
		finished := f.last()
		finished.Ready()
		finished.Finish()
		require.True(t, c.State().Transitioning)

		require.NoError(t, c.Seek(0.4))
		assert.Empty(t, finished.seeks)
		assert.Equal(t, 1.0, c.State().ProgressFraction)

		require.Eventually(t, func() bool {
			return c.State().CurrentIndex == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, 0.0, c.State().ProgressFraction)

		f.last().Ready()
		s := c.State()
		assert.Equal(t, []float64{0.4}, f.last().seeks)
		assert.Equal(t, 0.4, s.ProgressFraction)
		assert.True(t, s.IsPlaying)
	})
}

func TestController_Progress(t *testing.T) {
	c, f := newTestController(0)
	defer c.Close()
	c.SetSequence(testVerses(1))

	assert.Equal(t, "--:-- / --:--", c.State().TimeLabel())

	f.last().Ready()
	f.last().Progress(5)

	s := c.State()
	assert.InDelta(t, 0.5, s.ProgressFraction, 1e-9)
	assert.Equal(t, "0:05 / 0:10", s.TimeLabel())
}

func TestController_VerseChangedEvents(t *testing.T) {
	c, f := newTestController(0)
	defer c.Close()
	c.SetSequence(testVerses(3))
	drainEvents(c)

	require.NoError(t, c.SelectIndex(1))
	f.last().Ready()
	f.last().Finish()

	var indexes []int
	for _, e := range drainEvents(c) {
		if e.Type == EventVerseChanged {
			indexes = append(indexes, e.Index)
		}
	}
	assert.Equal(t, []int{1, 2}, indexes)
}

func TestController_Close(t *testing.T) {
	c, f := newTestController(0)
	c.SetSequence(testVerses(2))
	require.NoError(t, c.SelectIndex(0))
	e := f.last()
	e.Ready()

	c.Close()
	c.Close()

	assert.True(t, e.isDestroyed())
	assert.Equal(t, 0, e.attached())
	assert.ErrorIs(t, c.TogglePlay(), ErrClosed)
	assert.ErrorIs(t, c.SelectIndex(1), ErrClosed)

	drainEvents(c)
	_, ok := <-c.Events()
	assert.False(t, ok)

	// Stale callbacks after close are ignored
	e.EmitStale(EngineEvent{Type: EngineFinish})
}

func TestSpeeds(t *testing.T) {
	tests := []struct {
		speed float64
		valid bool
		next  float64
	}{
		{speed: 0.5, valid: true, next: 1},
		{speed: 1, valid: true, next: 1.5},
		{speed: 1.5, valid: true, next: 2},
		{speed: 2, valid: true, next: 0.5},
		{speed: 0.75, valid: false, next: 0.5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidSpeed(tt.speed), "speed %v", tt.speed)
		assert.Equal(t, tt.next, NextSpeed(tt.speed), "speed %v", tt.speed)
	}
}
