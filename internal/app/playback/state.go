// Package playback provides sequential verse playback over a single-item audio engine.
package playback

import (
	"fmt"

	"github.com/osa030/slokabox/internal/domain/sloka"
)

// State represents the phase of the active item.
type State int

const (
	StateIdle          State = iota // No content loaded
	StateLoading                    // Engine is fetching/decoding the item
	StateReady                      // Loaded, not started
	StatePlaying                    // Playing
	StatePaused                     // Paused (also the end-of-sequence stop)
	StateFinished                   // Item reached its end
	StateTransitioning              // Between a finish and the next item's load
	StateErrored                    // Item failed to load
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	case StateTransitioning:
		return "transitioning"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Speeds are the supported playback rates, in cycle order.
var Speeds = []float64{0.5, 1, 1.5, 2}

// ValidSpeed reports whether x is one of Speeds.
func ValidSpeed(x float64) bool {
	for _, s := range Speeds {
		if s == x {
			return true
		}
	}
	return false
}

// NextSpeed returns the speed after x in Speeds, wrapping around.
// Unknown speeds restart the cycle.
func NextSpeed(x float64) float64 {
	for i, s := range Speeds {
		if s == x {
			return Speeds[(i+1)%len(Speeds)]
		}
	}
	return Speeds[0]
}

// PlaybackState is a snapshot of the controller state for UI binding.
type PlaybackState struct {
	Phase            State
	Items            int
	CurrentIndex     int
	Current          *sloka.VerseRef
	IsPlaying        bool
	ProgressFraction float64
	DurationSeconds  float64
	Loop             bool
	Speed            float64
	Loading          bool
	Errored          bool
	Transitioning    bool
	NoContent        bool
	Generation       uint64
}

// PositionSeconds returns the playback position in seconds.
func (s PlaybackState) PositionSeconds() float64 {
	return s.ProgressFraction * s.DurationSeconds
}

// TimeLabel formats position and duration as "m:ss / m:ss".
// Returns a placeholder until the duration is known.
func (s PlaybackState) TimeLabel() string {
	if s.DurationSeconds <= 0 {
		return "--:-- / --:--"
	}
	return clock(s.PositionSeconds()) + " / " + clock(s.DurationSeconds)
}

func clock(sec float64) string {
	total := int(sec)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
