package playback

// EventType represents a playback event type.
type EventType int

const (
	EventStateChanged     EventType = iota // Any PlaybackState field changed
	EventVerseChanged                      // Current index changed
	EventPlayStateChanged                  // IsPlaying flipped
	EventSequenceComplete                  // Last verse finished without loop
	EventLoadFailed                        // Engine reported an error
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStateChanged:
		return "state_changed"
	case EventVerseChanged:
		return "verse_changed"
	case EventPlayStateChanged:
		return "play_state_changed"
	case EventSequenceComplete:
		return "sequence_complete"
	case EventLoadFailed:
		return "load_failed"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type      EventType
	State     PlaybackState // Snapshot taken when the event was emitted
	Index     int           // EventVerseChanged
	IsPlaying bool          // EventPlayStateChanged
	Err       error         // EventLoadFailed
}
