// Package playerv1 defines the wire messages of slokabox.player.v1.PlayerService.
package playerv1

// UpdateKind identifies the payload of a PlayerUpdate.
type UpdateKind string

const (
	UpdateKindInitialState UpdateKind = "initial_state"
	UpdateKindState        UpdateKind = "state"
	UpdateKindVerse        UpdateKind = "verse"
	UpdateKindPlayState    UpdateKind = "play_state"
	UpdateKindComplete     UpdateKind = "complete"
	UpdateKindError        UpdateKind = "error"
	UpdateKindCommand      UpdateKind = "command"
	UpdateKindClosed       UpdateKind = "closed"
)

// Engine command operations.
const (
	CommandLoad    = "load"
	CommandPlay    = "play"
	CommandPause   = "pause"
	CommandSeek    = "seek"
	CommandRate    = "rate"
	CommandDestroy = "destroy"
)

// VerseRef is a playable verse.
type VerseRef struct {
	ID       string `json:"id"`
	AudioURL string `json:"audioUrl"`
	Title    string `json:"title"`
}

// PlayerState mirrors the controller's playback state.
type PlayerState struct {
	Phase            string    `json:"phase"`
	Items            int       `json:"items"`
	CurrentIndex     int       `json:"currentIndex"`
	Current          *VerseRef `json:"current,omitempty"`
	IsPlaying        bool      `json:"isPlaying"`
	ProgressFraction float64   `json:"progressFraction"`
	DurationSeconds  float64   `json:"durationSeconds"`
	TimeLabel        string    `json:"timeLabel"`
	Loop             bool      `json:"loop"`
	Speed            float64   `json:"speed"`
	Loading          bool      `json:"loading"`
	Errored          bool      `json:"errored"`
	Transitioning    bool      `json:"transitioning"`
	NoContent        bool      `json:"noContent"`
	Generation       uint64    `json:"generation"`
}

// EngineCommand instructs the client-side audio engine.
type EngineCommand struct {
	Generation uint64  `json:"generation"`
	Op         string  `json:"op"`
	URL        string  `json:"url,omitempty"`
	Fraction   float64 `json:"fraction,omitempty"`
	Rate       float64 `json:"rate,omitempty"`
}

// PlayerUpdate is streamed to subscribers of a player.
type PlayerUpdate struct {
	SequenceNo uint64         `json:"sequenceNo"`
	PlayerID   string         `json:"playerId"`
	Kind       UpdateKind     `json:"kind"`
	State      *PlayerState   `json:"state,omitempty"`
	Command    *EngineCommand `json:"command,omitempty"`
	Index      int            `json:"index,omitempty"`
	Error      string         `json:"error,omitempty"`
}

type OpenRequest struct {
	CollectionID int64  `json:"collectionId,omitempty"`
	Slug         string `json:"slug,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	StartIndex   int    `json:"startIndex,omitempty"`
}

type OpenResponse struct {
	PlayerID        string      `json:"playerId"`
	CollectionID    int64       `json:"collectionId"`
	CollectionTitle string      `json:"collectionTitle"`
	Verses          []VerseRef  `json:"verses"`
	State           PlayerState `json:"state"`
}

// PlayerRequest addresses a player without arguments.
type PlayerRequest struct {
	PlayerID string `json:"playerId"`
}

type SelectRequest struct {
	PlayerID string `json:"playerId"`
	Index    int    `json:"index"`
}

type SetPlayingRequest struct {
	PlayerID string `json:"playerId"`
	Playing  bool   `json:"playing"`
}

type SetSpeedRequest struct {
	PlayerID string  `json:"playerId"`
	Speed    float64 `json:"speed"`
}

type SeekRequest struct {
	PlayerID string  `json:"playerId"`
	Fraction float64 `json:"fraction"`
}

// StateResponse returns the player state after a command.
type StateResponse struct {
	State PlayerState `json:"state"`
}

type CloseResponse struct{}

type ReportEngineEventRequest struct {
	PlayerID    string  `json:"playerId"`
	Generation  uint64  `json:"generation"`
	Event       string  `json:"event"`
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
	Error       string  `json:"error,omitempty"`
}

type ReportEngineEventResponse struct {
	// Accepted is false when the generation is no longer active.
	Accepted bool `json:"accepted"`
}

type SubscribeRequest struct {
	PlayerID string `json:"playerId"`
}
