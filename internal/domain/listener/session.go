// Package listener provides the listener session domain entity.
package listener

import "time"

// Session represents one listener's open book view.
type Session struct {
	ID              string     // UUID
	DisplayName     string     // Display name (optional)
	CollectionID    int64      // Collection being played
	CollectionTitle string     // Collection title
	JoinedAt        time.Time  // Open time
	LastActiveAt    time.Time  // Last command or engine report
	VersesCompleted int        // Verses that played through to the end
	CompletedAt     *time.Time // When the whole sequence was completed last
}

// NewSession creates a new listener session.
func NewSession(id, displayName string, collectionID int64, collectionTitle string) *Session {
	now := time.Now()
	return &Session{
		ID:              id,
		DisplayName:     displayName,
		CollectionID:    collectionID,
		CollectionTitle: collectionTitle,
		JoinedAt:        now,
		LastActiveAt:    now,
	}
}

// Touch records activity at t.
func (s *Session) Touch(t time.Time) {
	s.LastActiveAt = t
}

// RecordVerseCompleted counts a verse that finished playing.
func (s *Session) RecordVerseCompleted() {
	s.VersesCompleted++
}

// MarkCompleted records that the sequence reached its end.
func (s *Session) MarkCompleted(t time.Time) {
	s.CompletedAt = &t
}

// IsIdle reports whether the session saw no activity for longer than timeout.
// A non-positive timeout never expires.
func (s *Session) IsIdle(now time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return now.Sub(s.LastActiveAt) > timeout
}
