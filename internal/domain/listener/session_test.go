package listener

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	tests := []struct {
		name            string
		id              string
		displayName     string
		collectionID    int64
		collectionTitle string
	}{
		{
			name:            "named listener",
			id:              "listener-1",
			displayName:     "Test User",
			collectionID:    7,
			collectionTitle: "Vishnu Sahasranamam",
		},
		{
			name:            "anonymous listener",
			id:              "listener-2",
			displayName:     "",
			collectionID:    1,
			collectionTitle: "Hanuman Chalisa",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := NewSession(tt.id, tt.displayName, tt.collectionID, tt.collectionTitle)

			assert.Equal(t, tt.id, session.ID)
			assert.Equal(t, tt.displayName, session.DisplayName)
			assert.Equal(t, tt.collectionID, session.CollectionID)
			assert.Equal(t, tt.collectionTitle, session.CollectionTitle)
			assert.Equal(t, session.JoinedAt, session.LastActiveAt)
			assert.Equal(t, 0, session.VersesCompleted)
			assert.Nil(t, session.CompletedAt)
		})
	}
}

func TestSession_IsIdle(t *testing.T) {
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		elapsed  time.Duration
		timeout  time.Duration
		expected bool
	}{
		{name: "recent activity", elapsed: time.Minute, timeout: 30 * time.Minute, expected: false},
		{name: "exactly at timeout", elapsed: 30 * time.Minute, timeout: 30 * time.Minute, expected: false},
		{name: "past timeout", elapsed: 31 * time.Minute, timeout: 30 * time.Minute, expected: true},
		{name: "no timeout", elapsed: 24 * time.Hour, timeout: 0, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("id", "", 1, "title")
			s.Touch(base)
			assert.Equal(t, tt.expected, s.IsIdle(base.Add(tt.elapsed), tt.timeout))
		})
	}
}

func TestSession_Progress(t *testing.T) {
	s := NewSession("id", "", 1, "title")

	s.RecordVerseCompleted()
	s.RecordVerseCompleted()
	assert.Equal(t, 2, s.VersesCompleted)

	done := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s.MarkCompleted(done)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, done, *s.CompletedAt)
}
