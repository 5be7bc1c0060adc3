package player

import (
	playerv1 "github.com/osa030/slokabox/internal/api/playerv1"
	"github.com/osa030/slokabox/internal/app/playback"
	"github.com/osa030/slokabox/internal/domain/sloka"
)

func toPlayerState(s playback.PlaybackState) *playerv1.PlayerState {
	out := &playerv1.PlayerState{
		Phase:            s.Phase.String(),
		Items:            s.Items,
		CurrentIndex:     s.CurrentIndex,
		IsPlaying:        s.IsPlaying,
		ProgressFraction: s.ProgressFraction,
		DurationSeconds:  s.DurationSeconds,
		TimeLabel:        s.TimeLabel(),
		Loop:             s.Loop,
		Speed:            s.Speed,
		Loading:          s.Loading,
		Errored:          s.Errored,
		Transitioning:    s.Transitioning,
		NoContent:        s.NoContent,
		Generation:       s.Generation,
	}
	if s.Current != nil {
		ref := toVerseRef(*s.Current)
		out.Current = &ref
	}
	return out
}

// ToPlayerState converts a playback state to its wire form.
func ToPlayerState(s playback.PlaybackState) playerv1.PlayerState {
	return *toPlayerState(s)
}

func toVerseRef(v sloka.VerseRef) playerv1.VerseRef {
	return playerv1.VerseRef{
		ID:       v.ID,
		AudioURL: v.AudioURL,
		Title:    v.Title,
	}
}

// ToVerseRefs converts a playback sequence to its wire form.
func ToVerseRefs(verses []sloka.VerseRef) []playerv1.VerseRef {
	out := make([]playerv1.VerseRef, len(verses))
	for i, v := range verses {
		out[i] = toVerseRef(v)
	}
	return out
}
