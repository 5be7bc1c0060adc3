package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/osa030/slokabox/internal/api/playerv1"
	"github.com/osa030/slokabox/internal/api/playerv1/playerv1connect"
)

// simulator obeys engine commands of one player with wall-clock timing
// and reports ready, audioprocess, finish and error events back.
type simulator struct {
	client    playerv1connect.PlayerServiceClient
	playerID  string
	duration  time.Duration
	loadDelay time.Duration
	tick      time.Duration
	failOn    string

	gen      uint64
	url      string
	loaded   bool
	playing  bool
	position float64 // seconds
	rate     float64
	lastTick time.Time
}

// Run subscribes to the player and plays until the player closes or ctx ends.
func (s *simulator) Run(ctx context.Context) error {
	stream, err := s.client.Subscribe(ctx, connect.NewRequest(&playerv1.SubscribeRequest{PlayerID: s.playerID}))
	if err != nil {
		return err
	}
	defer stream.Close()

	updates := make(chan *playerv1.PlayerUpdate)
	streamErr := make(chan error, 1)
	go func() {
		for stream.Receive() {
			select {
			case updates <- stream.Msg():
			case <-ctx.Done():
				return
			}
		}
		streamErr <- stream.Err()
	}()

	s.rate = 1
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	var loadTimer <-chan time.Time

	fmt.Printf("Simulating engine for player %s (verse=%v). Press Ctrl+C to exit.\n", s.playerID, s.duration)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-streamErr:
			return err
		case u := <-updates:
			if u.Kind == playerv1.UpdateKindClosed {
				fmt.Println("Player closed")
				return nil
			}
			if u.Command != nil {
				loadTimer = s.apply(ctx, u.Command, loadTimer)
			}
		case <-loadTimer:
			loadTimer = nil
			s.finishLoad(ctx)
		case now := <-ticker.C:
			s.advance(ctx, now)
		}
	}
}

// apply executes one command and returns the pending load timer.
func (s *simulator) apply(ctx context.Context, cmd *playerv1.EngineCommand, loadTimer <-chan time.Time) <-chan time.Time {
	if cmd.Generation < s.gen {
		return loadTimer
	}
	if cmd.Op != playerv1.CommandLoad && cmd.Generation != s.gen {
		return loadTimer
	}

	fmt.Printf("  <- %s gen=%d\n", cmd.Op, cmd.Generation)

	switch cmd.Op {
	case playerv1.CommandLoad:
		s.gen = cmd.Generation
		s.url = cmd.URL
		s.loaded = false
		s.playing = false
		s.position = 0
		return time.After(s.loadDelay)
	case playerv1.CommandPlay:
		s.playing = true
		s.lastTick = time.Now()
	case playerv1.CommandPause:
		s.advance(ctx, time.Now())
		s.playing = false
	case playerv1.CommandSeek:
		s.position = cmd.Fraction * s.duration.Seconds()
	case playerv1.CommandRate:
		s.advance(ctx, time.Now())
		if cmd.Rate > 0 {
			s.rate = cmd.Rate
		}
	case playerv1.CommandDestroy:
		s.url = ""
		s.loaded = false
		s.playing = false
		return nil
	}
	return loadTimer
}

func (s *simulator) finishLoad(ctx context.Context) {
	if s.failOn != "" && strings.Contains(s.url, s.failOn) {
		s.report(ctx, "error", fmt.Sprintf("failed to decode %s", s.url))
		return
	}
	s.loaded = true
	s.report(ctx, "ready", "")
}

func (s *simulator) advance(ctx context.Context, now time.Time) {
	if !s.loaded || !s.playing {
		s.lastTick = now
		return
	}

	s.position += now.Sub(s.lastTick).Seconds() * s.rate
	s.lastTick = now

	if total := s.duration.Seconds(); s.position >= total {
		s.position = total
		s.playing = false
		s.report(ctx, "finish", "")
		return
	}
	s.report(ctx, "audioprocess", "")
}

func (s *simulator) report(ctx context.Context, event, errMsg string) {
	resp, err := s.client.ReportEngineEvent(ctx, connect.NewRequest(&playerv1.ReportEngineEventRequest{
		PlayerID:    s.playerID,
		Generation:  s.gen,
		Event:       event,
		CurrentTime: s.position,
		Duration:    s.duration.Seconds(),
		Error:       errMsg,
	}))
	if err != nil {
		fmt.Printf("  -> %s failed: %v\n", event, err)
		return
	}
	if event != "audioprocess" || !resp.Msg.Accepted {
		fmt.Printf("  -> %s gen=%d t=%.1fs accepted=%t\n", event, s.gen, s.position, resp.Msg.Accepted)
	}
}
