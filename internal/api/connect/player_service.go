// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"sync"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	playerv1 "github.com/osa030/slokabox/internal/api/playerv1"
	"github.com/osa030/slokabox/internal/api/playerv1/playerv1connect"
	"github.com/osa030/slokabox/internal/app/playback"
	"github.com/osa030/slokabox/internal/app/player"
)

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	players *player.Manager
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(players *player.Manager) *PlayerService {
	return &PlayerService{
		players: players,
	}
}

// Ensure PlayerService implements the interface.
var _ playerv1connect.PlayerServiceHandler = (*PlayerService)(nil)

// Open opens a book view on a collection.
func (s *PlayerService) Open(
	ctx context.Context,
	req *connect.Request[playerv1.OpenRequest],
) (*connect.Response[playerv1.OpenResponse], error) {
	p, err := s.players.Open(ctx, player.OpenRequest{
		CollectionID: req.Msg.CollectionID,
		Slug:         req.Msg.Slug,
		DisplayName:  req.Msg.DisplayName,
		StartIndex:   req.Msg.StartIndex,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	session := p.Session()
	return connect.NewResponse(&playerv1.OpenResponse{
		PlayerID:        p.ID(),
		CollectionID:    session.CollectionID,
		CollectionTitle: session.CollectionTitle,
		Verses:          player.ToVerseRefs(p.Verses()),
		State:           player.ToPlayerState(p.State()),
	}), nil
}

// Close closes a book view.
func (s *PlayerService) Close(
	ctx context.Context,
	req *connect.Request[playerv1.PlayerRequest],
) (*connect.Response[playerv1.CloseResponse], error) {
	if err := s.players.Close(req.Msg.PlayerID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.CloseResponse{}), nil
}

// Select jumps to a verse.
func (s *PlayerService) Select(
	ctx context.Context,
	req *connect.Request[playerv1.SelectRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return stateResponse(s.players.Select(req.Msg.PlayerID, req.Msg.Index))
}

// TogglePlay flips between playing and paused.
func (s *PlayerService) TogglePlay(
	ctx context.Context,
	req *connect.Request[playerv1.PlayerRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return stateResponse(s.players.TogglePlay(req.Msg.PlayerID))
}

// SetPlaying requests playing or paused.
func (s *PlayerService) SetPlaying(
	ctx context.Context,
	req *connect.Request[playerv1.SetPlayingRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return stateResponse(s.players.SetPlaying(req.Msg.PlayerID, req.Msg.Playing))
}

// ToggleLoop flips single-verse repeat.
func (s *PlayerService) ToggleLoop(
	ctx context.Context,
	req *connect.Request[playerv1.PlayerRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return stateResponse(s.players.ToggleLoop(req.Msg.PlayerID))
}

// SetSpeed sets the playback rate.
func (s *PlayerService) SetSpeed(
	ctx context.Context,
	req *connect.Request[playerv1.SetSpeedRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return stateResponse(s.players.SetSpeed(req.Msg.PlayerID, req.Msg.Speed))
}

// CycleSpeed steps to the next playback rate.
func (s *PlayerService) CycleSpeed(
	ctx context.Context,
	req *connect.Request[playerv1.PlayerRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return stateResponse(s.players.CycleSpeed(req.Msg.PlayerID))
}

// Seek moves within the current verse.
func (s *PlayerService) Seek(
	ctx context.Context,
	req *connect.Request[playerv1.SeekRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return stateResponse(s.players.Seek(req.Msg.PlayerID, req.Msg.Fraction))
}

// GetState returns the playback state.
func (s *PlayerService) GetState(
	ctx context.Context,
	req *connect.Request[playerv1.PlayerRequest],
) (*connect.Response[playerv1.StateResponse], error) {
	return stateResponse(s.players.State(req.Msg.PlayerID))
}

// ReportEngineEvent receives an event from the client's audio engine.
func (s *PlayerService) ReportEngineEvent(
	ctx context.Context,
	req *connect.Request[playerv1.ReportEngineEventRequest],
) (*connect.Response[playerv1.ReportEngineEventResponse], error) {
	m := req.Msg
	accepted, err := s.players.ReportEngineEvent(m.PlayerID, m.Generation, m.Event, m.CurrentTime, m.Duration, m.Error)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.ReportEngineEventResponse{
		Accepted: accepted,
	}), nil
}

// Subscribe streams player updates, starting with the initial state.
func (s *PlayerService) Subscribe(
	ctx context.Context,
	req *connect.Request[playerv1.SubscribeRequest],
	stream *connect.ServerStream[playerv1.PlayerUpdate],
) error {
	adapter := &updateStreamAdapter{stream: stream}
	if err := s.players.Subscribe(ctx, req.Msg.PlayerID, adapter); err != nil {
		return toConnectError(err)
	}
	return nil
}

// updateStreamAdapter adapts connect.ServerStream to notification.Stream.
// A timed-out send can still be in flight when the next one starts, so
// sends are serialized.
type updateStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[playerv1.PlayerUpdate]
}

func (a *updateStreamAdapter) Send(update *playerv1.PlayerUpdate) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream.Send(update)
}

func stateResponse(state playback.PlaybackState, err error) (*connect.Response[playerv1.StateResponse], error) {
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.StateResponse{
		State: player.ToPlayerState(state),
	}), nil
}

// toConnectError maps application errors to connect codes.
func toConnectError(err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, player.ErrPlayerNotFound), errors.Is(err, player.ErrCollectionNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, player.ErrInvalidRequest),
		errors.Is(err, player.ErrUnknownEngineEvent),
		errors.Is(err, playback.ErrInvalidSpeed):
		code = connect.CodeInvalidArgument
	case errors.Is(err, playback.ErrEmptySequence),
		errors.Is(err, playback.ErrLoadFailed),
		errors.Is(err, playback.ErrClosed):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	default:
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}
