// Package playerv1connect wires slokabox.player.v1.PlayerService to connect.
package playerv1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	playerv1 "github.com/osa030/slokabox/internal/api/playerv1"
)

// PlayerServiceName is the fully-qualified name of the PlayerService service.
const PlayerServiceName = "slokabox.player.v1.PlayerService"

// Procedure names.
const (
	PlayerServiceOpenProcedure              = "/slokabox.player.v1.PlayerService/Open"
	PlayerServiceCloseProcedure             = "/slokabox.player.v1.PlayerService/Close"
	PlayerServiceSelectProcedure            = "/slokabox.player.v1.PlayerService/Select"
	PlayerServiceTogglePlayProcedure        = "/slokabox.player.v1.PlayerService/TogglePlay"
	PlayerServiceSetPlayingProcedure        = "/slokabox.player.v1.PlayerService/SetPlaying"
	PlayerServiceToggleLoopProcedure        = "/slokabox.player.v1.PlayerService/ToggleLoop"
	PlayerServiceSetSpeedProcedure          = "/slokabox.player.v1.PlayerService/SetSpeed"
	PlayerServiceCycleSpeedProcedure        = "/slokabox.player.v1.PlayerService/CycleSpeed"
	PlayerServiceSeekProcedure              = "/slokabox.player.v1.PlayerService/Seek"
	PlayerServiceGetStateProcedure          = "/slokabox.player.v1.PlayerService/GetState"
	PlayerServiceReportEngineEventProcedure = "/slokabox.player.v1.PlayerService/ReportEngineEvent"
	PlayerServiceSubscribeProcedure         = "/slokabox.player.v1.PlayerService/Subscribe"
)

// PlayerServiceClient is a client for the slokabox.player.v1.PlayerService service.
type PlayerServiceClient interface {
	Open(context.Context, *connect.Request[playerv1.OpenRequest]) (*connect.Response[playerv1.OpenResponse], error)
	Close(context.Context, *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.CloseResponse], error)
	Select(context.Context, *connect.Request[playerv1.SelectRequest]) (*connect.Response[playerv1.StateResponse], error)
	TogglePlay(context.Context, *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.StateResponse], error)
	SetPlaying(context.Context, *connect.Request[playerv1.SetPlayingRequest]) (*connect.Response[playerv1.StateResponse], error)
	ToggleLoop(context.Context, *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.StateResponse], error)
	SetSpeed(context.Context, *connect.Request[playerv1.SetSpeedRequest]) (*connect.Response[playerv1.StateResponse], error)
	CycleSpeed(context.Context, *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.StateResponse], error)
	Seek(context.Context, *connect.Request[playerv1.SeekRequest]) (*connect.Response[playerv1.StateResponse], error)
	GetState(context.Context, *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.StateResponse], error)
	ReportEngineEvent(context.Context, *connect.Request[playerv1.ReportEngineEventRequest]) (*connect.Response[playerv1.ReportEngineEventResponse], error)
	Subscribe(context.Context, *connect.Request[playerv1.SubscribeRequest]) (*connect.ServerStreamForClient[playerv1.PlayerUpdate], error)
}

// NewPlayerServiceClient constructs a client for the slokabox.player.v1.PlayerService service.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PlayerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(playerv1.Codec{})}, opts...)
	return &playerServiceClient{
		open:              connect.NewClient[playerv1.OpenRequest, playerv1.OpenResponse](httpClient, baseURL+PlayerServiceOpenProcedure, opts...),
		close:             connect.NewClient[playerv1.PlayerRequest, playerv1.CloseResponse](httpClient, baseURL+PlayerServiceCloseProcedure, opts...),
		selectIndex:       connect.NewClient[playerv1.SelectRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceSelectProcedure, opts...),
		togglePlay:        connect.NewClient[playerv1.PlayerRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceTogglePlayProcedure, opts...),
		setPlaying:        connect.NewClient[playerv1.SetPlayingRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceSetPlayingProcedure, opts...),
		toggleLoop:        connect.NewClient[playerv1.PlayerRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceToggleLoopProcedure, opts...),
		setSpeed:          connect.NewClient[playerv1.SetSpeedRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceSetSpeedProcedure, opts...),
		cycleSpeed:        connect.NewClient[playerv1.PlayerRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceCycleSpeedProcedure, opts...),
		seek:              connect.NewClient[playerv1.SeekRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceSeekProcedure, opts...),
		getState:          connect.NewClient[playerv1.PlayerRequest, playerv1.StateResponse](httpClient, baseURL+PlayerServiceGetStateProcedure, opts...),
		reportEngineEvent: connect.NewClient[playerv1.ReportEngineEventRequest, playerv1.ReportEngineEventResponse](httpClient, baseURL+PlayerServiceReportEngineEventProcedure, opts...),
		subscribe:         connect.NewClient[playerv1.SubscribeRequest, playerv1.PlayerUpdate](httpClient, baseURL+PlayerServiceSubscribeProcedure, opts...),
	}
}

// playerServiceClient implements PlayerServiceClient.
type playerServiceClient struct {
	open              *connect.Client[playerv1.OpenRequest, playerv1.OpenResponse]
	close             *connect.Client[playerv1.PlayerRequest, playerv1.CloseResponse]
	selectIndex       *connect.Client[playerv1.SelectRequest, playerv1.StateResponse]
	togglePlay        *connect.Client[playerv1.PlayerRequest, playerv1.StateResponse]
	setPlaying        *connect.Client[playerv1.SetPlayingRequest, playerv1.StateResponse]
	toggleLoop        *connect.Client[playerv1.PlayerRequest, playerv1.StateResponse]
	setSpeed          *connect.Client[playerv1.SetSpeedRequest, playerv1.StateResponse]
	cycleSpeed        *connect.Client[playerv1.PlayerRequest, playerv1.StateResponse]
	seek              *connect.Client[playerv1.SeekRequest, playerv1.StateResponse]
	getState          *connect.Client[playerv1.PlayerRequest, playerv1.StateResponse]
	reportEngineEvent *connect.Client[playerv1.ReportEngineEventRequest, playerv1.ReportEngineEventResponse]
	subscribe         *connect.Client[playerv1.SubscribeRequest, playerv1.PlayerUpdate]
}

func (c *playerServiceClient) Open(ctx context.Context, req *connect.Request[playerv1.OpenRequest]) (*connect.Response[playerv1.OpenResponse], error) {
	return c.open.CallUnary(ctx, req)
}

func (c *playerServiceClient) Close(ctx context.Context, req *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.CloseResponse], error) {
	return c.close.CallUnary(ctx, req)
}

func (c *playerServiceClient) Select(ctx context.Context, req *connect.Request[playerv1.SelectRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.selectIndex.CallUnary(ctx, req)
}

func (c *playerServiceClient) TogglePlay(ctx context.Context, req *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.togglePlay.CallUnary(ctx, req)
}

func (c *playerServiceClient) SetPlaying(ctx context.Context, req *connect.Request[playerv1.SetPlayingRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.setPlaying.CallUnary(ctx, req)
}

func (c *playerServiceClient) ToggleLoop(ctx context.Context, req *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.toggleLoop.CallUnary(ctx, req)
}

func (c *playerServiceClient) SetSpeed(ctx context.Context, req *connect.Request[playerv1.SetSpeedRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.setSpeed.CallUnary(ctx, req)
}

func (c *playerServiceClient) CycleSpeed(ctx context.Context, req *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.cycleSpeed.CallUnary(ctx, req)
}

func (c *playerServiceClient) Seek(ctx context.Context, req *connect.Request[playerv1.SeekRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.seek.CallUnary(ctx, req)
}

func (c *playerServiceClient) GetState(ctx context.Context, req *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.StateResponse], error) {
	return c.getState.CallUnary(ctx, req)
}

func (c *playerServiceClient) ReportEngineEvent(ctx context.Context, req *connect.Request[playerv1.ReportEngineEventRequest]) (*connect.Response[playerv1.ReportEngineEventResponse], error) {
	return c.reportEngineEvent.CallUnary(ctx, req)
}

func (c *playerServiceClient) Subscribe(ctx context.Context, req *connect.Request[playerv1.SubscribeRequest]) (*connect.ServerStreamForClient[playerv1.PlayerUpdate], error) {
	return c.subscribe.CallServerStream(ctx, req)
}

// PlayerServiceHandler is an implementation of the slokabox.player.v1.PlayerService service.
type PlayerServiceHandler interface {
	Open(context.Context, *connect.Request[playerv1.OpenRequest]) (*connect.Response[playerv1.OpenResponse], error)
	Close(context.Context, *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.CloseResponse], error)
	Select(context.Context, *connect.Request[playerv1.SelectRequest]) (*connect.Response[playerv1.StateResponse], error)
	TogglePlay(context.Context, *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.StateResponse], error)
	SetPlaying(context.Context, *connect.Request[playerv1.SetPlayingRequest]) (*connect.Response[playerv1.StateResponse], error)
	ToggleLoop(context.Context, *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.StateResponse], error)
	SetSpeed(context.Context, *connect.Request[playerv1.SetSpeedRequest]) (*connect.Response[playerv1.StateResponse], error)
	CycleSpeed(context.Context, *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.StateResponse], error)
	Seek(context.Context, *connect.Request[playerv1.SeekRequest]) (*connect.Response[playerv1.StateResponse], error)
	GetState(context.Context, *connect.Request[playerv1.PlayerRequest]) (*connect.Response[playerv1.StateResponse], error)
	ReportEngineEvent(context.Context, *connect.Request[playerv1.ReportEngineEventRequest]) (*connect.Response[playerv1.ReportEngineEventResponse], error)
	Subscribe(context.Context, *connect.Request[playerv1.SubscribeRequest], *connect.ServerStream[playerv1.PlayerUpdate]) error
}

// NewPlayerServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewPlayerServiceHandler(svc PlayerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(playerv1.Codec{})}, opts...)
	handlers := map[string]http.Handler{
		PlayerServiceOpenProcedure:              connect.NewUnaryHandler(PlayerServiceOpenProcedure, svc.Open, opts...),
		PlayerServiceCloseProcedure:             connect.NewUnaryHandler(PlayerServiceCloseProcedure, svc.Close, opts...),
		PlayerServiceSelectProcedure:            connect.NewUnaryHandler(PlayerServiceSelectProcedure, svc.Select, opts...),
		PlayerServiceTogglePlayProcedure:        connect.NewUnaryHandler(PlayerServiceTogglePlayProcedure, svc.TogglePlay, opts...),
		PlayerServiceSetPlayingProcedure:        connect.NewUnaryHandler(PlayerServiceSetPlayingProcedure, svc.SetPlaying, opts...),
		PlayerServiceToggleLoopProcedure:        connect.NewUnaryHandler(PlayerServiceToggleLoopProcedure, svc.ToggleLoop, opts...),
		PlayerServiceSetSpeedProcedure:          connect.NewUnaryHandler(PlayerServiceSetSpeedProcedure, svc.SetSpeed, opts...),
		PlayerServiceCycleSpeedProcedure:        connect.NewUnaryHandler(PlayerServiceCycleSpeedProcedure, svc.CycleSpeed, opts...),
		PlayerServiceSeekProcedure:              connect.NewUnaryHandler(PlayerServiceSeekProcedure, svc.Seek, opts...),
		PlayerServiceGetStateProcedure:          connect.NewUnaryHandler(PlayerServiceGetStateProcedure, svc.GetState, opts...),
		PlayerServiceReportEngineEventProcedure: connect.NewUnaryHandler(PlayerServiceReportEngineEventProcedure, svc.ReportEngineEvent, opts...),
		PlayerServiceSubscribeProcedure:         connect.NewServerStreamHandler(PlayerServiceSubscribeProcedure, svc.Subscribe, opts...),
	}
	return "/" + PlayerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
