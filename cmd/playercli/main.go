// Package main provides the player CLI: it drives a player over connect
// and can stand in for the browser audio engine.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/osa030/slokabox/internal/api/playerv1"
	"github.com/osa030/slokabox/internal/api/playerv1/playerv1connect"
)

var (
	app    = kingpin.New("slokabox-playercli", "slokabox player client for testing")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()

	openCmd   = app.Command("open", "Open a player for a collection")
	openSlug  = openCmd.Arg("slug", "Collection slug").Required().String()
	openName  = openCmd.Flag("name", "Display name").Default("playercli").String()
	openStart = openCmd.Flag("start", "Start index").Int()

	closeCmd = app.Command("close", "Close a player")
	closeID  = closeCmd.Arg("player-id", "Player ID").Required().String()

	stateCmd = app.Command("state", "Show player state")
	stateID  = stateCmd.Arg("player-id", "Player ID").Required().String()

	selectCmd   = app.Command("select", "Select a verse")
	selectID    = selectCmd.Arg("player-id", "Player ID").Required().String()
	selectIndex = selectCmd.Arg("index", "Verse index").Required().Int()

	toggleCmd = app.Command("toggle", "Toggle play/pause")
	toggleID  = toggleCmd.Arg("player-id", "Player ID").Required().String()

	playCmd = app.Command("play", "Start playback")
	playID  = playCmd.Arg("player-id", "Player ID").Required().String()

	pauseCmd = app.Command("pause", "Pause playback")
	pauseID  = pauseCmd.Arg("player-id", "Player ID").Required().String()

	loopCmd = app.Command("loop", "Toggle loop")
	loopID  = loopCmd.Arg("player-id", "Player ID").Required().String()

	speedCmd   = app.Command("speed", "Set playback speed (0.5, 1, 1.5, 2)")
	speedID    = speedCmd.Arg("player-id", "Player ID").Required().String()
	speedValue = speedCmd.Arg("speed", "Speed").Required().Float64()

	cycleCmd = app.Command("cycle-speed", "Cycle playback speed")
	cycleID  = cycleCmd.Arg("player-id", "Player ID").Required().String()

	seekCmd      = app.Command("seek", "Seek within the current verse")
	seekID       = seekCmd.Arg("player-id", "Player ID").Required().String()
	seekFraction = seekCmd.Arg("fraction", "Position in [0,1]").Required().Float64()

	subscribeCmd = app.Command("subscribe", "Print player updates")
	subscribeID  = subscribeCmd.Arg("player-id", "Player ID").Required().String()

	simulateCmd      = app.Command("simulate", "Act as the audio engine of a player")
	simulateID       = simulateCmd.Arg("player-id", "Player ID").Required().String()
	simulateDuration = simulateCmd.Flag("verse-duration", "Simulated length of every verse").Default("5s").Duration()
	simulateLoad     = simulateCmd.Flag("load-delay", "Simulated decode time").Default("300ms").Duration()
	simulateTick     = simulateCmd.Flag("tick", "Progress report interval").Default("250ms").Duration()
	simulateFail     = simulateCmd.Flag("fail", "Fail to load URLs containing this substring").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := playerv1connect.NewPlayerServiceClient(
		http.DefaultClient,
		*server,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch command {
	case openCmd.FullCommand():
		err = open(ctx, client)
	case closeCmd.FullCommand():
		_, err = client.Close(ctx, connect.NewRequest(&playerv1.PlayerRequest{PlayerID: *closeID}))
		if err == nil {
			fmt.Println("Closed")
		}
	case stateCmd.FullCommand():
		err = printState(client.GetState(ctx, connect.NewRequest(&playerv1.PlayerRequest{PlayerID: *stateID})))
	case selectCmd.FullCommand():
		err = printState(client.Select(ctx, connect.NewRequest(&playerv1.SelectRequest{PlayerID: *selectID, Index: *selectIndex})))
	case toggleCmd.FullCommand():
		err = printState(client.TogglePlay(ctx, connect.NewRequest(&playerv1.PlayerRequest{PlayerID: *toggleID})))
	case playCmd.FullCommand():
		err = printState(client.SetPlaying(ctx, connect.NewRequest(&playerv1.SetPlayingRequest{PlayerID: *playID, Playing: true})))
	case pauseCmd.FullCommand():
		err = printState(client.SetPlaying(ctx, connect.NewRequest(&playerv1.SetPlayingRequest{PlayerID: *pauseID, Playing: false})))
	case loopCmd.FullCommand():
		err = printState(client.ToggleLoop(ctx, connect.NewRequest(&playerv1.PlayerRequest{PlayerID: *loopID})))
	case speedCmd.FullCommand():
		err = printState(client.SetSpeed(ctx, connect.NewRequest(&playerv1.SetSpeedRequest{PlayerID: *speedID, Speed: *speedValue})))
	case cycleCmd.FullCommand():
		err = printState(client.CycleSpeed(ctx, connect.NewRequest(&playerv1.PlayerRequest{PlayerID: *cycleID})))
	case seekCmd.FullCommand():
		err = printState(client.Seek(ctx, connect.NewRequest(&playerv1.SeekRequest{PlayerID: *seekID, Fraction: *seekFraction})))
	case subscribeCmd.FullCommand():
		err = subscribe(ctx, client, *subscribeID)
	case simulateCmd.FullCommand():
		sim := &simulator{
			client:    client,
			playerID:  *simulateID,
			duration:  *simulateDuration,
			loadDelay: *simulateLoad,
			tick:      *simulateTick,
			failOn:    *simulateFail,
		}
		err = sim.Run(ctx)
	}

	if err != nil && ctx.Err() == nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func open(ctx context.Context, client playerv1connect.PlayerServiceClient) error {
	resp, err := client.Open(ctx, connect.NewRequest(&playerv1.OpenRequest{
		Slug:        *openSlug,
		DisplayName: *openName,
		StartIndex:  *openStart,
	}))
	if err != nil {
		return err
	}

	fmt.Printf("Opened! Player ID: %s\n", resp.Msg.PlayerID)
	fmt.Printf("Collection: %s (id=%d)\n", resp.Msg.CollectionTitle, resp.Msg.CollectionID)
	for i, v := range resp.Msg.Verses {
		fmt.Printf("  %2d. %s  %s\n", i, v.Title, v.AudioURL)
	}
	printPlayerState(&resp.Msg.State)
	return nil
}

func printState(resp *connect.Response[playerv1.StateResponse], err error) error {
	if err != nil {
		return err
	}
	printPlayerState(&resp.Msg.State)
	return nil
}

func printPlayerState(s *playerv1.PlayerState) {
	status := "⏸  Paused"
	switch {
	case s.NoContent:
		status = "∅  No audio"
	case s.Errored:
		status = "⚠️  Error"
	case s.Loading:
		status = "⏳ Loading"
	case s.Transitioning:
		status = "⏭  Next verse"
	case s.IsPlaying:
		status = "▶️  Playing"
	}

	title := "-"
	if s.Current != nil {
		title = s.Current.Title
	}
	loop := ""
	if s.Loop {
		loop = " 🔁"
	}
	fmt.Printf("%s  [%d/%d] %s  %s  x%.1f%s  (gen %d, %s)\n",
		status, s.CurrentIndex+1, s.Items, title, s.TimeLabel, s.Speed, loop, s.Generation, s.Phase)
}

func subscribe(ctx context.Context, client playerv1connect.PlayerServiceClient, playerID string) error {
	stream, err := client.Subscribe(ctx, connect.NewRequest(&playerv1.SubscribeRequest{PlayerID: playerID}))
	if err != nil {
		return err
	}
	defer stream.Close()

	fmt.Println("Subscribed to player updates. Press Ctrl+C to exit.")

	for stream.Receive() {
		printUpdate(stream.Msg())
	}
	return stream.Err()
}

func printUpdate(u *playerv1.PlayerUpdate) {
	ts := time.Now().Format("15:04:05")
	switch u.Kind {
	case playerv1.UpdateKindCommand:
		c := u.Command
		fmt.Printf("[%s] #%d command gen=%d op=%s url=%s fraction=%.2f rate=%.1f\n",
			ts, u.SequenceNo, c.Generation, c.Op, c.URL, c.Fraction, c.Rate)
	case playerv1.UpdateKindError:
		fmt.Printf("[%s] #%d error: %s\n", ts, u.SequenceNo, u.Error)
	case playerv1.UpdateKindClosed:
		fmt.Printf("[%s] #%d player closed\n", ts, u.SequenceNo)
	default:
		fmt.Printf("[%s] #%d %s: ", ts, u.SequenceNo, u.Kind)
		if u.State != nil {
			printPlayerState(u.State)
		} else {
			fmt.Println()
		}
	}
}
