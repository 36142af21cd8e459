// Package main provides the remote control CLI entry point.
package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"google.golang.org/protobuf/types/known/structpb"

	apiconnect "github.com/osa030/vinylbox/internal/api/connect"
	"github.com/osa030/vinylbox/internal/app/notification"
	"github.com/osa030/vinylbox/internal/app/playback"
	"github.com/osa030/vinylbox/internal/app/session"
	"github.com/osa030/vinylbox/internal/app/timefmt"
	"github.com/osa030/vinylbox/internal/app/transport"
	"github.com/osa030/vinylbox/internal/infra/config"
)

var (
	app    = kingpin.New("vinylctl", "vinylbox remote control")
	server = app.Flag("server", "Player address").Default("http://127.0.0.1:7019").String()
	token  = app.Flag("token", "Remote token (or set "+config.EnvRemoteToken+" env)").Envar(config.EnvRemoteToken).String()

	statusCmd  = app.Command("status", "Show the player status")
	toggleCmd  = app.Command("toggle", "Play or pause")
	nextCmd    = app.Command("next", "Play the next track")
	prevCmd    = app.Command("prev", "Play the previous track (or restart the current one)")
	shuffleCmd = app.Command("shuffle", "Toggle shuffle")
	repeatCmd  = app.Command("repeat", "Cycle the repeat mode")
	muteCmd    = app.Command("mute", "Mute or unmute")

	volumeCmd   = app.Command("volume", "Set the volume")
	volumeLevel = volumeCmd.Arg("level", "Volume between 0 and 1").Required().Float64()

	seekCmd     = app.Command("seek", "Seek to a position")
	seekSeconds = seekCmd.Arg("seconds", "Position in seconds").Required().Float64()

	playCmd    = app.Command("play", "Play a track")
	playNumber = playCmd.Arg("number", "Track number as listed (1-based)").Required().Int()

	watchCmd = app.Command("watch", "Stream player notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *token == "" {
		fmt.Printf("Error: remote token is required (use --token or %s env)\n", config.EnvRemoteToken)
		os.Exit(1)
	}

	client := apiconnect.NewRemoteClient(http.DefaultClient, *server, *token)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case statusCmd.FullCommand():
		status(ctx, client)
	case toggleCmd.FullCommand():
		control(ctx, client, playback.Command{Kind: playback.CommandTogglePlay})
	case nextCmd.FullCommand():
		control(ctx, client, playback.Command{Kind: playback.CommandNext})
	case prevCmd.FullCommand():
		control(ctx, client, playback.Command{Kind: playback.CommandPrevious})
	case shuffleCmd.FullCommand():
		control(ctx, client, playback.Command{Kind: playback.CommandToggleShuffle})
	case repeatCmd.FullCommand():
		control(ctx, client, playback.Command{Kind: playback.CommandCycleRepeat})
	case muteCmd.FullCommand():
		control(ctx, client, playback.Command{Kind: playback.CommandToggleMute})
	case volumeCmd.FullCommand():
		control(ctx, client, playback.Command{Kind: playback.CommandSetVolume, Value: *volumeLevel})
	case seekCmd.FullCommand():
		control(ctx, client, playback.Command{Kind: playback.CommandSeek, Value: *seekSeconds})
	case playCmd.FullCommand():
		if *playNumber < 1 {
			fmt.Println("Error: track number starts at 1")
			os.Exit(1)
		}
		control(ctx, client, playback.Command{Kind: playback.CommandPlay, Index: *playNumber - 1})
	case watchCmd.FullCommand():
		watch(ctx, client)
	}
}

func status(ctx context.Context, client *apiconnect.RemoteClient) {
	st, err := client.GetStatus(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n=== PLAYER STATUS ===")
	fmt.Printf("Session ID: %s\n", st.Info.SessionID)
	fmt.Printf("Catalog: %s (%s)\n", st.Info.Source, st.Info.Phase)
	if st.Info.Failure != "" {
		fmt.Printf("  Failure: %s\n", st.Info.Failure)
	}
	fmt.Printf("Subscribers: %d\n", st.Subscribers)

	if st.Snapshot.TrackCount > 0 {
		printSnapshot(st.Snapshot)
	} else {
		fmt.Println("\nNo tracks loaded")
	}
	fmt.Println()
}

func printSnapshot(s playback.Snapshot) {
	np := transport.NowPlaying(s.TrackName, s.Index, s.TrackCount)
	state := "Paused"
	if s.Playing {
		state = "Playing"
	}
	total := "--:--"
	if !math.IsNaN(s.Duration) {
		total = timefmt.FormatElapsed(s.Duration)
	}

	fmt.Printf("\n%s: %s\n", state, np.Title)
	fmt.Printf("  %s\n", np.Position)
	fmt.Printf("  Position: %s / %s\n", timefmt.FormatElapsed(s.CurrentTime), total)
	fmt.Printf("  Volume: %s\n", transport.Volume(s.Volume).Label)
	fmt.Printf("  %s, %s\n", transport.ShuffleLabel(s.Shuffle), transport.RepeatLabel(s.Repeat))
}

func control(ctx context.Context, client *apiconnect.RemoteClient, cmd playback.Command) {
	msg, err := client.Control(ctx, cmd)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(msg)
}

func watch(ctx context.Context, client *apiconnect.RemoteClient) {
	err := client.Subscribe(ctx, func(n *structpb.Struct) error {
		seq := notification.SequenceNo(n)
		switch kind := notification.Type(n); kind {
		case notification.TypeInitialState:
			st := session.ParseStatus(n)
			fmt.Printf("[%d] connected: catalog %s (%s)\n", seq, st.Info.Source, st.Info.Phase)
			if st.Snapshot.TrackCount > 0 {
				printSnapshot(st.Snapshot)
			}
		case notification.TypeTrackChanged:
			s := session.ParseSnapshot(n)
			np := transport.NowPlaying(s.TrackName, s.Index, s.TrackCount)
			fmt.Printf("[%d] track: %s (%s)\n", seq, np.Title, np.Position)
		case notification.TypeStateChanged:
			s := session.ParseSnapshot(n)
			state := "paused"
			if s.Playing {
				state = "playing"
			}
			fmt.Printf("[%d] %s, volume %s, %s, %s\n", seq, state,
				transport.Volume(s.Volume).Label, transport.ShuffleLabel(s.Shuffle), transport.RepeatLabel(s.Repeat))
		default:
			fmt.Printf("[%d] %s\n", seq, kind)
		}
		return nil
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
