// Package main provides the player entry point.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/vinylbox/internal/api/connect"
	"github.com/osa030/vinylbox/internal/app/catalog"
	"github.com/osa030/vinylbox/internal/app/navigation"
	"github.com/osa030/vinylbox/internal/app/playback"
	"github.com/osa030/vinylbox/internal/app/session"
	"github.com/osa030/vinylbox/internal/infra/audio"
	"github.com/osa030/vinylbox/internal/infra/config"
	"github.com/osa030/vinylbox/internal/infra/download"
	"github.com/osa030/vinylbox/internal/infra/logger"
	"github.com/osa030/vinylbox/internal/ui/player"
)

var (
	app         = kingpin.New("vinylbox", "vinylbox terminal music player")
	configPath  = app.Flag("config", "Path to config file").Default("config/vinylbox.yaml").String()
	catalogFlag = app.Flag("catalog", "Catalog URL or path (overrides config)").Short('c').String()
	verbose     = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile     = app.Flag("logfile", "Path to log file (\"none\" disables logging)").Default("vinylbox.log").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// The terminal belongs to the display, so logs go to a file
	loggerConfig := logger.Config{
		Output: *logfile,
		Level:  "info",
		File:   *logfile,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *catalogFlag != "" {
		cfg.Catalog.Source = *catalogFlag
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closer.Close()
		os.Exit(1)
	}
}

// run executes the player. Using a separate function ensures deferred
// cleanup runs even when returning with an error.
func run(cfg *config.Config) error {
	loader, err := catalog.New(catalog.Config{
		Source:  cfg.Catalog.Source,
		Timeout: cfg.CatalogTimeout(),
	})
	if err != nil {
		return fmt.Errorf("invalid catalog config: %w", err)
	}

	element := audio.New(audio.Config{Tick: cfg.Tick()})
	defer element.Close()

	controller := playback.NewController(element, navigation.New(nil), playback.Config{
		RestartThreshold: cfg.Player.RestartThresholdSec,
		SeekStep:         cfg.Player.SeekStepSec,
		VolumeStep:       cfg.Player.VolumeStep,
		InitialVolume:    cfg.Player.InitialVolume,
	})

	sessionMgr := session.NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessionMgr.Run(ctx)

	model := player.New(player.Options{
		Controller:       controller,
		Events:           element.Events(),
		Loader:           loader,
		Session:          sessionMgr,
		Downloader:       download.New(cfg.Download.Dir),
		ConfirmDownloads: cfg.ConfirmDownloads(),
		ASCII:            cfg.ASCIIIcons(),
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	sessionMgr.Attach(player.CommandSender(program))

	var server *http.Server
	if cfg.Remote.Enabled {
		server, err = startRemote(cfg, sessionMgr)
		if err != nil {
			return err
		}
	}

	zlog.Info().Msgf("Starting player: catalog=%s", cfg.Catalog.Source)
	_, runErr := program.Run()

	// Stop session first to terminate active streams
	sessionMgr.Stop()
	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zlog.Error().Msgf("Failed to shutdown remote server: %v", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("display error: %w", runErr)
	}
	zlog.Info().Msg("Player stopped")
	return nil
}

// startRemote serves the remote control API over h2c.
func startRemote(cfg *config.Config, sessionMgr *session.Manager) (*http.Server, error) {
	remoteService := apiconnect.NewRemoteService(sessionMgr)
	path, handler := apiconnect.NewRemoteServiceHandler(
		remoteService,
		connect.WithInterceptors(apiconnect.NewRemoteAuthInterceptor(cfg.Remote.Token)),
	)

	mux := http.NewServeMux()
	mux.Handle(path, handler)

	// Listen up front so that a busy port is reported before the display starts
	ln, err := net.Listen("tcp", cfg.Remote.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Remote.Addr, err)
	}

	server := &http.Server{
		Addr:              cfg.Remote.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info().Msgf("Starting remote server: addr=%s", cfg.Remote.Addr)
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			zlog.Error().Msgf("Remote server error: %v", err)
		}
	}()
	return server, nil
}
