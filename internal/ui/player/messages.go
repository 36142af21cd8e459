package player

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/osa030/vinylbox/internal/app/media"
	"github.com/osa030/vinylbox/internal/app/playback"
	"github.com/osa030/vinylbox/internal/app/session"
	"github.com/osa030/vinylbox/internal/domain/playlist"
	"github.com/osa030/vinylbox/internal/domain/track"
	"github.com/osa030/vinylbox/internal/infra/download"
)

const frameInterval = 200 * time.Millisecond

// CatalogLoadedMsg carries the result of the catalog load.
type CatalogLoadedMsg struct {
	Playlist *playlist.Playlist
	Err      error
}

// MediaEventMsg wraps a media element event.
type MediaEventMsg struct {
	Event media.Event
}

// RemoteCommandMsg is a command posted by a remote client.
type RemoteCommandMsg struct {
	Command playback.Command
}

// FrameMsg advances the vinyl animation.
type FrameMsg time.Time

// DownloadDoneMsg reports a finished download.
type DownloadDoneMsg struct {
	Track  track.Track
	Result download.Result
	Err    error
}

// CommandSender returns a session.Sender posting commands into p.
func CommandSender(p *tea.Program) session.Sender {
	return func(cmd playback.Command) {
		p.Send(RemoteCommandMsg{Command: cmd})
	}
}

func loadCatalogCmd(loader Loader) tea.Cmd {
	return func() tea.Msg {
		p, err := loader.Load(context.Background())
		return CatalogLoadedMsg{Playlist: p, Err: err}
	}
}

// waitForMedia blocks until the element emits its next event.
func waitForMedia(events <-chan media.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return MediaEventMsg{Event: ev}
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

func downloadCmd(d *download.Downloader, t track.Track) tea.Cmd {
	return func() tea.Msg {
		res, err := d.Download(context.Background(), t)
		return DownloadDoneMsg{Track: t, Result: res, Err: err}
	}
}
