package player

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/sahilm/fuzzy"

	"github.com/osa030/vinylbox/internal/app/catalog"
	"github.com/osa030/vinylbox/internal/app/session/state"
	"github.com/osa030/vinylbox/internal/app/transport"
	"github.com/osa030/vinylbox/internal/domain/track"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	m.followActive()
	m.publish()
	return m, cmd
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return nil

	case CatalogLoadedMsg:
		m.handleCatalog(msg)
		return nil

	case MediaEventMsg:
		m.ctrl.HandleMediaEvent(msg.Event)
		return waitForMedia(m.events)

	case RemoteCommandMsg:
		if err := m.ctrl.Apply(msg.Command); err != nil {
			zlog.Warn().Err(err).Msgf("player: remote command failed: %s", msg.Command.Kind)
		}
		return nil

	case DownloadDoneMsg:
		if msg.Err != nil {
			zlog.Error().Err(msg.Err).Msgf("player: download failed: %s", msg.Track.Name)
			m.setStatus(fmt.Sprintf("Download failed: %v", msg.Err), true)
			return nil
		}
		m.setStatus(fmt.Sprintf("Saved %s (%s)", msg.Result.Path, msg.Result.Size()), false)
		return nil

	case FrameMsg:
		if m.ctrl.State().Playing {
			m.frame++
		}
		return frameCmd()

	case spinner.TickMsg:
		if m.session.State().GetPhase() != state.PhaseLoading {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return nil
	}

	// Cursor blink and similar internal messages
	if m.filter.Focused() {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleCatalog(msg CatalogLoadedMsg) {
	st := m.session.State()
	if msg.Err != nil {
		message := msg.Err.Error()
		var le *catalog.LoadError
		if errors.As(msg.Err, &le) {
			message = le.Message
		}
		zlog.Error().Err(msg.Err).Msg("player: failed to load catalog")
		m.loadErr = message
		st.SetFailed(message)
		return
	}

	m.ctrl.SetPlaylist(msg.Playlist)
	st.SetLoaded(msg.Playlist.Len())
	m.cursor, m.offset, m.lastActive = 0, 0, -1
	if msg.Playlist.IsEmpty() {
		zlog.Info().Msg("player: catalog is empty")
		return
	}
	if err := m.ctrl.Prime(); err != nil {
		zlog.Error().Err(err).Msg("player: failed to load first track")
	}
	zlog.Info().Msgf("player: catalog loaded: %d tracks", msg.Playlist.Len())
}

// reload fetches the catalog again after a failed or empty load.
func (m *Model) reload() tea.Cmd {
	st := m.session.State()
	if phase := st.GetPhase(); phase != state.PhaseFailed && phase != state.PhaseEmpty {
		return nil
	}
	m.loadErr = ""
	st.SetLoading(m.loader.Source())
	zlog.Info().Msgf("player: reloading catalog from %s", m.loader.Source())
	return tea.Batch(loadCatalogCmd(m.loader), m.spinner.Tick)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if m.pending != nil {
		return m.handleConfirmKey(msg)
	}
	if m.sync.Key(transport.KeyPress{Key: msg.String(), TextInputFocused: m.filter.Focused()}) {
		return nil
	}
	if m.filter.Focused() {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.logErr("next", m.ctrl.Next())
	case key.Matches(msg, m.keys.Prev):
		m.logErr("previous", m.ctrl.Previous())
	case key.Matches(msg, m.keys.Shuffle):
		m.ctrl.ToggleShuffle()
	case key.Matches(msg, m.keys.Repeat):
		m.ctrl.CycleRepeat()
	case key.Matches(msg, m.keys.Mute):
		m.ctrl.ToggleMute()
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.PlayRow):
		m.playCursor()
	case key.Matches(msg, m.keys.Download):
		return m.requestDownload()
	case key.Matches(msg, m.keys.Reload):
		return m.reload()
	case key.Matches(msg, m.keys.Filter):
		if m.ctrl.Playlist().IsEmpty() {
			return nil
		}
		m.filter.SetValue("")
		m.applyFilter()
		return m.filter.Focus()
	}
	return nil
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeFilter()
		return nil
	case tea.KeyEnter:
		m.playCursor()
		m.closeFilter()
		return nil
	case tea.KeyUp:
		m.moveCursor(-1)
		return nil
	case tea.KeyDown:
		m.moveCursor(1)
		return nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return cmd
}

// applyFilter recomputes the listed tracks from the filter text.
func (m *Model) applyFilter() {
	m.cursor, m.offset = 0, 0
	query := m.filter.Value()
	if query == "" {
		m.matches = nil
		return
	}
	found := fuzzy.Find(query, m.ctrl.Playlist().Names())
	m.matches = make([]int, len(found))
	for i, match := range found {
		m.matches[i] = match.Index
	}
}

func (m *Model) closeFilter() {
	m.filter.Blur()
	m.filter.SetValue("")
	m.matches = nil
	m.lastActive = -1 // re-follow the current track
	m.cursor, m.offset = 0, 0
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		t := *m.pending
		m.pending = nil
		return m.startDownload(t)
	case "n", "N", "esc":
		m.pending = nil
	}
	return nil
}

func (m *Model) requestDownload() tea.Cmd {
	if m.downloader == nil {
		return nil
	}
	idx, ok := m.cursorIndex()
	if !ok {
		return nil
	}
	t, _ := m.ctrl.Playlist().At(idx)
	if m.confirm {
		m.pending = &t
		return nil
	}
	return m.startDownload(t)
}

func (m *Model) startDownload(t track.Track) tea.Cmd {
	m.setStatus(fmt.Sprintf("Downloading %s...", t.FileName()), false)
	return downloadCmd(m.downloader, t)
}

func (m *Model) playCursor() {
	idx, ok := m.cursorIndex()
	if !ok {
		return
	}
	m.logErr("play", m.ctrl.Play(idx))
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.pending != nil {
		return
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		m.sync.Pointer(transport.Pointer{Action: transport.PointerMove, X: msg.X})
		return
	case tea.MouseActionRelease:
		m.sync.Pointer(transport.Pointer{Action: transport.PointerUp, X: msg.X})
		return
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.moveCursor(-1)
		return
	case tea.MouseButtonWheelDown:
		m.moveCursor(1)
		return
	case tea.MouseButtonLeft:
	default:
		return
	}

	if target := m.sync.HitTest(msg.X, msg.Y); target != transport.TargetNone {
		m.sync.Pointer(transport.Pointer{Action: transport.PointerDown, Target: target, X: msg.X})
		return
	}

	switch {
	case m.layout.onMuteIcon(msg.X, msg.Y):
		m.ctrl.ToggleMute()
	case msg.Y == rowButtons:
		if b, ok := buttonAt(m.buttons(), msg.X); ok {
			m.press(b.action)
		}
	default:
		if row := m.layout.listRow(msg.Y); row >= 0 {
			pos := m.offset + row
			if pos < len(m.items()) {
				m.cursor = pos
				m.playCursor()
			}
		}
	}
}

func (m *Model) press(action buttonAction) {
	switch action {
	case actionShuffle:
		m.ctrl.ToggleShuffle()
	case actionPrev:
		m.logErr("previous", m.ctrl.Previous())
	case actionToggle:
		m.logErr("toggle", m.ctrl.TogglePlay())
	case actionNext:
		m.logErr("next", m.ctrl.Next())
	case actionRepeat:
		m.ctrl.CycleRepeat()
	}
}

func (m *Model) logErr(op string, err error) {
	if err != nil {
		zlog.Debug().Err(err).Msgf("player: %s ignored", op)
	}
}
