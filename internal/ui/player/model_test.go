package player

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/vinylbox/internal/app/catalog"
	"github.com/osa030/vinylbox/internal/app/media"
	"github.com/osa030/vinylbox/internal/app/navigation"
	"github.com/osa030/vinylbox/internal/app/playback"
	"github.com/osa030/vinylbox/internal/app/session"
	"github.com/osa030/vinylbox/internal/app/session/state"
	"github.com/osa030/vinylbox/internal/domain/playlist"
	"github.com/osa030/vinylbox/internal/domain/track"
	"github.com/osa030/vinylbox/internal/infra/download"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type stubLoader struct {
	playlist *playlist.Playlist
	err      error
}

func (s stubLoader) Source() string { return "songs.json" }

func (s stubLoader) Load(context.Context) (*playlist.Playlist, error) {
	return s.playlist, s.err
}

func makePlaylist(n int) *playlist.Playlist {
	tracks := make([]track.Track, n)
	for i := range tracks {
		name := string(rune('A' + i))
		tracks[i] = track.Track{Name: name, URL: "song" + name + ".mp3"}
	}
	return playlist.New("songs.json", tracks)
}

type harness struct {
	model   Model
	element *media.Mock
	session *session.Manager
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	el := media.NewMock()
	sess := session.NewManager()
	opts.Controller = playback.NewController(el, navigation.New(nil), playback.DefaultConfig())
	opts.Session = sess
	opts.Now = func() time.Time { return testNow }
	if opts.Loader == nil {
		opts.Loader = stubLoader{playlist: makePlaylist(5)}
	}

	h := &harness{model: New(opts), element: el, session: sess}
	h.send(tea.WindowSizeMsg{Width: 80, Height: 30})
	return h
}

// ready loads the catalog through the model.
func (h *harness) ready(t *testing.T, n int) {
	t.Helper()
	h.send(CatalogLoadedMsg{Playlist: makePlaylist(n)})
	h.pump()
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	m, cmd := h.model.Update(msg)
	h.model = m.(Model)
	return cmd
}

// pump delivers pending element events.
func (h *harness) pump() {
	for _, ev := range h.element.Drain() {
		h.send(MediaEventMsg{Event: ev})
	}
}

func (h *harness) key(k string) tea.Cmd {
	var cmd tea.Cmd
	switch k {
	case "space":
		cmd = h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	case "left":
		cmd = h.send(tea.KeyMsg{Type: tea.KeyLeft})
	case "right":
		cmd = h.send(tea.KeyMsg{Type: tea.KeyRight})
	case "up":
		cmd = h.send(tea.KeyMsg{Type: tea.KeyUp})
	case "down":
		cmd = h.send(tea.KeyMsg{Type: tea.KeyDown})
	case "enter":
		cmd = h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		cmd = h.send(tea.KeyMsg{Type: tea.KeyEsc})
	default:
		cmd = h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
	h.pump()
	return cmd
}

func (h *harness) mouse(action tea.MouseAction, x, y int) {
	h.send(tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft})
	h.pump()
}

func (h *harness) state() playback.State {
	return h.model.ctrl.State()
}

func TestModel_LoadingState(t *testing.T) {
	h := newHarness(t, Options{})

	assert.Equal(t, state.PhaseLoading, h.session.State().GetPhase())
	assert.Contains(t, h.model.View(), "Loading catalog...")
	assert.NotNil(t, h.model.Init())
}

func TestModel_CatalogLoadedPrimesFirstTrack(t *testing.T) {
	h := newHarness(t, Options{})
	h.ready(t, 5)

	assert.Equal(t, state.PhaseReady, h.session.State().GetPhase())
	assert.Equal(t, []string{"songA.mp3"}, h.element.Sources())
	assert.False(t, h.state().Playing)
	assert.Equal(t, 0, h.element.PlayCalls())

	view := h.model.View()
	assert.Contains(t, view, "5 tracks")
	assert.Contains(t, view, "Track 1 of 5")
	assert.Contains(t, view, "© 2026 vinylbox")
	assert.Contains(t, view, "Shuffle Off")
	assert.Contains(t, view, "Repeat Off")
	assert.Contains(t, view, "70%")
}

func TestModel_CatalogFailure(t *testing.T) {
	h := newHarness(t, Options{Loader: stubLoader{err: &catalog.LoadError{Source: "songs.json", Message: "catalog server is unreachable"}}})
	h.send(CatalogLoadedMsg{Err: &catalog.LoadError{Source: "songs.json", Message: "catalog server is unreachable"}})

	assert.Equal(t, state.PhaseFailed, h.session.State().GetPhase())
	assert.Equal(t, "catalog server is unreachable", h.session.State().Info().Failure)
	assert.Contains(t, h.model.View(), "catalog server is unreachable")

	// Playback commands are inert
	h.key("space")
	assert.False(t, h.state().Playing)

	// ctrl+r starts a new load
	cmd := h.send(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	assert.Equal(t, state.PhaseLoading, h.session.State().GetPhase())
}

func TestModel_EmptyCatalog(t *testing.T) {
	h := newHarness(t, Options{})
	h.ready(t, 0)

	assert.Equal(t, state.PhaseEmpty, h.session.State().GetPhase())
	assert.Contains(t, h.model.View(), "No tracks available.")
	assert.Empty(t, h.element.Sources())
}

func TestModel_ReloadIgnoredWhenReady(t *testing.T) {
	h := newHarness(t, Options{})
	h.ready(t, 3)

	assert.Nil(t, h.send(tea.KeyMsg{Type: tea.KeyCtrlR}))
	assert.Equal(t, state.PhaseReady, h.session.State().GetPhase())
}

func TestModel_TransportKeys(t *testing.T) {
	h := newHarness(t, Options{})
	h.ready(t, 3)
	h.element.SetDuration(100)

	h.key("space")
	assert.True(t, h.state().Playing)
	assert.Equal(t, 1, h.element.PlayCalls())

	h.key("right")
	assert.Equal(t, 5.0, h.element.CurrentTime())
	h.key("left")
	h.key("left")
	assert.Equal(t, 0.0, h.element.CurrentTime())

	h.key("down")
	assert.InDelta(t, 0.6, h.state().Volume, 1e-9)
	h.key("up")
	assert.InDelta(t, 0.7, h.state().Volume, 1e-9)

	h.key("space")
	assert.False(t, h.state().Playing)
}

func TestModel_PlayerKeys(t *testing.T) {
	h := newHarness(t, Options{})
	h.ready(t, 3)

	h.key("n")
	assert.Equal(t, 1, h.state().CurrentIndex)
	assert.True(t, h.state().Playing)

	h.key("p")
	assert.Equal(t, 0, h.state().CurrentIndex)

	h.key("s")
	assert.True(t, h.state().Shuffle)
	assert.Contains(t, h.model.View(), "Shuffle On")

	h.key("r")
	h.key("r")
	assert.Equal(t, playback.RepeatOne, h.state().Repeat)
	assert.Contains(t, h.model.View(), "Repeat One")

	h.key("m")
	assert.Equal(t, 0.0, h.state().Volume)
	h.key("m")
	assert.InDelta(t, 0.7, h.state().Volume, 1e-9)

	h.key("j")
	h.key("j")
	h.key("enter")
	assert.Equal(t, 2, h.state().CurrentIndex)

	assert.Equal(t, tea.Quit(), h.key("q")())
}

func TestModel_FilterCapturesKeys(t *testing.T) {
	h := newHarness(t, Options{})
	h.send(CatalogLoadedMsg{Playlist: playlist.New("", []track.Track{
		{Name: "Morning Light", URL: "a.mp3"},
		{Name: "Night Drive", URL: "b.mp3"},
		{Name: "Midnight Sun", URL: "c.mp3"},
	})})
	h.pump()

	h.key("/")
	require.True(t, h.model.filter.Focused())

	// Shortcuts go to the text input while it has focus
	h.key("space")
	h.key("n")
	assert.False(t, h.state().Playing)
	assert.Equal(t, 0, h.state().CurrentIndex)
	assert.Equal(t, " n", h.model.filter.Value())

	h.model.filter.SetValue("night")
	h.model.applyFilter()
	require.NotEmpty(t, h.model.matches)

	h.key("enter")
	assert.False(t, h.model.filter.Focused())
	assert.Nil(t, h.model.matches)
	assert.True(t, h.state().Playing)
	assert.Contains(t, []int{1, 2}, h.state().CurrentIndex)
}

func TestModel_FilterEscRestoresList(t *testing.T) {
	h := newHarness(t, Options{})
	h.ready(t, 4)

	h.key("/")
	h.key("z")
	h.key("esc")

	assert.False(t, h.model.filter.Focused())
	assert.Len(t, h.model.items(), 4)
}

func TestModel_ProgressDrag(t *testing.T) {
	h := newHarness(t, Options{})
	h.ready(t, 3)
	h.element.SetDuration(122)

	bar := h.model.layout.progress
	require.Equal(t, 9, bar.X)
	require.Equal(t, 62, bar.Width)

	h.mouse(tea.MouseActionPress, bar.X+30, rowProgress)
	assert.True(t, h.state().DraggingProgress)
	assert.InDelta(t, 60, h.element.CurrentTime(), 1e-9)

	// Motion keeps seeking even off the bar
	h.mouse(tea.MouseActionMotion, bar.X+bar.Width-1, rowProgress+4)
	assert.InDelta(t, 122, h.element.CurrentTime(), 1e-9)

	h.mouse(tea.MouseActionRelease, 0, 0)
	assert.False(t, h.state().DraggingProgress)

	h.mouse(tea.MouseActionMotion, bar.X, rowProgress)
	assert.InDelta(t, 122, h.element.CurrentTime(), 1e-9, "motion after release is ignored")
}

func TestModel_VolumeDragAndMute(t *testing.T) {
	h := newHarness(t, Options{})
	h.ready(t, 3)

	bar := h.model.layout.volume
	h.mouse(tea.MouseActionPress, bar.X+bar.Width-1, rowVolume)
	assert.Equal(t, 1.0, h.state().Volume)
	h.mouse(tea.MouseActionMotion, bar.X-5, rowVolume)
	assert.Equal(t, 0.0, h.state().Volume)
	h.mouse(tea.MouseActionRelease, bar.X, rowVolume)
	assert.False(t, h.state().DraggingVolume)

	h.mouse(tea.MouseActionPress, bar.X+bar.Width/2, rowVolume)
	h.mouse(tea.MouseActionRelease, 0, 0)
	before := h.state().Volume

	h.mouse(tea.MouseActionPress, margin, rowVolume)
	assert.Equal(t, 0.0, h.state().Volume)
	h.mouse(tea.MouseActionPress, margin, rowVolume)
	assert.InDelta(t, before, h.state().Volume, 1e-9)
}

func TestModel_ClickButtonsAndRows(t *testing.T) {
	h := newHarness(t, Options{})
	h.ready(t, 5)

	click := func(action buttonAction) {
		for _, b := range h.model.buttons() {
			if b.action == action {
				h.mouse(tea.MouseActionPress, b.x, rowButtons)
				return
			}
		}
		t.Fatalf("no button for action %d", action)
	}

	click(actionToggle)
	assert.True(t, h.state().Playing)

	click(actionNext)
	assert.Equal(t, 1, h.state().CurrentIndex)

	click(actionShuffle)
	assert.True(t, h.state().Shuffle)

	click(actionRepeat)
	assert.Equal(t, playback.RepeatAll, h.state().Repeat)

	click(actionPrev)
	assert.NotEqual(t, 1, h.state().CurrentIndex, "shuffle previous never repeats the current track")

	h.mouse(tea.MouseActionPress, 20, listTop+3)
	assert.Equal(t, 3, h.state().CurrentIndex)
	assert.Equal(t, 3, h.model.cursor)
}

func TestModel_TrackEndAdvancesAndFollows(t *testing.T) {
	h := newHarness(t, Options{})
	h.send(tea.WindowSizeMsg{Width: 80, Height: listTop + footerRows + 3})
	h.ready(t, 10)
	require.Equal(t, 3, h.model.layout.listHeight)

	h.send(RemoteCommandMsg{Command: playback.Command{Kind: playback.CommandPlay, Index: 5}})
	h.pump()
	assert.Equal(t, 5, h.model.cursor)
	assert.Equal(t, 3, h.model.offset)

	h.element.Finish()
	h.pump()
	assert.Equal(t, 6, h.state().CurrentIndex)
	assert.True(t, h.state().Playing)
	assert.Equal(t, 6, h.model.cursor)
	assert.Equal(t, 4, h.model.offset)
}

func TestModel_PublishesSnapshots(t *testing.T) {
	h := newHarness(t, Options{})
	h.ready(t, 4)

	h.send(RemoteCommandMsg{Command: playback.Command{Kind: playback.CommandPlay, Index: 2}})
	h.pump()

	snap, ok := h.session.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 2, snap.Index)
	assert.Equal(t, "C", snap.TrackName)
	assert.True(t, snap.Playing)
}

func TestModel_DownloadWithConfirmation(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.mp3")
	require.NoError(t, os.WriteFile(src, []byte("audio"), 0o644))
	dir := t.TempDir()

	h := newHarness(t, Options{Downloader: download.New(dir), ConfirmDownloads: true})
	h.send(CatalogLoadedMsg{Playlist: playlist.New("", []track.Track{{Name: "Song", URL: src}})})
	h.pump()

	h.key("d")
	require.NotNil(t, h.model.pending)
	assert.Contains(t, h.model.View(), `Download track "Song.mp3"?`)

	// Transport is blocked while the popup is open
	h.key("space")
	assert.False(t, h.state().Playing)

	h.key("n")
	assert.Nil(t, h.model.pending)

	h.key("d")
	cmd := h.key("y")
	require.NotNil(t, cmd)
	assert.Contains(t, h.model.status, "Downloading Song.mp3")

	h.send(cmd())
	assert.Contains(t, h.model.status, "Saved "+filepath.Join(dir, "Song.mp3"))
	assert.Contains(t, h.model.status, "5 B")
	assert.False(t, h.model.isError)
}

func TestModel_DownloadWithoutConfirmation(t *testing.T) {
	h := newHarness(t, Options{Downloader: download.New(t.TempDir())})
	h.ready(t, 2)

	cmd := h.key("d")
	require.NotNil(t, cmd)
	assert.Nil(t, h.model.pending)

	h.send(DownloadDoneMsg{Track: track.Track{Name: "A"}, Err: fmt.Errorf("boom")})
	assert.True(t, h.model.isError)
	assert.Contains(t, h.model.View(), "Download failed: boom")
}

func TestModel_ASCIIIcons(t *testing.T) {
	h := newHarness(t, Options{ASCII: true})
	h.ready(t, 2)

	assert.Contains(t, h.model.View(), "~ Shuffle Off")
	assert.Contains(t, h.model.View(), "@ Repeat Off")
}

func TestModel_FrameAdvancesOnlyWhilePlaying(t *testing.T) {
	h := newHarness(t, Options{})
	h.ready(t, 2)

	h.send(FrameMsg(testNow))
	assert.Equal(t, 0, h.model.frame)

	h.key("space")
	h.send(FrameMsg(testNow))
	assert.Equal(t, 1, h.model.frame)
}
