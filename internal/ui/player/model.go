// Package player is the terminal display surface of vinylbox.
//
// It renders the player state and translates keyboard and mouse input into
// playback operations. All player state changes happen inside Update.
package player

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/osa030/vinylbox/internal/app/media"
	"github.com/osa030/vinylbox/internal/app/playback"
	"github.com/osa030/vinylbox/internal/app/session"
	"github.com/osa030/vinylbox/internal/app/transport"
	"github.com/osa030/vinylbox/internal/domain/playlist"
	"github.com/osa030/vinylbox/internal/domain/track"
	"github.com/osa030/vinylbox/internal/infra/download"
)

// Loader loads the catalog.
type Loader interface {
	Source() string
	Load(ctx context.Context) (*playlist.Playlist, error)
}

// Options configures the display.
type Options struct {
	Controller       *playback.Controller
	Events           <-chan media.Event
	Loader           Loader
	Session          *session.Manager
	Downloader       *download.Downloader // nil disables downloads
	ConfirmDownloads bool
	ASCII            bool
	Now              func() time.Time
}

// Model is the bubbletea model of the player screen.
type Model struct {
	ctrl       *playback.Controller
	sync       *transport.Sync
	events     <-chan media.Event
	loader     Loader
	session    *session.Manager
	downloader *download.Downloader
	confirm    bool
	now        func() time.Time

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	filter  textinput.Model
	icons   iconSet

	layout  layout
	loadErr string
	status  string
	isError bool

	cursor     int   // position in visible items
	offset     int   // first visible item
	matches    []int // filtered playlist indexes, nil when not filtering
	lastActive int
	frame      int

	pending *track.Track // awaiting download confirmation
}

// New creates the player screen.
func New(opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Session == nil {
		opts.Session = session.NewManager()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = subtitleStyle

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter tracks"
	ti.CharLimit = 64

	icons := unicodeIcons
	if opts.ASCII {
		icons = asciiIcons
		sp.Spinner = spinner.Line
	}

	m := Model{
		ctrl:       opts.Controller,
		sync:       transport.NewSync(opts.Controller),
		events:     opts.Events,
		loader:     opts.Loader,
		session:    opts.Session,
		downloader: opts.Downloader,
		confirm:    opts.ConfirmDownloads,
		now:        opts.Now,
		keys:       defaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
		filter:     ti,
		icons:      icons,
		lastActive: -1,
	}
	m.session.State().SetLoading(opts.Loader.Source())
	m.resize(80, 24)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadCatalogCmd(m.loader),
		waitForMedia(m.events),
		m.spinner.Tick,
		frameCmd(),
	)
}

func (m *Model) resize(width, height int) {
	m.layout = computeLayout(width, height)
	m.sync.SetLayout(m.layout.progress, m.layout.volume)
	m.help.Width = max(width-2*margin, 0)
	m.filter.Width = max(width-2*margin-4, 1)
	m.ensureVisible()
}

// items returns the playlist indexes currently listed.
func (m *Model) items() []int {
	if m.matches != nil {
		return m.matches
	}
	n := m.ctrl.Playlist().Len()
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	return all
}

// cursorIndex returns the playlist index under the cursor.
func (m *Model) cursorIndex() (int, bool) {
	items := m.items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return 0, false
	}
	return items[m.cursor], true
}

func (m *Model) moveCursor(delta int) {
	n := len(m.items())
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = max(0, min(n-1, m.cursor+delta))
	m.ensureVisible()
}

// ensureVisible scrolls so that the cursor row is on screen.
func (m *Model) ensureVisible() {
	h := m.layout.listHeight
	n := len(m.items())
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(0, min(m.offset, max(n-h, 0)))
}

// followActive moves the cursor onto the current track when it changes.
func (m *Model) followActive() {
	if m.ctrl.Playlist().IsEmpty() {
		return
	}
	active := m.ctrl.State().CurrentIndex
	if active == m.lastActive {
		return
	}
	m.lastActive = active
	for pos, idx := range m.items() {
		if idx == active {
			m.cursor = pos
			m.ensureVisible()
			return
		}
	}
}

func (m *Model) setStatus(msg string, isError bool) {
	m.status = msg
	m.isError = isError
}

func (m *Model) publish() {
	m.session.Publish(m.ctrl.Snapshot())
}
