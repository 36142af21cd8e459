package player

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/osa030/vinylbox/internal/app/transport"
)

var (
	accent = lipgloss.Color("212")
	muted  = lipgloss.Color("240")
	text   = lipgloss.Color("252")

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	countStyle    = lipgloss.NewStyle().Foreground(muted)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(text)
	subtitleStyle = lipgloss.NewStyle().Foreground(muted)
	timeStyle     = lipgloss.NewStyle().Foreground(muted)
	filledStyle   = lipgloss.NewStyle().Foreground(accent)
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	buttonStyle   = lipgloss.NewStyle().Foreground(text)
	activeButton  = lipgloss.NewStyle().Bold(true).Foreground(accent)

	rowStyle       = lipgloss.NewStyle().Foreground(text)
	activeRowStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	cursorRowStyle = lipgloss.NewStyle().Background(lipgloss.Color("236"))
	dateStyle      = lipgloss.NewStyle().Foreground(muted)

	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	footerStyle = lipgloss.NewStyle().Foreground(muted)

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)
	popupTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	popupHintStyle  = lipgloss.NewStyle().Foreground(muted)
)

// iconSet holds the glyphs used by the display.
type iconSet struct {
	play, pause, prev, next string
	shuffle, repeat         string
	active                  string
	volume                  map[transport.VolumeIcon]string
	vinyl                   []string
	filled, empty           string
}

var unicodeIcons = iconSet{
	play:    "▶",
	pause:   "⏸",
	prev:    "⏮",
	next:    "⏭",
	shuffle: "⤮",
	repeat:  "⟳",
	active:  "♪",
	volume: map[transport.VolumeIcon]string{
		transport.IconMuted: "🔇",
		transport.IconLow:   "🔉",
		transport.IconFull:  "🔊",
	},
	vinyl:  []string{"◐", "◓", "◑", "◒"},
	filled: "▓",
	empty:  "░",
}

var asciiIcons = iconSet{
	play:    ">",
	pause:   "||",
	prev:    "|<",
	next:    ">|",
	shuffle: "~",
	repeat:  "@",
	active:  "*",
	volume: map[transport.VolumeIcon]string{
		transport.IconMuted: "x",
		transport.IconLow:   "-",
		transport.IconFull:  "+",
	},
	vinyl:  []string{"|", "/", "-", "\\"},
	filled: "#",
	empty:  ".",
}
