package player

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/osa030/vinylbox/internal/app/playback"
	"github.com/osa030/vinylbox/internal/app/session/state"
	"github.com/osa030/vinylbox/internal/app/timefmt"
	"github.com/osa030/vinylbox/internal/app/transport"
)

// View implements tea.Model.
func (m Model) View() string {
	w, h := m.layout.width, m.layout.height
	if w <= 0 || h <= 0 {
		return ""
	}

	lines := make([]string, h)
	set := func(row int, s string) {
		if row >= 0 && row < h {
			lines[row] = ansi.Truncate(s, w, "…")
		}
	}
	pad := strings.Repeat(" ", margin)

	set(rowHeader, pad+m.headerView())
	set(rowTitle, pad+m.titleView())
	set(rowPosition, pad+m.positionView())
	set(rowProgress, pad+m.progressView())
	set(rowButtons, pad+m.buttonsView())
	set(rowVolume, pad+m.volumeView())
	if m.filter.Focused() {
		set(rowFilter, pad+m.filter.View())
	}
	for i, row := range m.listView() {
		set(listTop+i, row)
	}

	footer := h - footerRows
	if footer > listTop {
		set(footer, pad+m.statusView())
		set(footer+1, pad+m.help.View(m.keys))
		set(footer+2, pad+footerStyle.Render(fmt.Sprintf("© %d vinylbox", m.now().Year())))
	}

	view := strings.Join(lines, "\n")
	if m.pending != nil {
		view = m.overlay(view)
	}
	return view
}

func (m Model) headerView() string {
	s := headerStyle.Render("vinylbox")
	if m.session.State().GetPhase() == state.PhaseReady {
		s += "  " + countStyle.Render(m.ctrl.Playlist().CountLabel())
	}
	return s
}

func (m Model) titleView() string {
	snap := m.ctrl.Snapshot()
	if snap.TrackCount == 0 {
		return ""
	}
	disc := m.icons.vinyl[0]
	if snap.Playing {
		disc = m.icons.vinyl[m.frame%len(m.icons.vinyl)]
	}
	np := transport.NowPlaying(snap.TrackName, snap.Index, snap.TrackCount)
	return activeButton.Render(disc) + " " + titleStyle.Render(np.Title)
}

func (m Model) positionView() string {
	snap := m.ctrl.Snapshot()
	np := transport.NowPlaying(snap.TrackName, snap.Index, snap.TrackCount)
	return "  " + subtitleStyle.Render(np.Position)
}

func (m Model) progressView() string {
	pv := transport.Progress(m.ctrl.CurrentTime(), m.ctrl.Duration())
	bar := m.bar(pv.Percent/100, m.layout.progress.Width)
	return timeStyle.Render(fmt.Sprintf("%*s", timeWidth, pv.Elapsed)) + " " + bar + " " +
		timeStyle.Render(fmt.Sprintf("%-*s", timeWidth, pv.Total))
}

// buttons returns the transport buttons for the current state.
func (m Model) buttons() []button {
	st := m.ctrl.State()
	toggle := m.icons.play
	if st.Playing {
		toggle = m.icons.pause
	}
	return placeButtons([]button{
		{action: actionShuffle, label: m.icons.shuffle + " " + transport.ShuffleLabel(st.Shuffle), active: st.Shuffle},
		{action: actionPrev, label: m.icons.prev},
		{action: actionToggle, label: toggle, active: st.Playing},
		{action: actionNext, label: m.icons.next},
		{action: actionRepeat, label: m.icons.repeat + " " + transport.RepeatLabel(st.Repeat), active: st.Repeat != playback.RepeatOff},
	})
}

func (m Model) buttonsView() string {
	var b strings.Builder
	for i, btn := range m.buttons() {
		if i > 0 {
			b.WriteString(strings.Repeat(" ", buttonGap))
		}
		style := buttonStyle
		if btn.active {
			style = activeButton
		}
		b.WriteString(style.Render(btn.label))
	}
	return b.String()
}

func (m Model) volumeView() string {
	vv := transport.Volume(m.ctrl.State().Volume)
	icon := lipgloss.NewStyle().Width(iconWidth).Render(m.icons.volume[vv.Icon])
	return icon + " " + m.bar(vv.Fill, m.layout.volume.Width) + " " + timeStyle.Render(vv.Label)
}

func (m Model) bar(fraction float64, width int) string {
	filled := transport.Cells(fraction, width)
	return filledStyle.Render(strings.Repeat(m.icons.filled, filled)) +
		emptyStyle.Render(strings.Repeat(m.icons.empty, width-filled))
}

// listView renders the playlist area, or the loading, empty and failed states.
func (m Model) listView() []string {
	pad := strings.Repeat(" ", margin)
	switch m.session.State().GetPhase() {
	case state.PhaseLoading:
		return []string{pad + m.spinner.View() + " " + subtitleStyle.Render("Loading catalog...")}
	case state.PhaseFailed:
		return []string{
			pad + errorStyle.Render(m.loadErr),
			pad + subtitleStyle.Render("Press ctrl+r to try again."),
		}
	case state.PhaseEmpty:
		return []string{pad + subtitleStyle.Render("No tracks available.")}
	}

	items := m.items()
	if len(items) == 0 {
		return []string{pad + subtitleStyle.Render("No matching tracks.")}
	}

	active := m.ctrl.State().CurrentIndex
	now := m.now()
	end := min(m.offset+m.layout.listHeight, len(items))
	rows := make([]string, 0, end-m.offset)
	for pos := m.offset; pos < end; pos++ {
		idx := items[pos]
		t, _ := m.ctrl.Playlist().At(idx)
		rows = append(rows, m.rowView(idx, t.Name, timefmt.TimeAgoFrom(t.Date, now), idx == active, pos == m.cursor))
	}
	return rows
}

func (m Model) rowView(idx int, name, ago string, active, cursor bool) string {
	marker := " "
	style := rowStyle
	if active {
		marker = m.icons.active
		style = activeRowStyle
	}

	inner := max(m.layout.width-2*margin, 10)
	num := fmt.Sprintf("%s %02d  ", marker, idx+1)
	dateWidth := ansi.StringWidth(ago)
	nameWidth := max(inner-ansi.StringWidth(num)-dateWidth-2, 4)
	name = ansi.Truncate(name, nameWidth, "…")
	gap := strings.Repeat(" ", max(nameWidth-ansi.StringWidth(name), 0)+2)

	row := style.Render(num+name) + gap + dateStyle.Render(ago)
	if cursor {
		row = cursorRowStyle.Width(inner).Render(row)
	}
	return strings.Repeat(" ", margin) + row
}

func (m Model) statusView() string {
	if m.status == "" {
		return ""
	}
	if m.isError {
		return errorStyle.Render(m.status)
	}
	return statusStyle.Render(m.status)
}

// overlay draws the download confirmation in the middle of the screen.
func (m Model) overlay(base string) string {
	title := popupTitleStyle.Render("Download")
	msg := fmt.Sprintf("Download track %q?", m.pending.FileName())
	hint := popupHintStyle.Render("y/enter: download, n/esc: cancel")
	box := popupStyle.Render(title + "\n\n" + msg + "\n\n" + hint)

	w, h := m.layout.width, m.layout.height
	boxLines := strings.Split(box, "\n")
	top := max((h-len(boxLines))/2, 0)
	left := max((w-lipgloss.Width(box))/2, 0)

	lines := strings.Split(base, "\n")
	for i, bl := range boxLines {
		row := top + i
		if row >= len(lines) {
			break
		}
		line := lines[row]
		if gap := w - ansi.StringWidth(line); gap > 0 {
			line += strings.Repeat(" ", gap)
		}
		right := left + ansi.StringWidth(bl)
		lines[row] = ansi.Cut(line, 0, left) + bl + ansi.Cut(line, right, w)
	}
	return strings.Join(lines, "\n")
}
