package player

import (
	"github.com/charmbracelet/x/ansi"

	"github.com/osa030/vinylbox/internal/app/transport"
)

// Screen rows. The view renders exactly these rows so that mouse
// coordinates map back onto the controls.
const (
	rowHeader   = 0
	rowTitle    = 2
	rowPosition = 3
	rowProgress = 5
	rowButtons  = 6
	rowVolume   = 7
	rowFilter   = 9
	listTop     = 10

	footerRows = 3 // status, help, copyright

	margin       = 2
	timeWidth    = 6
	iconWidth    = 3
	labelWidth   = 5
	volumeMaxBar = 24
	buttonGap    = 3
)

// layout is the geometry of the current frame.
type layout struct {
	width      int
	height     int
	progress   transport.Bar
	volume     transport.Bar
	listHeight int
}

func computeLayout(width, height int) layout {
	barX := margin + timeWidth + 1
	progressWidth := max(width-barX-1-timeWidth-margin, 0)

	volumeX := margin + iconWidth + 1
	volumeWidth := min(max(width-volumeX-1-labelWidth-margin, 0), volumeMaxBar)

	return layout{
		width:      width,
		height:     height,
		progress:   transport.Bar{X: barX, Y: rowProgress, Width: progressWidth},
		volume:     transport.Bar{X: volumeX, Y: rowVolume, Width: volumeWidth},
		listHeight: max(height-listTop-footerRows, 1),
	}
}

// onMuteIcon reports whether (x, y) is on the speaker icon.
func (l layout) onMuteIcon(x, y int) bool {
	return y == rowVolume && x >= margin && x < margin+iconWidth
}

// listRow returns the visible playlist row under y, or -1.
func (l layout) listRow(y int) int {
	if y < listTop || y >= listTop+l.listHeight {
		return -1
	}
	return y - listTop
}

// buttonAction identifies a transport button.
type buttonAction int

const (
	actionShuffle buttonAction = iota
	actionPrev
	actionToggle
	actionNext
	actionRepeat
)

// button is a clickable label on the buttons row.
type button struct {
	action buttonAction
	label  string
	active bool
	x      int
	width  int
}

// placeButtons lays labels out left to right from the margin.
func placeButtons(buttons []button) []button {
	x := margin
	for i := range buttons {
		buttons[i].x = x
		buttons[i].width = ansi.StringWidth(buttons[i].label)
		x += buttons[i].width + buttonGap
	}
	return buttons
}

// buttonAt returns the button under column x.
func buttonAt(buttons []button, x int) (button, bool) {
	for _, b := range buttons {
		if x >= b.x && x < b.x+b.width {
			return b, true
		}
	}
	return button{}, false
}
