package tui

import (
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/stackalert/internal/display"
)

// Alert border colors, cycled per view.
var alertPalette = []lipgloss.Color{"12", "10", "13", "14", "11"}

// AlertView is the terminal rendition of one alert.
type AlertView struct {
	message string
	style   lipgloss.Style
}

// Message implements display.View.
func (v *AlertView) Message() string {
	return v.message
}

// Style returns the style the view is drawn with.
func (v *AlertView) Style() lipgloss.Style {
	return v.style
}

// ViewFactory creates AlertViews, rotating through the palette.
type ViewFactory struct {
	next atomic.Uint32
}

// NewViewFactory creates a view factory.
func NewViewFactory() *ViewFactory {
	return &ViewFactory{}
}

// NewView implements display.ViewFactory.
func (f *ViewFactory) NewView(message string) display.View {
	n := f.next.Add(1) - 1
	color := alertPalette[int(n)%len(alertPalette)]
	return &AlertView{
		message: message,
		style:   lipgloss.NewStyle().Foreground(color).Bold(true),
	}
}
