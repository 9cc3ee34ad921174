package display

import (
	"github.com/jmylchreest/stackalert/internal/config"
	"github.com/jmylchreest/stackalert/internal/model"
)

// Metrics holds the values the stack position formula depends on.
type Metrics struct {
	InsetTop        float64
	InsetBottom     float64 // Carried for hosts; the bottom formula measures from the container edge
	ItemHeight      float64
	TopSpacing      float64
	BottomSpacing   float64
	ContainerHeight float64
}

// Position returns the y coordinate of the alert at index in a stack of total alerts.
//
// Top stacks grow downwards from the top inset. Bottom stacks are laid out so
// that the last index sits closest to the bottom edge.
func Position(anchor model.Anchor, index, total int, m Metrics) float64 {
	if anchor == model.AnchorBottom {
		return m.ContainerHeight - m.ItemHeight - m.BottomSpacing -
			float64(total-1-index)*(m.ItemHeight+m.BottomSpacing)
	}
	return m.InsetTop + float64(index)*(m.ItemHeight+m.TopSpacing)
}

// Layout computes frames for a surface of known bounds.
type Layout struct {
	Metrics
	ContainerWidth float64
	SideMargin     float64
}

// NewLayout builds a Layout from the layout config and the surface bounds.
func NewLayout(cfg config.LayoutConfig, bounds Bounds) Layout {
	return Layout{
		Metrics: Metrics{
			InsetTop:        bounds.Insets.Top,
			InsetBottom:     bounds.Insets.Bottom,
			ItemHeight:      cfg.ItemHeight,
			TopSpacing:      cfg.TopSpacing,
			BottomSpacing:   cfg.BottomSpacing,
			ContainerHeight: bounds.Height,
		},
		ContainerWidth: bounds.Width,
		SideMargin:     cfg.SideMargin,
	}
}

// EntryFrame returns the off-screen frame an alert is mounted at.
func (l Layout) EntryFrame(anchor model.Anchor) Frame {
	y := -l.ItemHeight
	if anchor == model.AnchorBottom {
		y = l.ContainerHeight
	}
	return l.frameAt(y)
}

// ExitFrame returns the off-screen frame a dismissed alert animates to.
func (l Layout) ExitFrame(anchor model.Anchor) Frame {
	return l.EntryFrame(anchor)
}

// SlotFrame returns the on-screen frame for index in a stack of total alerts.
func (l Layout) SlotFrame(anchor model.Anchor, index, total int) Frame {
	return l.frameAt(Position(anchor, index, total, l.Metrics))
}

func (l Layout) frameAt(y float64) Frame {
	return Frame{
		X:      l.SideMargin,
		Y:      y,
		Width:  max(l.ContainerWidth-2*l.SideMargin, 0),
		Height: l.ItemHeight,
	}
}
