package display

import "time"

// Bounds is the drawable area of a surface, in surface units.
type Bounds struct {
	Width  float64
	Height float64
	Insets Insets
}

// Insets are the safe-area margins of a surface.
type Insets struct {
	Top    float64
	Bottom float64
}

// Frame is a rectangle in surface units.
type Frame struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Curve selects the timing function of an animation.
type Curve int

const (
	// CurveEase eases in and out over the duration.
	CurveEase Curve = iota
	// CurveSpring follows a damped spring that settles at the duration.
	CurveSpring
)

// String returns the string representation of Curve.
func (c Curve) String() string {
	switch c {
	case CurveEase:
		return "ease"
	case CurveSpring:
		return "spring"
	default:
		return "unknown"
	}
}

// Animation describes the timing of one animation transaction.
type Animation struct {
	Duration time.Duration
	Curve    Curve
	Damping  float64 // Only used by CurveSpring
}

// Move is one view's target within an animation transaction.
type Move struct {
	View  View
	Frame Frame
	Alpha float64
}

// View is the rendered content of one alert.
type View interface {
	Message() string
}

// ViewFactory builds views for alert messages.
type ViewFactory interface {
	NewView(message string) View
}

// Surface is the host that displays alert views.
// The Manager calls it only from the loop goroutine.
type Surface interface {
	// Bounds returns the current drawable area.
	Bounds() Bounds
	// Mount attaches v at frame with the given alpha.
	Mount(v View, frame Frame, alpha float64)
	// Animate moves every view to its target in one transaction.
	// done is called exactly once, on the loop, when the transaction ends.
	Animate(moves []Move, anim Animation, done func())
	// Unmount detaches v.
	Unmount(v View)
}

// TextView is a View holding only its message.
type TextView struct {
	message string
}

// Message returns the alert text.
func (v *TextView) Message() string {
	return v.message
}

// TextViewFactory creates TextViews.
type TextViewFactory struct{}

// NewView implements ViewFactory.
func (TextViewFactory) NewView(message string) View {
	return &TextView{message: message}
}
