// Package model defines the core data structures for stackalert.
package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultDuration is how long an alert stays on screen when no duration is given.
const DefaultDuration = 3 * time.Second

// Anchor is the screen edge an alert enters from and stacks against.
type Anchor int

const (
	AnchorTop Anchor = iota
	AnchorBottom
)

// String returns the string representation of Anchor.
func (a Anchor) String() string {
	switch a {
	case AnchorTop:
		return "top"
	case AnchorBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler for config and trace output.
func (a Anchor) MarshalText() ([]byte, error) {
	if a != AnchorTop && a != AnchorBottom {
		return nil, ErrInvalidAnchor
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Anchor) UnmarshalText(text []byte) error {
	parsed, err := ParseAnchor(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAnchor parses "top" or "bottom" (case-insensitive).
func ParseAnchor(s string) (Anchor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top":
		return AnchorTop, nil
	case "bottom":
		return AnchorBottom, nil
	default:
		return AnchorTop, fmt.Errorf("%w: %q", ErrInvalidAnchor, s)
	}
}

// State is the lifecycle stage of an alert.
type State int32

const (
	// StatePending means the alert was constructed but not yet attached to a surface.
	StatePending State = iota
	// StateMounted means the alert is attached off-screen with alpha 0.
	StateMounted
	// StateVisible means the alert has been animated into its stack slot.
	StateVisible
	// StateDismissing means the alert left the stack and is animating out.
	StateDismissing
	// StateRemoved means the alert is detached. Terminal.
	StateRemoved
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateMounted:
		return "mounted"
	case StateVisible:
		return "visible"
	case StateDismissing:
		return "dismissing"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// CloseReason says why an alert left the stack.
type CloseReason int

const (
	// CloseReasonExpired means the auto-dismiss timer fired.
	CloseReasonExpired CloseReason = iota + 1
	// CloseReasonEvicted means a newer alert needed the slot.
	CloseReasonEvicted
	// CloseReasonDismissed means the alert was dismissed explicitly.
	CloseReasonDismissed
	// CloseReasonClosed means every alert was closed at once.
	CloseReasonClosed
)

// String returns the string representation of CloseReason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonEvicted:
		return "evicted"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Validation errors.
var (
	ErrInvalidAnchor     = errors.New("anchor must be top or bottom")
	ErrInvalidTransition = errors.New("invalid alert state transition")
)

// transitions lists the legal successor states.
var transitions = map[State][]State{
	StatePending:    {StateMounted, StateDismissing},
	StateMounted:    {StateVisible, StateDismissing},
	StateVisible:    {StateDismissing},
	StateDismissing: {StateRemoved},
}

// Alert is a single transient notification.
// Identity is the pointer: two alerts with the same message are different alerts.
type Alert struct {
	ID        string // ULID, for logs and traces only
	Message   string
	Anchor    Anchor
	Duration  time.Duration
	CreatedAt time.Time

	state     atomic.Int32
	removedAt atomic.Int64
}

// NewAlert creates a pending alert. A non-positive duration selects DefaultDuration.
func NewAlert(message string, duration time.Duration, anchor Anchor) *Alert {
	if duration <= 0 {
		duration = DefaultDuration
	}
	now := time.Now()

	a := &Alert{
		Message:   message,
		Anchor:    anchor,
		Duration:  duration,
		CreatedAt: now,
	}
	if id, err := ulid.New(ulid.Timestamp(now), rand.Reader); err == nil {
		a.ID = id.String()
	}
	return a
}

// State returns the current lifecycle state.
func (a *Alert) State() State {
	return State(a.state.Load())
}

// Transition moves the alert to the given state.
// Returns ErrInvalidTransition if the move is not allowed from the current state.
func (a *Alert) Transition(to State) error {
	from := a.State()
	for _, next := range transitions[from] {
		if next != to {
			continue
		}
		if !a.state.CompareAndSwap(int32(from), int32(to)) {
			return fmt.Errorf("%w: state changed concurrently from %s", ErrInvalidTransition, from)
		}
		if to == StateRemoved {
			a.removedAt.Store(time.Now().UnixNano())
		}
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// IsRemoved reports whether the alert reached its terminal state.
func (a *Alert) IsRemoved() bool {
	return a.State() == StateRemoved
}

// RemovedAt returns when the alert was detached, or the zero time.
func (a *Alert) RemovedAt() time.Time {
	ns := a.removedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// MessageTruncated returns the message on one line, truncated to maxLen runes.
// If the message is longer, it is truncated and "..." is appended.
func (a *Alert) MessageTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	// Collapse whitespace and newlines to single spaces
	runes := []rune(strings.Join(strings.Fields(a.Message), " "))
	if len(runes) <= maxLen {
		return string(runes)
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
