package display

import (
	"sync"
	"time"
)

// Surface operations recorded by RecordingSurface.
const (
	OpMount   = "mount"
	OpAnimate = "animate"
	OpUnmount = "unmount"
)

// Command is one recorded surface call. An animation transaction records
// one command per move, all sharing the same Txn number.
type Command struct {
	Seq      int           `json:"seq" yaml:"seq"`
	At       time.Duration `json:"at" yaml:"at"`
	Op       string        `json:"op" yaml:"op"`
	Txn      int           `json:"txn,omitempty" yaml:"txn,omitempty"`
	Message  string        `json:"message" yaml:"message"`
	Frame    Frame         `json:"frame" yaml:"frame"`
	Alpha    float64       `json:"alpha" yaml:"alpha"`
	Curve    string        `json:"curve,omitempty" yaml:"curve,omitempty"`
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// RecordingSurface is a headless Surface with fixed bounds that records
// every command it receives. Animations complete after their duration.
type RecordingSurface struct {
	loop   *Loop
	bounds Bounds
	start  time.Time

	mu       sync.Mutex
	commands []Command
	mounted  map[View]bool
	txn      int
}

// NewRecordingSurface creates a recording surface that completes animations on loop.
func NewRecordingSurface(loop *Loop, bounds Bounds) *RecordingSurface {
	return &RecordingSurface{
		loop:    loop,
		bounds:  bounds,
		start:   time.Now(),
		mounted: make(map[View]bool),
	}
}

// Bounds implements Surface.
func (s *RecordingSurface) Bounds() Bounds {
	return s.bounds
}

// Mount implements Surface.
func (s *RecordingSurface) Mount(v View, frame Frame, alpha float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mounted[v] = true
	s.recordLocked(Command{Op: OpMount, Message: v.Message(), Frame: frame, Alpha: alpha})
}

// Animate implements Surface.
func (s *RecordingSurface) Animate(moves []Move, anim Animation, done func()) {
	s.mu.Lock()
	s.txn++
	txn := s.txn
	for _, mv := range moves {
		s.recordLocked(Command{
			Op:       OpAnimate,
			Txn:      txn,
			Message:  mv.View.Message(),
			Frame:    mv.Frame,
			Alpha:    mv.Alpha,
			Curve:    anim.Curve.String(),
			Duration: anim.Duration,
		})
	}
	s.mu.Unlock()

	if done != nil {
		s.loop.AfterFunc(anim.Duration, done)
	}
}

// Unmount implements Surface.
func (s *RecordingSurface) Unmount(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.mounted, v)
	s.recordLocked(Command{Op: OpUnmount, Message: v.Message()})
}

// recordLocked appends a command. Caller must hold the lock.
func (s *RecordingSurface) recordLocked(cmd Command) {
	cmd.Seq = len(s.commands) + 1
	cmd.At = time.Since(s.start).Round(time.Millisecond)
	s.commands = append(s.commands, cmd)
}

// Commands returns a copy of the recorded commands.
func (s *RecordingSurface) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// Transactions returns the number of Animate calls received.
func (s *RecordingSurface) Transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txn
}

// MountedCount returns how many views are currently attached.
func (s *RecordingSurface) MountedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mounted)
}
