package tui

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jmylchreest/stackalert/internal/config"
	"github.com/jmylchreest/stackalert/internal/display"
)

// Alpha below which a sprite is not drawn, and below which it is drawn faint.
const (
	hiddenAlpha = 0.05
	faintAlpha  = 0.5
)

// sprite is a mounted view and its animation state.
type sprite struct {
	view  display.View
	style lipgloss.Style

	frame display.Frame
	alpha float64

	// Current animation
	animating bool
	curve     display.Curve
	start     time.Time
	duration  time.Duration
	fromFrame display.Frame
	fromAlpha float64
	toFrame   display.Frame
	toAlpha   float64
	spring    harmonica.Spring
	velY      float64
	velX      float64
	velAlpha  float64
}

// Surface is a display.Surface drawn into a terminal.
// Surface units are mapped to cells by the configured cell size.
//
// The Manager issues commands from the loop goroutine while bubbletea
// steps and renders from its own goroutine, so all state is behind mu.
type Surface struct {
	loop *display.Loop
	fps  int

	mu      sync.Mutex
	cfg     config.TUIConfig
	cols    int
	rows    int
	sprites map[display.View]*sprite
	order   []display.View
}

// NewSurface creates a terminal surface. Completions are posted to loop.
func NewSurface(loop *display.Loop, cfg *config.Config) *Surface {
	return &Surface{
		loop:    loop,
		fps:     cfg.Animation.FPS,
		cfg:     cfg.TUI,
		sprites: make(map[display.View]*sprite),
	}
}

// SetConfig applies new cell sizes, safe areas and frame rate.
// Running springs keep the frame rate they started with.
func (s *Surface) SetConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.TUI
	s.fps = cfg.Animation.FPS
}

// Resize sets the size of the drawable area in cells.
func (s *Surface) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cols = max(cols, 0)
	s.rows = max(rows, 0)
}

// Bounds implements display.Surface.
func (s *Surface) Bounds() display.Bounds {
	s.mu.Lock()
	defer s.mu.Unlock()

	return display.Bounds{
		Width:  float64(s.cols) * s.cfg.CellWidth,
		Height: float64(s.rows) * s.cfg.CellHeight,
		Insets: display.Insets{
			Top:    float64(s.cfg.SafeAreaTop) * s.cfg.CellHeight,
			Bottom: float64(s.cfg.SafeAreaBottom) * s.cfg.CellHeight,
		},
	}
}

// Mount implements display.Surface.
func (s *Surface) Mount(v display.View, frame display.Frame, alpha float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp := &sprite{view: v, frame: frame, alpha: alpha}
	if av, ok := v.(*AlertView); ok {
		sp.style = av.Style()
	}
	if _, exists := s.sprites[v]; !exists {
		s.order = append(s.order, v)
	}
	s.sprites[v] = sp
}

// Animate implements display.Surface. A move on a view that is already
// animating re-targets it from its current position.
func (s *Surface) Animate(moves []display.Move, anim display.Animation, done func()) {
	now := time.Now()

	s.mu.Lock()
	fps := s.fps
	for _, mv := range moves {
		sp, ok := s.sprites[mv.View]
		if !ok {
			continue
		}
		sp.animating = true
		sp.curve = anim.Curve
		sp.start = now
		sp.duration = anim.Duration
		sp.fromFrame = sp.frame
		sp.fromAlpha = sp.alpha
		sp.toFrame = mv.Frame
		sp.toAlpha = mv.Alpha
		if anim.Curve == display.CurveSpring {
			sp.spring = harmonica.NewSpring(harmonica.FPS(fps), angularFrequency(anim.Duration), anim.Damping)
		}
		if anim.Duration <= 0 {
			sp.settle()
		}
	}
	s.mu.Unlock()

	if done != nil {
		s.loop.AfterFunc(anim.Duration, done)
	}
}

// Unmount implements display.Surface.
func (s *Surface) Unmount(v display.View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sprites, v)
	for i, ov := range s.order {
		if ov == v {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Animating reports whether any sprite is still moving.
func (s *Surface) Animating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sp := range s.sprites {
		if sp.animating {
			return true
		}
	}
	return false
}

// Len returns the number of mounted views.
func (s *Surface) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sprites)
}

// Step advances every animation to now. Call it once per frame.
func (s *Surface) Step(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sp := range s.sprites {
		sp.step(now)
	}
}

// step advances one sprite. Springs snap to their target once the duration has elapsed.
func (sp *sprite) step(now time.Time) {
	if !sp.animating {
		return
	}

	elapsed := now.Sub(sp.start)
	if elapsed >= sp.duration {
		sp.settle()
		return
	}

	switch sp.curve {
	case display.CurveSpring:
		sp.frame.X, sp.velX = sp.spring.Update(sp.frame.X, sp.velX, sp.toFrame.X)
		sp.frame.Y, sp.velY = sp.spring.Update(sp.frame.Y, sp.velY, sp.toFrame.Y)
		sp.alpha, sp.velAlpha = sp.spring.Update(sp.alpha, sp.velAlpha, sp.toAlpha)
		sp.frame.Width = sp.toFrame.Width
		sp.frame.Height = sp.toFrame.Height
	default:
		t := smoothstep(float64(elapsed) / float64(sp.duration))
		sp.frame = display.Frame{
			X:      lerp(sp.fromFrame.X, sp.toFrame.X, t),
			Y:      lerp(sp.fromFrame.Y, sp.toFrame.Y, t),
			Width:  lerp(sp.fromFrame.Width, sp.toFrame.Width, t),
			Height: lerp(sp.fromFrame.Height, sp.toFrame.Height, t),
		}
		sp.alpha = lerp(sp.fromAlpha, sp.toAlpha, t)
	}
	sp.alpha = min(max(sp.alpha, 0), 1)
}

func (sp *sprite) settle() {
	sp.frame = sp.toFrame
	sp.alpha = sp.toAlpha
	sp.velX, sp.velY, sp.velAlpha = 0, 0, 0
	sp.animating = false
}

// angularFrequency picks a spring speed that settles within d.
func angularFrequency(d time.Duration) float64 {
	if d <= 0 {
		return 1
	}
	return 2 * math.Pi / d.Seconds()
}

func smoothstep(t float64) float64 {
	t = min(max(t, 0), 1)
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// cell is one terminal cell of the composited canvas.
// A zero rune marks the second column of a wide rune.
type cell struct {
	r     rune
	style int // Index into the style table, 0 = unstyled
}

// put writes cl at grid[r][c], blanking any wide rune it splits.
func put(grid [][]cell, r, c int, cl cell) {
	row := grid[r]
	if cl.r != 0 && row[c].r == 0 && c > 0 {
		row[c-1].r = ' '
	}
	if c+1 < len(row) && row[c+1].r == 0 {
		row[c+1].r = ' '
	}
	row[c] = cl
}

// Render draws the sprites over background and returns exactly rows lines of cols cells.
// The background must be plain text.
func (s *Surface) Render(background string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cols == 0 || s.rows == 0 {
		return ""
	}

	grid := make([][]cell, s.rows)
	bgLines := strings.Split(background, "\n")
	for r := range grid {
		grid[r] = make([]cell, s.cols)
		var line []rune
		if r < len(bgLines) {
			line = []rune(bgLines[r])
		}
		for c := range grid[r] {
			grid[r][c].r = ' '
			if c < len(line) {
				grid[r][c].r = line[c]
			}
		}
	}

	styles := []lipgloss.Style{lipgloss.NewStyle()}
	for _, v := range s.order {
		sp := s.sprites[v]
		if sp.alpha < hiddenAlpha {
			continue
		}
		style := sp.style
		if sp.alpha < faintAlpha {
			style = style.Faint(true)
		}
		styles = append(styles, style)
		s.drawSprite(grid, sp, len(styles)-1)
	}

	lines := make([]string, s.rows)
	for r, row := range grid {
		var b strings.Builder
		for c := 0; c < len(row); {
			end := c
			for end < len(row) && row[end].style == row[c].style {
				end++
			}
			run := make([]rune, 0, end-c)
			for _, cl := range row[c:end] {
				if cl.r != 0 {
					run = append(run, cl.r)
				}
			}
			if row[c].style == 0 {
				b.WriteString(string(run))
			} else {
				b.WriteString(styles[row[c].style].Render(string(run)))
			}
			c = end
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}

// drawSprite writes a bordered box for sp into grid.
func (s *Surface) drawSprite(grid [][]cell, sp *sprite, style int) {
	col := int(math.Round(sp.frame.X / s.cfg.CellWidth))
	row := int(math.Round(sp.frame.Y / s.cfg.CellHeight))
	width := int(math.Round(sp.frame.Width / s.cfg.CellWidth))
	height := max(int(math.Round(sp.frame.Height/s.cfg.CellHeight)), 1)
	if width < 4 {
		return
	}

	text := textCells(sp.view.Message(), width-4)
	textRow := height / 2

	for dy := range height {
		r := row + dy
		if r < 0 || r >= len(grid) {
			continue
		}

		line := boxLine(dy, height, width, textRow, text)
		for dx, ch := range line {
			c := col + dx
			if c < 0 || c >= len(grid[r]) {
				continue
			}
			// Wide runes cut by the canvas edge
			if ch == 0 && c == 0 {
				ch = ' '
			} else if c+1 == len(grid[r]) && ansi.StringWidth(string(ch)) > 1 {
				ch = ' '
			}
			put(grid, r, c, cell{r: ch, style: style})
		}
	}
}

// textCells lays message out on one line, at most width columns wide.
// Wide runes take two cells, the second holding a zero rune.
func textCells(message string, width int) []rune {
	message = strings.Join(strings.Fields(message), " ")
	message = ansi.Truncate(message, width, "…")

	cells := make([]rune, 0, width)
	for _, r := range message {
		w := ansi.StringWidth(string(r))
		if w == 0 {
			continue
		}
		if len(cells)+w > width {
			break
		}
		cells = append(cells, r)
		if w > 1 {
			cells = append(cells, 0)
		}
	}
	return cells
}

// boxLine returns row dy of a width-wide box with rounded corners.
// Boxes shorter than three rows have no horizontal borders.
func boxLine(dy, height, width int, textRow int, text []rune) []rune {
	line := make([]rune, width)
	bordered := height >= 3

	switch {
	case bordered && dy == 0:
		fillBorder(line, '╭', '─', '╮')
	case bordered && dy == height-1:
		fillBorder(line, '╰', '─', '╯')
	default:
		fillBorder(line, '│', ' ', '│')
		if dy == textRow {
			copy(line[2:width-2], text)
		}
	}
	return line
}

func fillBorder(line []rune, left, fill, right rune) {
	for i := range line {
		line[i] = fill
	}
	line[0] = left
	line[len(line)-1] = right
}
