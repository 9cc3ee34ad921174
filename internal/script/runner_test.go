package script

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/stackalert/internal/config"
	"github.com/jmylchreest/stackalert/internal/display"
)

func newRunner(t *testing.T) (*Runner, *display.RecordingSurface) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Animation.Duration = config.Duration(5 * time.Millisecond)

	loop := display.NewLoop(nil)
	loop.Start(context.Background())
	t.Cleanup(loop.Stop)

	surface := display.NewRecordingSurface(loop, display.Bounds{Width: 390, Height: 844})
	manager := display.NewManager(loop, surface, nil, cfg, nil)
	return NewRunner(manager, nil), surface
}

func TestRunner_Run(t *testing.T) {
	r, surface := newRunner(t)

	s, err := Parse(strings.NewReader(`
steps:
  - action: show
    message: A
    anchor: top
    duration: 50ms
  - action: show
    message: B
    anchor: top
    duration: 1m
  - action: show
    message: C
    anchor: bottom
    duration: 1m
  - action: show
    message: D
    anchor: top
    duration: 1m
  - action: wait
    duration: 30ms
  - action: dismiss-front
  - action: close-all
`))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results, err := r.Run(ctx, s)
	require.NoError(t, err)
	require.Len(t, results, 4)

	reasons := make(map[string]string)
	for _, res := range results {
		assert.Equal(t, "removed", res.State)
		assert.NotEmpty(t, res.ID)
		reasons[res.Message] = res.Reason
	}

	// D arrives from the top with a full stack [B, A, C] and evicts C from the back
	assert.Equal(t, "evicted", reasons["C"])
	// D is at the front when dismiss-front runs
	assert.Equal(t, "dismissed", reasons["D"])
	assert.Equal(t, "closed", reasons["B"])

	assert.NotEmpty(t, surface.Commands())
	assert.Equal(t, 0, surface.MountedCount())
}

func TestRunner_ContextCancelled(t *testing.T) {
	r, _ := newRunner(t)

	s, err := Parse(strings.NewReader("steps:\n  - action: show\n    message: A\n    duration: 1m\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	results, err := r.Run(ctx, s)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, results, 1)
	assert.NotEqual(t, "removed", results[0].State)
}
