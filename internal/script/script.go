// Package script loads and replays alert scripts against a display manager.
package script

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/stackalert/internal/config"
	"github.com/jmylchreest/stackalert/internal/model"
)

// Action is the kind of a script step.
type Action string

const (
	ActionShow         Action = "show"
	ActionDismissFront Action = "dismiss-front"
	ActionDismissBack  Action = "dismiss-back"
	ActionCloseAll     Action = "close-all"
	ActionWait         Action = "wait"
)

// ErrInvalidScript is returned for scripts that fail validation.
var ErrInvalidScript = errors.New("invalid script")

// Step is one scripted operation.
type Step struct {
	Action   Action          `yaml:"action"`
	Message  string          `yaml:"message,omitempty"`
	Anchor   model.Anchor    `yaml:"anchor,omitempty"`
	Duration config.Duration `yaml:"duration,omitempty"` // Alert duration for show, pause for wait
}

// Script is a sequence of steps.
type Script struct {
	Name  string `yaml:"name,omitempty"`
	Steps []Step `yaml:"steps"`
}

// Load reads a script from a YAML file.
func Load(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes and validates a YAML script.
func Parse(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty script", ErrInvalidScript)
		}
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScript)
	}

	for i, step := range s.Steps {
		switch step.Action {
		case ActionShow:
			if step.Message == "" {
				return fmt.Errorf("%w: step %d: show needs a message", ErrInvalidScript, i+1)
			}
			if step.Duration < 0 {
				return fmt.Errorf("%w: step %d: duration must not be negative", ErrInvalidScript, i+1)
			}
		case ActionWait:
			if step.Duration.Duration() <= 0 {
				return fmt.Errorf("%w: step %d: wait needs a positive duration", ErrInvalidScript, i+1)
			}
		case ActionDismissFront, ActionDismissBack, ActionCloseAll:
		default:
			return fmt.Errorf("%w: step %d: unknown action %q", ErrInvalidScript, i+1, step.Action)
		}
	}
	return nil
}

// Length returns the total scripted wait time.
func (s *Script) Length() time.Duration {
	var total time.Duration
	for _, step := range s.Steps {
		if step.Action == ActionWait {
			total += step.Duration.Duration()
		}
	}
	return total
}
