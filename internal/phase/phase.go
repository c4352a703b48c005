// Package phase derives the displayed state of a timed breathing session.
//
// Everything here is a pure function of the elapsed time and the Config:
// nothing is stored or accumulated, so rendering can restart at any elapsed
// value and produce identical output.
package phase

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConfig is wrapped by every Config validation failure.
var ErrInvalidConfig = errors.New("invalid phase config")

// Config is an ordered list of equally long phases repeated for Cycles.
type Config struct {
	Name   string        `yaml:"name" json:"name"`
	Phases []string      `yaml:"phases" json:"phases"`
	Length time.Duration `yaml:"length" json:"length"`
	Cycles int           `yaml:"cycles" json:"cycles"`
}

// State is the derived view of a session at one elapsed value.
type State struct {
	Elapsed    time.Duration
	PhaseIndex int
	PhaseName  string
	// Progress through the current phase, in [0, 1).
	Progress float64
	// Countdown is the whole seconds left in the phase, never below 1.
	Countdown int
	// Cycle is zero based and never exceeds Cycles-1.
	Cycle int
	Done  bool
}

// CycleLength is the duration of one pass over all phases.
func (c Config) CycleLength() time.Duration {
	return c.Length * time.Duration(len(c.Phases))
}

// Total is the terminal elapsed value of a session.
func (c Config) Total() time.Duration {
	return c.CycleLength() * time.Duration(c.Cycles)
}

// Validate checks the config against a tick period. Phase lengths must be
// whole seconds so the countdown, which counts whole seconds, never exceeds
// Length/time.Second; a 2.5s phase would show 3 at its start. They must also
// be a multiple of the tick so every phase and the session end exactly on a
// tick.
func (c Config) Validate(tick time.Duration) error {
	if len(c.Phases) == 0 {
		return fmt.Errorf("%w: no phases", ErrInvalidConfig)
	}
	for i, name := range c.Phases {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: phase %d has no name", ErrInvalidConfig, i)
		}
	}
	if c.Length <= 0 {
		return fmt.Errorf("%w: phase length %v must be positive", ErrInvalidConfig, c.Length)
	}
	if c.Length%time.Second != 0 {
		return fmt.Errorf("%w: phase length %v is not whole seconds", ErrInvalidConfig, c.Length)
	}
	if c.Cycles <= 0 {
		return fmt.Errorf("%w: cycles %d must be positive", ErrInvalidConfig, c.Cycles)
	}
	if tick <= 0 {
		return fmt.Errorf("%w: tick %v must be positive", ErrInvalidConfig, tick)
	}
	if c.Length%tick != 0 {
		return fmt.Errorf("%w: phase length %v is not a multiple of tick %v", ErrInvalidConfig, c.Length, tick)
	}
	return nil
}

// Derive maps an elapsed value to the session state. cfg must be valid.
func Derive(elapsed time.Duration, cfg Config) State {
	if elapsed < 0 {
		elapsed = 0
	}
	cycleLen := cfg.CycleLength()

	cyclePos := elapsed % cycleLen
	idx := int(cyclePos / cfg.Length)
	inPhase := cyclePos % cfg.Length

	remaining := cfg.Length - inPhase
	countdown := int((remaining + time.Second - 1) / time.Second)
	if countdown < 1 {
		countdown = 1
	}

	cycle := int(elapsed / cycleLen)
	if cycle > cfg.Cycles-1 {
		cycle = cfg.Cycles - 1
	}

	return State{
		Elapsed:    elapsed,
		PhaseIndex: idx,
		PhaseName:  cfg.Phases[idx],
		Progress:   float64(inPhase) / float64(cfg.Length),
		Countdown:  countdown,
		Cycle:      cycle,
		Done:       elapsed >= cfg.Total(),
	}
}
