package phase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = 100 * time.Millisecond

func ms(n int64) time.Duration { return time.Duration(n) * time.Millisecond }

func TestDeriveBoxBreathing(t *testing.T) {
	cfg := Box
	require.Equal(t, ms(128000), cfg.Total())

	s := Derive(0, cfg)
	assert.Equal(t, 0, s.PhaseIndex)
	assert.Equal(t, "Inhale", s.PhaseName)
	assert.Zero(t, s.Progress)
	assert.Equal(t, 4, s.Countdown)
	assert.Equal(t, 0, s.Cycle)
	assert.False(t, s.Done)

	s = Derive(ms(3999), cfg)
	assert.Equal(t, 0, s.PhaseIndex)
	assert.Equal(t, 1, s.Countdown)

	s = Derive(ms(4000), cfg)
	assert.Equal(t, 1, s.PhaseIndex)
	assert.Equal(t, "Hold", s.PhaseName)
	assert.Zero(t, s.Progress)
	assert.Equal(t, 4, s.Countdown)

	s = Derive(ms(127999), cfg)
	assert.Equal(t, 7, s.Cycle)
	assert.Equal(t, 3, s.PhaseIndex)
	assert.Equal(t, "Hold", s.PhaseName)
	assert.InDelta(t, 0.9998, s.Progress, 0.0001)
	assert.False(t, s.Done)
}

func TestDeriveAtTotalClampsCycle(t *testing.T) {
	s := Derive(Box.Total(), Box)
	assert.True(t, s.Done)
	assert.Equal(t, Box.Cycles-1, s.Cycle)
	assert.Equal(t, 0, s.PhaseIndex)

	s = Derive(Box.Total()+time.Hour, Box)
	assert.Equal(t, Box.Cycles-1, s.Cycle)
}

func TestDeriveMatchesDirectComputation(t *testing.T) {
	for _, cfg := range []Config{Box, Equal, Triangle} {
		cycleMs := cfg.CycleLength().Milliseconds()
		phaseMs := cfg.Length.Milliseconds()
		for e := int64(0); e < cfg.Total().Milliseconds(); e += 7 {
			s := Derive(ms(e), cfg)
			want := int((e % cycleMs) / phaseMs)
			if s.PhaseIndex != want {
				t.Fatalf("%s: elapsed %d: phase %d, want %d", cfg.Name, e, s.PhaseIndex, want)
			}
		}
	}
}

func TestDeriveCountdownBounds(t *testing.T) {
	maxSecs := int(Box.Length / time.Second)
	for e := int64(0); e <= Box.Total().Milliseconds()+1000; e++ {
		s := Derive(ms(e), Box)
		if s.Countdown < 1 || s.Countdown > maxSecs {
			t.Fatalf("elapsed %d: countdown %d out of [1, %d]", e, s.Countdown, maxSecs)
		}
		if s.Progress < 0 || s.Progress >= 1 {
			t.Fatalf("elapsed %d: progress %v out of [0, 1)", e, s.Progress)
		}
	}
}

func TestDeriveIsRestartable(t *testing.T) {
	final := ms(77300)
	direct := Derive(final, Box)

	var last State
	for e := time.Duration(0); e <= final; e += tick {
		last = Derive(e, Box)
	}
	assert.Equal(t, direct, last)
	assert.Equal(t, direct, Derive(final, Box))
}

func TestDeriveNegativeElapsed(t *testing.T) {
	assert.Equal(t, Derive(0, Box), Derive(-time.Second, Box))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"box", Box, true},
		{"no phases", Config{Length: time.Second, Cycles: 1}, false},
		{"blank phase", Config{Phases: []string{"In", " "}, Length: time.Second, Cycles: 1}, false},
		{"zero length", Config{Phases: []string{"In"}, Cycles: 1}, false},
		{"negative length", Config{Phases: []string{"In"}, Length: -time.Second, Cycles: 1}, false},
		{"fractional seconds", Config{Phases: []string{"In"}, Length: 1500 * time.Millisecond, Cycles: 1}, false},
		{"zero cycles", Config{Phases: []string{"In"}, Length: time.Second}, false},
		{"negative cycles", Config{Phases: []string{"In"}, Length: time.Second, Cycles: -2}, false},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate(tick)
		if tt.ok {
			assert.NoError(t, err, tt.name)
			continue
		}
		assert.True(t, errors.Is(err, ErrInvalidConfig), "%s: %v", tt.name, err)
	}
}

func TestValidateTickMultiple(t *testing.T) {
	assert.ErrorIs(t, Box.Validate(3*time.Second), ErrInvalidConfig)
	assert.ErrorIs(t, Box.Validate(0), ErrInvalidConfig)
	assert.NoError(t, Box.Validate(time.Second))
}

func TestPreset(t *testing.T) {
	p, err := Preset(" BOX ")
	require.NoError(t, err)
	assert.Equal(t, Box.Phases, p.Phases)

	p.Phases[0] = "changed"
	assert.Equal(t, "Inhale", Box.Phases[0])

	_, err = Preset("nope")
	assert.Error(t, err)
	assert.Equal(t, []string{"box", "equal", "triangle"}, PresetNames())
}
