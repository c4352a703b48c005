package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/habitr/internal/clock"
	"github.com/sadopc/habitr/internal/habit"
	"github.com/sadopc/habitr/internal/phase"
	"github.com/sadopc/habitr/internal/session"
)

var (
	breathePreset       string
	breatheCycles       int
	breathePhaseSeconds int
)

// breatheCmd runs one session without the interactive UI.
var breatheCmd = &cobra.Command{
	Use:   "breathe",
	Short: "Run a breathing session in plain text",
	Long: `Run one breathing session and print each phase as it starts.

Without flags the exercise saved in settings is used. Ctrl-C cancels the
session; a completed session marks the Breathe habit done for today.`,
	Args: cobra.NoArgs,
	RunE: runBreathe,
}

func init() {
	breatheCmd.Flags().StringVarP(&breathePreset, "preset", "p", "",
		"exercise preset ("+strings.Join(phase.PresetNames(), ", ")+")")
	breatheCmd.Flags().IntVarP(&breatheCycles, "cycles", "c", 0, "number of cycles")
	breatheCmd.Flags().IntVar(&breathePhaseSeconds, "phase-seconds", 0, "seconds per phase")
}

func runBreathe(cmd *cobra.Command, args []string) error {
	fallback, err := cfg.Phase()
	if err != nil {
		return err
	}
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	exercise := s.BreathingConfig(fallback)
	if breathePreset != "" {
		if exercise, err = phase.Preset(breathePreset); err != nil {
			return err
		}
	}
	if breatheCycles > 0 {
		exercise.Cycles = breatheCycles
	}
	if breathePhaseSeconds > 0 {
		exercise.Length = time.Duration(breathePhaseSeconds) * time.Second
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := clock.NewLoop(64)
	clk := clock.NewReal(loop)
	runner := session.NewRunner(clk,
		session.WithTick(cfg.Timer.Tick),
		session.WithLogger(logger.Named("session")),
		session.WithRecorder(s),
	)
	trk, deb, err := openHabits(ctx, clk, s)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pr := &phasePrinter{out: out, cycles: exercise.Cycles, last: -1}
	var (
		startErr error
		done     bool
	)
	loop.Post(func() {
		_, startErr = runner.Start(exercise, session.Callbacks{
			OnTick: pr.print,
			OnComplete: func() {
				done = true
				if err := trk.MarkDone(habit.BreatheID, clk.Now()); err != nil {
					logger.Warn("failed to mark breathe habit", zap.Error(err))
				}
				loop.Stop()
			},
		})
		if startErr != nil {
			loop.Stop()
			return
		}
		fmt.Fprintf(out, "%s: %s, %ds per phase, %d cycles (%s)\n",
			exercise.Name, strings.Join(exercise.Phases, " / "),
			int(exercise.Length/time.Second), exercise.Cycles, formatClock(exercise.Total()))
	})

	runErr := loop.Run(ctx)
	// The loop has stopped, so the runner and the debouncer are ours now.
	var elapsed time.Duration
	if info, ok := runner.Info(); ok {
		elapsed = info.Elapsed
	}
	runner.Close()
	deb.Close()

	if startErr != nil {
		return startErr
	}
	fmt.Fprintln(out)
	switch {
	case done:
		fmt.Fprintf(out, "Session complete. Breathe streak: %d days\n",
			trk.Streak(habit.BreatheID, clk.Now()))
	case errors.Is(runErr, context.Canceled):
		fmt.Fprintf(out, "Session cancelled at %s\n", formatClock(elapsed))
	case runErr != nil:
		return runErr
	}
	return nil
}

// phasePrinter writes the phase name when it changes and the countdown
// each second.
type phasePrinter struct {
	out       io.Writer
	cycles    int
	last      int
	lastCycle int
	count     int
}

func (p *phasePrinter) print(st phase.State) {
	if st.PhaseIndex != p.last || st.Cycle != p.lastCycle {
		p.last, p.lastCycle = st.PhaseIndex, st.Cycle
		fmt.Fprintf(p.out, "\n[%d/%d] %-8s", st.Cycle+1, p.cycles, st.PhaseName)
		p.count = 0
	}
	if st.Countdown != p.count {
		p.count = st.Countdown
		fmt.Fprintf(p.out, " %d", st.Countdown)
	}
}

func formatClock(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
