package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sadopc/habitr/internal/clock"
	"github.com/sadopc/habitr/internal/config"
	"github.com/sadopc/habitr/internal/habit"
	"github.com/sadopc/habitr/internal/logging"
	"github.com/sadopc/habitr/internal/persist"
	"github.com/sadopc/habitr/internal/session"
	"github.com/sadopc/habitr/internal/store"
	"github.com/sadopc/habitr/internal/tui"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "habitr",
	Short: "Guided breathing and daily habits in the terminal",
	Long: `habitr runs timed breathing exercises and tracks daily habits.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.DefaultPath(); err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
		}
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}

		level := cfg.Log.Level
		if verbose {
			level = zapcore.DebugLevel.String()
		}
		file := cfg.Log.File
		// The interactive UI owns the terminal, so it always logs to a file.
		if file == "" && cmd == cmd.Root() {
			if file, err = logging.DefaultFile(); err != nil {
				return fmt.Errorf("resolve log file: %w", err)
			}
		}
		if logger, err = logging.New(level, file); err != nil {
			return err
		}
		logger.Debug("config loaded", zap.String("path", path))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/habitr/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(breatheCmd, historyCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore() (*store.Store, error) {
	dbPath, err := cfg.DatabasePath(store.DefaultDBPath)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	logger.Debug("database opened", zap.String("path", dbPath))
	return s, nil
}

// openHabits builds the debounced habit tracker on c.
func openHabits(ctx context.Context, c clock.Clock, s *store.Store) (*habit.Tracker, *persist.Debouncer[string, habit.State], error) {
	codec, err := persist.CodecByName(cfg.Persistence.Encoding)
	if err != nil {
		return nil, nil, err
	}
	deb := persist.New[string, habit.State](c,
		persist.NewEncoded[habit.State](s.KV(), codec),
		cfg.Persistence.Debounce,
		persist.WithLogger(logger.Named("persist")),
		persist.WithFlushOnClose(cfg.Persistence.FlushOnClose),
	)
	trk, err := habit.Open(ctx, c, deb, habit.WithLogger(logger.Named("habit")))
	if err != nil {
		return nil, nil, err
	}
	return trk, deb, nil
}

func runInteractive(ctx context.Context) error {
	fallback, err := cfg.Phase()
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	exec := &tui.ProgramExecutor{}
	clk := clock.NewReal(exec)

	runner := session.NewRunner(clk,
		session.WithTick(cfg.Timer.Tick),
		session.WithLogger(logger.Named("session")),
		session.WithRecorder(s),
	)
	trk, deb, err := openHabits(ctx, clk, s)
	if err != nil {
		return err
	}

	app := tui.NewApp(tui.Deps{
		Store:     s,
		Clock:     clk,
		Runner:    runner,
		Habits:    trk,
		Debouncer: deb,
		Logger:    logger.Named("ui"),
		Refresh:   cfg.Timer.Refresh,
	}, fallback)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	exec.Attach(p)

	_, runErr := p.Run()
	// The program no longer delivers callbacks, so shutting down here does
	// not race the engine.
	app.Shutdown()
	if runErr != nil {
		return fmt.Errorf("run ui: %w", runErr)
	}
	return nil
}
