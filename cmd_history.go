package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/habitr/internal/session"
	"github.com/sadopc/habitr/internal/store"
)

var (
	historyLimit  int
	historyStatus string
	historyDays   int
)

// historyCmd lists recorded sessions
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent breathing sessions",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

// exportCmd writes sessions to CSV or JSON
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export breathing sessions as CSV or JSON",
	Long: `Export recorded sessions.

Use --out - to write to stdout.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var (
	exportFormat string
	exportOut    string
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum sessions to list")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "only sessions with this status (completed, cancelled)")
	historyCmd.Flags().IntVar(&historyDays, "days", 0, "only sessions from the last N days")

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv, json)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default habitr-export-DATE.<format>)")
	exportCmd.Flags().StringVar(&historyStatus, "status", "", "only sessions with this status (completed, cancelled)")
	exportCmd.Flags().IntVar(&historyDays, "days", 0, "only sessions from the last N days")
}

// sessionFilter builds the query shared by history and export.
func sessionFilter(now time.Time, limit int) (store.SessionFilter, error) {
	f := store.SessionFilter{Limit: limit}
	if historyStatus != "" {
		st, err := session.ParseStatus(historyStatus)
		if err != nil {
			return f, err
		}
		if st.Active() || st == session.StatusIdle {
			return f, fmt.Errorf("sessions are only stored as completed or cancelled, not %s", st)
		}
		f.Status = st.String()
	}
	if historyDays > 0 {
		from := now.AddDate(0, 0, -historyDays)
		f.From = &from
	}
	return f, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	f, err := sessionFilter(time.Now(), historyLimit)
	if err != nil {
		return err
	}
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	sessions, err := s.ListSessions(f)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "%-16s  %-10s  %-24s  %-9s  %s\n", "Started", "Preset", "Phases", "Status", "Elapsed")
	fmt.Fprintln(out, strings.Repeat("─", 76))
	var total int64
	for _, r := range sessions {
		shape := fmt.Sprintf("%s %ds×%d", strings.Join(r.Phases, "/"), r.PhaseSeconds, r.Cycles)
		fmt.Fprintf(out, "%-16s  %-10s  %-24s  %-9s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Preset, shape, r.Status,
			formatClock(time.Duration(r.ElapsedMs)*time.Millisecond))
		total += r.ElapsedMs
	}
	fmt.Fprintln(out, strings.Repeat("─", 76))
	fmt.Fprintf(out, "Total: %d sessions, %s\n", len(sessions), formatClock(time.Duration(total)*time.Millisecond))
	return nil
}
