package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/habitr/internal/store"
)

var csvHeader = []string{"ID", "Preset", "Phases", "Phase (s)", "Cycles", "Status", "Start", "End", "Elapsed (s)", "Elapsed"}

// ToCSV writes the sessions to a new file at path.
func ToCSV(sessions []store.SessionRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, sessions)
}

func WriteCSV(out io.Writer, sessions []store.SessionRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, s := range sessions {
		secs := s.ElapsedMs / 1000
		row := []string{
			s.ID,
			s.Preset,
			strings.Join(s.Phases, "/"),
			strconv.Itoa(s.PhaseSeconds),
			strconv.Itoa(s.Cycles),
			s.Status,
			s.StartedAt.Local().Format(time.RFC3339),
			s.EndedAt.Local().Format(time.RFC3339),
			strconv.FormatInt(secs, 10),
			formatDuration(secs),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
