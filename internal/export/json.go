package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/habitr/internal/store"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID           string   `json:"id"`
	Preset       string   `json:"preset,omitempty"`
	Phases       []string `json:"phases"`
	PhaseSeconds int      `json:"phase_seconds"`
	Cycles       int      `json:"cycles"`
	Status       string   `json:"status"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	ElapsedSec   int64    `json:"elapsed_seconds"`
	Elapsed      string   `json:"elapsed"`
}

// ToJSON writes the sessions as an indented document to a new file at path.
func ToJSON(sessions []store.SessionRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()
	return WriteJSON(f, sessions)
}

func WriteJSON(w io.Writer, sessions []store.SessionRow) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	for _, s := range sessions {
		secs := s.ElapsedMs / 1000
		export.Sessions = append(export.Sessions, jsonSession{
			ID:           s.ID,
			Preset:       s.Preset,
			Phases:       s.Phases,
			PhaseSeconds: s.PhaseSeconds,
			Cycles:       s.Cycles,
			Status:       s.Status,
			StartTime:    s.StartedAt.Local().Format(time.RFC3339),
			EndTime:      s.EndedAt.Local().Format(time.RFC3339),
			ElapsedSec:   secs,
			Elapsed:      formatDuration(secs),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
