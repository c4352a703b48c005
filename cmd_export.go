package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/habitr/internal/export"
)

func runExport(cmd *cobra.Command, args []string) error {
	now := time.Now()
	f, err := sessionFilter(now, 0)
	if err != nil {
		return err
	}
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("unknown export format %q (want csv or json)", exportFormat)
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

	if exportOut == "-" {
		if exportFormat == "json" {
			return export.WriteJSON(cmd.OutOrStdout(), sessions)
		}
		return export.WriteCSV(cmd.OutOrStdout(), sessions)
	}

	path := exportOut
	if path == "" {
		path = filepath.Join(".", fmt.Sprintf("habitr-export-%s.%s", now.Format("2006-01-02"), exportFormat))
	}
	if exportFormat == "json" {
		err = export.ToJSON(sessions, path)
	} else {
		err = export.ToCSV(sessions, path)
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	logger.Info("sessions exported", zap.String("path", path), zap.Int("count", len(sessions)))
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d sessions to %s\n", len(sessions), path)
	return nil
}
