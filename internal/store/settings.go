package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/habitr/internal/phase"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// BreathingConfig builds the user's breathing config from settings, using
// fallback for anything missing or unparsable. Nothing is stored until
// SaveBreathingConfig runs, so a fresh database yields fallback.
func (s *Store) BreathingConfig(fallback phase.Config) phase.Config {
	cfg := fallback
	if v, err := s.GetSetting("breath_preset"); err == nil && v != "" {
		cfg.Name = v
	}
	if v, err := s.GetSetting("breath_phases"); err == nil {
		if phases := splitPhases(v); len(phases) > 0 {
			cfg.Phases = phases
		}
	}
	if v, err := s.GetSetting("breath_seconds"); err == nil {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.Length = time.Duration(secs) * time.Second
		}
	}
	if v, err := s.GetSetting("breath_cycles"); err == nil {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cycles = n
		}
	}
	return cfg
}

// SaveBreathingConfig writes cfg back to the settings table.
func (s *Store) SaveBreathingConfig(cfg phase.Config) error {
	values := map[string]string{
		"breath_preset":  cfg.Name,
		"breath_phases":  strings.Join(cfg.Phases, ","),
		"breath_seconds": strconv.Itoa(int(cfg.Length / time.Second)),
		"breath_cycles":  strconv.Itoa(cfg.Cycles),
	}
	for k, v := range values {
		if err := s.SetSetting(k, v); err != nil {
			return fmt.Errorf("save setting %q: %w", k, err)
		}
	}
	return nil
}

func splitPhases(v string) []string {
	var phases []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			phases = append(phases, p)
		}
	}
	return phases
}
