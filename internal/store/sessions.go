package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sadopc/habitr/internal/session"
)

// RecordSession stores a finished session. It satisfies session.Recorder.
func (s *Store) RecordSession(ctx context.Context, r session.Record) error {
	phases, err := json.Marshal(r.Phases)
	if err != nil {
		return fmt.Errorf("encode phases: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, preset, phases, phase_seconds, cycles, elapsed_ms, status, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Preset, string(phases), int(r.Length/time.Second), r.Cycles, r.Elapsed.Milliseconds(),
		r.Status.String(),
		r.StartedAt.UTC().Format(time.RFC3339), r.EndedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(id string) (*SessionRow, error) {
	row := s.db.QueryRow(
		`SELECT id, preset, phases, phase_seconds, cycles, elapsed_ms, status, started_at, ended_at
		 FROM sessions WHERE id = ?`, id,
	)
	r, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return r, nil
}

func (s *Store) ListSessions(f SessionFilter) ([]SessionRow, error) {
	query := `SELECT id, preset, phases, phase_seconds, cycles, elapsed_ms, status, started_at, ended_at FROM sessions WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.From != nil {
		query += ` AND started_at >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND started_at < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY started_at DESC, id`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		r, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetDailySummary aggregates sessions started in [from, to) per UTC day.
func (s *Store) GetDailySummary(from, to time.Time) ([]DailySummary, error) {
	rows, err := s.db.Query(`
		SELECT date(started_at) AS day, COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(elapsed_ms), 0) / 1000
		FROM sessions
		WHERE started_at >= ? AND started_at < ?
		GROUP BY day
		ORDER BY day`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var ds DailySummary
		if err := rows.Scan(&ds.Date, &ds.Sessions, &ds.Completed, &ds.TotalSeconds); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

// GetSessionStats counts completed sessions and their breathing time in
// [from, to).
func (s *Store) GetSessionStats(from, to time.Time) (completed int, totalSecs int64, err error) {
	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(elapsed_ms), 0) / 1000
		FROM sessions
		WHERE status = 'completed'
		  AND started_at >= ? AND started_at < ?`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	).Scan(&completed, &totalSecs)
	return
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (*SessionRow, error) {
	r := &SessionRow{}
	var phases, startedAt, endedAt string
	if err := sc.Scan(&r.ID, &r.Preset, &phases, &r.PhaseSeconds, &r.Cycles, &r.ElapsedMs, &r.Status, &startedAt, &endedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(phases), &r.Phases); err != nil {
		return nil, fmt.Errorf("decode phases of %s: %w", r.ID, err)
	}
	r.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	r.EndedAt, _ = time.Parse(time.RFC3339, endedAt)
	return r, nil
}
