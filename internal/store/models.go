package store

import "time"

// SessionRow is a finished breathing session as stored.
type SessionRow struct {
	ID           string
	Preset       string
	Phases       []string
	PhaseSeconds int
	Cycles       int
	ElapsedMs    int64
	Status       string // completed, cancelled
	StartedAt    time.Time
	EndedAt      time.Time
}

type Setting struct {
	Key   string
	Value string
}

// SessionFilter is used to filter sessions in queries.
type SessionFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// DailySummary aggregates breathing sessions per day.
type DailySummary struct {
	Date         string
	Sessions     int
	Completed    int
	TotalSeconds int64
}
