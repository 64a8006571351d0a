package scheduler

import (
	"sync"
	"time"
)

// Status records what the background jobs last did.
// It is safe for concurrent use.
type Status struct {
	mu sync.RWMutex

	lastReload  time.Time
	reloadRows  int
	reloadError string
	skippedRows int

	lastSweep time.Time
	orphans   int
	pruned    int
}

// StatusSnapshot is a point-in-time copy of Status.
type StatusSnapshot struct {
	LastReload  time.Time
	ReloadRows  int
	ReloadError string
	SkippedRows int

	LastSweep time.Time
	Orphans   int
	Pruned    int
}

func NewStatus() *Status {
	return &Status{}
}

func (s *Status) recordReload(at time.Time, rows, skipped int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.reloadError = err.Error()
		return
	}
	s.lastReload = at
	s.reloadRows = rows
	s.skippedRows = skipped
	s.reloadError = ""
}

func (s *Status) recordSweep(at time.Time, orphans, pruned int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSweep = at
	s.orphans = orphans
	s.pruned = pruned
}

// Snapshot returns the current values.
func (s *Status) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StatusSnapshot{
		LastReload:  s.lastReload,
		ReloadRows:  s.reloadRows,
		ReloadError: s.reloadError,
		SkippedRows: s.skippedRows,
		LastSweep:   s.lastSweep,
		Orphans:     s.orphans,
		Pruned:      s.pruned,
	}
}
