// Package scheduler runs periodic housekeeping.
package scheduler

import (
	"fmt"
	"log"
	"time"

	"studybuddy/backend/internal/chathub"
	"studybuddy/backend/internal/metrics"

	"github.com/go-co-op/gocron"
)

// LockPruner releases idle per-session locks.
type LockPruner interface {
	PruneLocks() int
	TrackedLocks() int
}

// RoomStatser reports the chat registry size.
type RoomStatser interface {
	Stats() chathub.RoomStats
}

// Report is the outcome of one housekeeping pass.
type Report struct {
	PrunedLocks    int
	RemainingLocks int
	Rooms          chathub.RoomStats
}

// Housekeeper bundles the periodic jobs.
type Housekeeper struct {
	Locks LockPruner
	Rooms RoomStatser
}

// RunOnce prunes idle locks and logs registry stats.
func (h *Housekeeper) RunOnce() Report {
	pruned := h.Locks.PruneLocks()
	metrics.PrunedLocks.Add(float64(pruned))

	report := Report{
		PrunedLocks:    pruned,
		RemainingLocks: h.Locks.TrackedLocks(),
		Rooms:          h.Rooms.Stats(),
	}
	log.Printf("INFO: Housekeeping pruned %d session locks (%d in use), %d clients in %d rooms",
		report.PrunedLocks, report.RemainingLocks, report.Rooms.Clients, report.Rooms.Rooms)
	return report
}

// Start schedules RunOnce every interval, first run after one interval.
// Callers stop the returned scheduler on shutdown.
func Start(h *Housekeeper, interval time.Duration) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.Local)
	s.SingletonModeAll()

	if _, err := s.Every(interval).WaitForSchedule().Do(h.RunOnce); err != nil {
		return nil, fmt.Errorf("failed to schedule housekeeping: %w", err)
	}
	s.StartAsync()
	log.Printf("INFO: Housekeeping scheduled every %s", interval)
	return s, nil
}
