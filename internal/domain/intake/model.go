package intake

import (
	"fmt"
	"sort"
	"time"
)

type Status string

const (
	StatusPending Status = "Pending"
	StatusTaken   Status = "Taken"
	StatusMissed  Status = "Missed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusTaken || s == StatusMissed
}

// LogEntry is one scheduled dose occurrence. The server is the system of
// record; the agent only reads entries and transitions their status. The
// JSON shape doubles as the on-disk cache format.
type LogEntry struct {
	ID             string     `json:"id"`
	MedicationID   string     `json:"medicationId"`
	MedicationName string     `json:"medicationName"`
	MedicationType string     `json:"medicationType"`
	ScheduledTime  time.Time  `json:"scheduledTime"`
	Status         Status     `json:"status"`
	TakenAt        *time.Time `json:"takenAt,omitempty"`
	MissedAt       *time.Time `json:"missedAt,omitempty"`
}

// Validate checks the status/timestamp exclusivity invariants.
func (e *LogEntry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("entry id is required")
	}
	if !e.Status.Valid() {
		return fmt.Errorf("invalid status: %s", e.Status)
	}
	switch e.Status {
	case StatusPending:
		if e.TakenAt != nil || e.MissedAt != nil {
			return fmt.Errorf("pending entry %s must not carry takenAt/missedAt", e.ID)
		}
	case StatusTaken:
		if e.TakenAt == nil {
			return fmt.Errorf("taken entry %s requires takenAt", e.ID)
		}
		if e.MissedAt != nil {
			return fmt.Errorf("taken entry %s must not carry missedAt", e.ID)
		}
	case StatusMissed:
		if e.MissedAt == nil {
			return fmt.Errorf("missed entry %s requires missedAt", e.ID)
		}
		if e.TakenAt != nil {
			return fmt.Errorf("missed entry %s must not carry takenAt", e.ID)
		}
	}
	return nil
}

// applyStatus moves the entry to a new status, keeping the timestamp
// invariants intact.
func (e *LogEntry) applyStatus(to Status, at time.Time) {
	e.Status = to
	switch to {
	case StatusTaken:
		t := at
		e.TakenAt = &t
		e.MissedAt = nil
	case StatusMissed:
		t := at
		e.MissedAt = &t
		e.TakenAt = nil
	case StatusPending:
		e.TakenAt = nil
		e.MissedAt = nil
	}
}

// Batch is the payload of one device notification: the intake-log entry
// ids due now and when the reminder fired. It lives for one
// reminder-handling session and is never persisted.
type Batch struct {
	MedicationIDs []string  `json:"medications"`
	FiredAt       time.Time `json:"time"`
}

// Complete reports whether every entry in a batch has been taken. It is a
// pure function of the entry list so the navigation cue stays independently
// testable.
func Complete(entries []LogEntry) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if e.Status != StatusTaken {
			return false
		}
	}
	return true
}

// sortByName orders entries for stable display: medication name, then id.
func sortByName(entries []LogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].MedicationName == entries[j].MedicationName {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].MedicationName < entries[j].MedicationName
	})
}
