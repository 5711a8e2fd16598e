package intake

import (
	"context"
	"time"
)

// SnoozeAck is the backend's acknowledgment of a reminder reschedule. The
// server owns actual re-delivery; SnoozeUntil is informational.
type SnoozeAck struct {
	Message     string
	SnoozeUntil *time.Time
}

type Repository interface {
	// FetchByIDs retrieves log entries for a batch in one call, so the
	// request count stays one per notification however many doses are due.
	FetchByIDs(ctx context.Context, ids []string) ([]LogEntry, error)
	// Mark applies a status transition server-side. Business-rule
	// rejections come back as *BusinessError, transport failures as
	// wrapped errors.
	Mark(ctx context.Context, id string, status Status, at time.Time) error
	// Snooze reschedules delivery for the given entry ids.
	Snooze(ctx context.Context, ids []string) (*SnoozeAck, error)
}
