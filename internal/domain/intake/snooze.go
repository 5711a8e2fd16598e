package intake

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Snoozer reschedules the still-pending entries of a batch. The server
// owns actual re-delivery; the computed next fire time is display-only.
// Snoozing never touches the cache — entries stay Pending.
type Snoozer struct {
	repo   Repository
	offset time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

func NewSnoozer(repo Repository, offset time.Duration, logger zerolog.Logger) *Snoozer {
	if offset <= 0 {
		offset = 5 * time.Minute
	}
	return &Snoozer{repo: repo, offset: offset, now: time.Now, logger: logger}
}

type SnoozeResult struct {
	NextFireTime time.Time
	Message      string
}

// Snooze filters the batch to Pending entries and requests a reschedule
// for exactly those. An empty filtered set short-circuits with
// ErrNoPendingMedications before any network call — snoozing nothing is
// meaningless.
func (s *Snoozer) Snooze(ctx context.Context, entries []LogEntry) (*SnoozeResult, error) {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Status == StatusPending {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoPendingMedications
	}

	ack, err := s.repo.Snooze(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := &SnoozeResult{NextFireTime: s.now().Add(s.offset)}
	if ack != nil {
		result.Message = ack.Message
		if ack.SnoozeUntil != nil {
			// Prefer the server's own figure when it reports one.
			result.NextFireTime = *ack.SnoozeUntil
		}
	}
	s.logger.Info().Int("snoozed", len(ids)).Time("next_fire", result.NextFireTime).Msg("reminder snoozed")
	return result, nil
}
