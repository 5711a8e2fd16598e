package intake

import (
	"context"
	"sync"
	"time"
)

// fakeRepo is an in-memory Repository for tests.
type fakeRepo struct {
	mu sync.Mutex

	entries   map[string]LogEntry
	fetchErr  error
	markErr   map[string]error
	snoozeErr error
	snoozeAck *SnoozeAck

	fetchCalls  int
	markCalls   int
	snoozeCalls [][]string
}

func newFakeRepo(entries ...LogEntry) *fakeRepo {
	m := make(map[string]LogEntry, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	return &fakeRepo{entries: m, markErr: make(map[string]error)}
}

func (f *fakeRepo) FetchByIDs(ctx context.Context, ids []string) ([]LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]LogEntry, 0, len(ids))
	for _, id := range ids {
		if e, ok := f.entries[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) Mark(ctx context.Context, id string, status Status, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	if err, ok := f.markErr[id]; ok {
		return err
	}
	if e, ok := f.entries[id]; ok {
		e.applyStatus(status, at)
		f.entries[id] = e
	}
	return nil
}

func (f *fakeRepo) Snooze(ctx context.Context, ids []string) (*SnoozeAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snoozeCalls = append(f.snoozeCalls, ids)
	if f.snoozeErr != nil {
		return nil, f.snoozeErr
	}
	if f.snoozeAck != nil {
		return f.snoozeAck, nil
	}
	return &SnoozeAck{Message: "snoozed"}, nil
}

var testScheduled = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func mkEntry(id, name string, status Status) LogEntry {
	e := LogEntry{
		ID:             id,
		MedicationID:   "med-" + id,
		MedicationName: name,
		MedicationType: "tablet",
		ScheduledTime:  testScheduled,
		Status:         StatusPending,
	}
	if status != StatusPending {
		e.applyStatus(status, testScheduled.Add(5*time.Minute))
	}
	return e
}
