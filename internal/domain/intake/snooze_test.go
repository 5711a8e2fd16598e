package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSnooze_FiltersToPendingEntries(t *testing.T) {
	repo := newFakeRepo()
	s := NewSnoozer(repo, 5*time.Minute, zerolog.Nop())

	entries := []LogEntry{
		mkEntry("a", "Aspirin", StatusPending),
		mkEntry("b", "Metformin", StatusTaken),
		mkEntry("c", "Zinc", StatusPending),
	}
	if _, err := s.Snooze(context.Background(), entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.snoozeCalls) != 1 {
		t.Fatalf("snooze calls = %d, want 1", len(repo.snoozeCalls))
	}
	ids := repo.snoozeCalls[0]
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Errorf("snoozed ids = %v, want [a c]", ids)
	}
}

func TestSnooze_NothingPendingSkipsNetwork(t *testing.T) {
	repo := newFakeRepo()
	s := NewSnoozer(repo, 5*time.Minute, zerolog.Nop())

	entries := []LogEntry{
		mkEntry("a", "Aspirin", StatusTaken),
		mkEntry("b", "Zinc", StatusMissed),
	}
	_, err := s.Snooze(context.Background(), entries)
	if !errors.Is(err, ErrNoPendingMedications) {
		t.Fatalf("err = %v, want ErrNoPendingMedications", err)
	}
	if len(repo.snoozeCalls) != 0 {
		t.Errorf("snooze calls = %d, want 0", len(repo.snoozeCalls))
	}
}

func TestSnooze_ComputesNextFireFromOffset(t *testing.T) {
	repo := newFakeRepo()
	s := NewSnoozer(repo, 5*time.Minute, zerolog.Nop())
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	result, err := s.Snooze(context.Background(), []LogEntry{mkEntry("a", "Aspirin", StatusPending)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := now.Add(5 * time.Minute); !result.NextFireTime.Equal(want) {
		t.Errorf("nextFireTime = %v, want %v", result.NextFireTime, want)
	}
}

func TestSnooze_PrefersServerSnoozeUntil(t *testing.T) {
	repo := newFakeRepo()
	serverTime := time.Date(2025, 6, 1, 9, 42, 0, 0, time.UTC)
	repo.snoozeAck = &SnoozeAck{Message: "rescheduled", SnoozeUntil: &serverTime}
	s := NewSnoozer(repo, 5*time.Minute, zerolog.Nop())

	result, err := s.Snooze(context.Background(), []LogEntry{mkEntry("a", "Aspirin", StatusPending)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.NextFireTime.Equal(serverTime) {
		t.Errorf("nextFireTime = %v, want server's %v", result.NextFireTime, serverTime)
	}
	if result.Message != "rescheduled" {
		t.Errorf("message = %q", result.Message)
	}
}

func TestSnooze_DefaultsOffsetWhenUnset(t *testing.T) {
	repo := newFakeRepo()
	s := NewSnoozer(repo, 0, zerolog.Nop())
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	result, err := s.Snooze(context.Background(), []LogEntry{mkEntry("a", "Aspirin", StatusPending)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := now.Add(5 * time.Minute); !result.NextFireTime.Equal(want) {
		t.Errorf("nextFireTime = %v, want %v", result.NextFireTime, want)
	}
}

func TestSnooze_PropagatesRepoError(t *testing.T) {
	repo := newFakeRepo()
	repo.snoozeErr = errors.New("connection refused")
	s := NewSnoozer(repo, 5*time.Minute, zerolog.Nop())

	if _, err := s.Snooze(context.Background(), []LogEntry{mkEntry("a", "Aspirin", StatusPending)}); err == nil {
		t.Fatal("expected error")
	}
}
