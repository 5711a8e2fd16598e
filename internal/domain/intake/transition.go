package intake

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Engine applies intake status transitions, keeping cache and server
// converged. The local commit is optimistic: a failed remote mark is
// surfaced but never rolled back, and the next Resolve overwrites local
// state with server truth.
type Engine struct {
	repo   Repository
	cache  *Cache
	now    func() time.Time
	logger zerolog.Logger
}

func NewEngine(repo Repository, cache *Cache, logger zerolog.Logger) *Engine {
	return &Engine{repo: repo, cache: cache, now: time.Now, logger: logger}
}

// checkTransition enforces the per-entry state machine. Repeating an
// identical transition is allowed so retries stay idempotent.
func checkTransition(from, to Status) error {
	if !to.Valid() {
		return &InvalidTransitionError{From: from, To: to}
	}
	if from == to {
		return nil
	}
	switch {
	case from == StatusPending && to == StatusTaken,
		from == StatusPending && to == StatusMissed,
		from == StatusTaken && to == StatusPending,
		from == StatusMissed && to == StatusTaken:
		return nil
	case from == StatusTaken && to == StatusMissed:
		return ErrConfirmationRequired
	}
	return &InvalidTransitionError{From: from, To: to}
}

// TransitionOne applies one status change: optimistic cache patch with a
// client timestamp, then the remote mark. Taken -> Missed is refused here;
// it must go through ConfirmTransitionOne.
func (e *Engine) TransitionOne(ctx context.Context, id string, to Status) error {
	return e.transition(ctx, id, to, false)
}

// ConfirmTransitionOne is the confirmed path that additionally permits
// Taken -> Missed.
func (e *Engine) ConfirmTransitionOne(ctx context.Context, id string, to Status) error {
	return e.transition(ctx, id, to, true)
}

func (e *Engine) transition(ctx context.Context, id string, to Status, confirmed bool) error {
	at := e.now().UTC()
	if current, ok := e.cache.Get(id); ok {
		err := checkTransition(current.Status, to)
		if errors.Is(err, ErrConfirmationRequired) && confirmed {
			err = nil
		}
		if err != nil {
			return err
		}
		// A repeated identical transition keeps the originally recorded
		// timestamp, locally and on the wire. Retries must not drift state.
		if current.Status == to {
			switch {
			case to == StatusTaken && current.TakenAt != nil:
				at = *current.TakenAt
			case to == StatusMissed && current.MissedAt != nil:
				at = *current.MissedAt
			}
		}
	}

	e.cache.Patch(id, to, at)

	if err := e.repo.Mark(ctx, id, to, at); err != nil {
		e.logger.Warn().Err(err).
			Str("entry_id", id).
			Str("status", string(to)).
			Msg("remote mark failed; keeping optimistic local state")
		return err
	}
	return nil
}

// BatchResult aggregates TransitionAll outcomes by id, never by
// completion order.
type BatchResult struct {
	Succeeded []string
	Failed    map[string]error
}

// Complete reports whether the whole batch settled, which is the cue to
// navigate away. Partial failure keeps the user on-screen so failed
// entries can be retried individually.
func (r BatchResult) Complete() bool {
	return len(r.Failed) == 0
}

// TransitionAll applies the same transition to every id concurrently; no
// single failure blocks the others.
func (e *Engine) TransitionAll(ctx context.Context, ids []string, to Status) BatchResult {
	result := BatchResult{Failed: make(map[string]error)}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := e.TransitionOne(ctx, id, to)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[id] = err
				return
			}
			result.Succeeded = append(result.Succeeded, id)
		}(id)
	}
	wg.Wait()

	sort.Strings(result.Succeeded)
	return result
}
