package intake

import (
	"context"

	"github.com/rs/zerolog"
)

// Reconciler turns a device notification's batch into the authoritative
// list of due entries. It is a pure read followed by a cache overwrite, so
// resolving the same batch twice (a double-delivered notification) is safe.
type Reconciler struct {
	repo   Repository
	cache  *Cache
	logger zerolog.Logger
}

func NewReconciler(repo Repository, cache *Cache, logger zerolog.Logger) *Reconciler {
	return &Reconciler{repo: repo, cache: cache, logger: logger}
}

// Resolve fetches the batch's entries in one call, folds them into the
// cache without touching entries outside the batch, and returns them
// sorted by medication name. On network failure it returns
// *ResolutionError and leaves the cache alone: the caller must retry, not
// render stale statuses that could let a dose be taken twice.
func (r *Reconciler) Resolve(ctx context.Context, batch Batch) ([]LogEntry, error) {
	if len(batch.MedicationIDs) == 0 {
		return nil, nil
	}

	entries, err := r.repo.FetchByIDs(ctx, batch.MedicationIDs)
	if err != nil {
		return nil, &ResolutionError{Err: err}
	}

	inBatch := make(map[string]struct{}, len(batch.MedicationIDs))
	for _, id := range batch.MedicationIDs {
		inBatch[id] = struct{}{}
	}

	merged := make([]LogEntry, 0, r.cache.Len()+len(entries))
	for _, e := range r.cache.GetAll() {
		if _, ok := inBatch[e.ID]; !ok {
			merged = append(merged, e)
		}
	}
	merged = append(merged, entries...)
	r.cache.ReplaceAll(merged)

	out := make([]LogEntry, len(entries))
	copy(out, entries)
	sortByName(out)

	r.logger.Debug().
		Int("requested", len(batch.MedicationIDs)).
		Int("resolved", len(out)).
		Time("fired_at", batch.FiredAt).
		Msg("reminder batch resolved")
	return out, nil
}
