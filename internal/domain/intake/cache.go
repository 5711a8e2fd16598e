package intake

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"time"

	"github.com/peterbourgon/diskv/v3"
	"github.com/rs/zerolog"
)

// Cache is the persisted shadow copy of the server's intake log, keyed by
// entry id. It exists for optimistic rendering and offline resilience; it
// is never a source of truth. Disk reads fail open to an empty cache and
// disk writes are best-effort — the in-memory mirror stays correct for the
// running session either way.
type Cache struct {
	d      *diskv.Diskv
	logger zerolog.Logger

	mu  sync.RWMutex
	mem map[string]LogEntry
}

func NewCache(basePath string, logger zerolog.Logger) *Cache {
	c := &Cache{
		d: diskv.New(diskv.Options{
			BasePath:     filepath.Join(basePath, "intake-logs"),
			CacheSizeMax: 1024 * 1024, // 1MB
		}),
		logger: logger,
		mem:    make(map[string]LogEntry),
	}
	c.loadAll()
	return c
}

// loadAll hydrates the in-memory mirror from disk. Unreadable or corrupt
// entries are logged and skipped.
func (c *Cache) loadAll() {
	for key := range c.d.Keys(nil) {
		data, err := c.d.Read(key)
		if err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("intake cache read failed; skipping entry")
			continue
		}
		var e LogEntry
		if err := json.Unmarshal(data, &e); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("intake cache entry corrupt; skipping")
			continue
		}
		if e.ID == "" {
			e.ID = key
		}
		c.mem[e.ID] = e
	}
}

// ReplaceAll overwrites the entire persisted set. Last writer wins; there
// is no merge logic.
func (c *Cache) ReplaceAll(entries []LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[string]LogEntry, len(entries))
	for _, e := range entries {
		next[e.ID] = e
	}

	for key := range c.d.Keys(nil) {
		if _, keep := next[key]; keep {
			continue
		}
		if err := c.d.Erase(key); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("intake cache erase failed")
		}
	}
	for _, e := range entries {
		c.write(e)
	}
	c.mem = next
}

// Patch updates one entry's status and timestamps in place. An unknown id
// is a logged no-op: the cache may legitimately lag a fresh fetch.
func (c *Cache) Patch(id string, to Status, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.mem[id]
	if !ok {
		c.logger.Debug().Str("entry_id", id).Msg("patch for entry not in cache; ignoring")
		return
	}
	e.applyStatus(to, at)
	c.mem[id] = e
	c.write(e)
}

// GetAll returns the current shadow set in deterministic order.
func (c *Cache) GetAll() []LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make([]LogEntry, 0, len(c.mem))
	for _, e := range c.mem {
		all = append(all, e)
	}
	sortByName(all)
	return all
}

func (c *Cache) Get(id string) (LogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.mem[id]
	return e, ok
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mem)
}

// write persists one entry; failures are logged and non-fatal. Callers
// hold the lock.
func (c *Cache) write(e LogEntry) {
	data, err := json.Marshal(e)
	if err != nil {
		c.logger.Warn().Err(err).Str("entry_id", e.ID).Msg("intake cache encode failed")
		return
	}
	if err := c.d.Write(e.ID, data); err != nil {
		c.logger.Warn().Err(err).Str("entry_id", e.ID).Msg("intake cache write failed; state will not survive restart")
	}
}
