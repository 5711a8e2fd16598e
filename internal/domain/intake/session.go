package intake

import "sync"

// Session tracks which reminder batch is currently being handled. A new
// notification supersedes any in-flight resolve for an older one: applying
// a stale resolve result after the screen has moved on would corrupt state,
// so results carry the generation they were started under and are dropped
// if it no longer matches.
type Session struct {
	mu      sync.Mutex
	gen     uint64
	batch   Batch
	entries []LogEntry
}

func NewSession() *Session {
	return &Session{}
}

// Begin makes the given batch current and returns the generation token
// the eventual resolve result must present.
func (s *Session) Begin(batch Batch) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.batch = batch
	s.entries = nil
	return s.gen
}

// Apply installs resolved entries if the session has not been superseded.
// It reports whether the result was accepted.
func (s *Session) Apply(gen uint64, entries []LogEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.entries = entries
	return true
}

// Current returns the active batch and its resolved entries.
func (s *Session) Current() (Batch, []LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.entries))
	copy(out, s.entries)
	return s.batch, out
}

// EntryIDs returns the ids of the active session's entries.
func (s *Session) EntryIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.ID
	}
	return ids
}
