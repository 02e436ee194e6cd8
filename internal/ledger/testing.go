package ledger

import "github.com/google/uuid"

// SeedEntry is a test helper that injects a committed entry when using the
// in-memory store.
func SeedEntry(s Store, e Entry) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		mem.entries[e.TransferID] = e
	}
}
