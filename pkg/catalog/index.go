package catalog

import (
	"sync"

	"github.com/segmentio/ksuid"

	"github.com/arborwatch/unified2spool/pkg/unified2"
)

// EventIndex provides O(1) average-case lookup of the most recent catalog
// id delivered for a given (sensor-id, event-id). Generalized from this
// codebase's original hash index, which mapped arbitrary byte-string keys
// to file offsets; here the key is a unified2.EventKey and the value is a
// KSUID rather than a file offset.
type EventIndex struct {
	mu      sync.RWMutex
	entries map[unified2.EventKey]ksuid.KSUID
}

// NewEventIndex returns an empty EventIndex.
func NewEventIndex() *EventIndex {
	return &EventIndex{entries: make(map[unified2.EventKey]ksuid.KSUID)}
}

// Put records id as the most recent catalog entry for key.
func (idx *EventIndex) Put(key unified2.EventKey, id ksuid.KSUID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[key] = id
}

// Get returns the most recent catalog id for key, if any.
func (idx *EventIndex) Get(key unified2.EventKey) (ksuid.KSUID, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	id, ok := idx.entries[key]
	return id, ok
}

// Delete removes key from the index.
func (idx *EventIndex) Delete(key unified2.EventKey) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.entries, key)
}

// Size returns the number of distinct (sensor-id, event-id) pairs indexed.
func (idx *EventIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Keys returns every indexed key, for diagnostics.
func (idx *EventIndex) Keys() []unified2.EventKey {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	keys := make([]unified2.EventKey, 0, len(idx.entries))
	for k := range idx.entries {
		keys = append(keys, k)
	}
	return keys
}
