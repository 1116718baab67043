package status

import (
	"sync"

	"lectura/model"
)

// Tracker is the process-wide mapping from video id to pipeline status.
// Set overwrites the whole snapshot (last write wins); Get returns a status
// with stage "unknown" for ids never seen. No history is retained.
type Tracker interface {
	Set(id string, s model.Status)
	Get(id string) model.Status
}

// MemoryTracker keeps status snapshots in an in-process map. Each id is
// written by exactly one background job at a time, so a plain RWMutex around
// the map is all the coordination needed.
type MemoryTracker struct {
	mu       sync.RWMutex
	statuses map[string]model.Status
}

// NewMemoryTracker creates an empty in-memory tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{statuses: make(map[string]model.Status)}
}

// Set stores the snapshot for id, replacing any previous one.
func (t *MemoryTracker) Set(id string, s model.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[id] = s
}

// Get returns the current snapshot for id.
func (t *MemoryTracker) Get(id string) model.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.statuses[id]; ok {
		return s
	}
	return model.Status{Stage: model.StageUnknown}
}
