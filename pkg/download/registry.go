package download

import (
	"context"
	"sort"
	"sync"

	"github.com/glorpus-work/fetchd/pkg/errors"
)

type registration struct {
	token  uint64
	cancel context.CancelCauseFunc
}

// Registry maps download ids to the cancellation handle of the running download.
// All methods are safe for concurrent use and never block on a transfer.
type Registry struct {
	mu      sync.Mutex
	entries map[string]registration
	next    uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// Register stores cancel under id, replacing any existing entry (last writer wins).
// The returned token identifies this registration for release; replaced reports
// whether an entry for id already existed.
func (r *Registry) Register(id string, cancel context.CancelCauseFunc) (token uint64, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	_, replaced = r.entries[id]
	r.entries[id] = registration{token: r.next, cancel: cancel}
	return r.next, replaced
}

// Cancel removes the entry for id and signals it with errors.ErrCancelled.
// It returns false when no download with that id is registered.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	reg, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	reg.cancel(errors.ErrCancelled)
	return true
}

// Remove unconditionally removes the entry for id without signaling it.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// release removes the entry for id only if it is still the registration
// identified by token, so a finishing download never drops the handle of a
// newer download that reused its id.
func (r *Registry) release(id string, token uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.entries[id]; ok && reg.token == token {
		delete(r.entries, id)
	}
}

// Len returns the number of registered downloads.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)
	return ids
}
