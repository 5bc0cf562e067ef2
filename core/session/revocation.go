package session

import (
	"context"
	"sync"
	"time"
)

// Revoker remembers signed-out token IDs until the tokens would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevoker keeps revocations in process memory. It suits single instance deployments.
type MemoryRevoker struct {
	mu      sync.Mutex
	entries map[string]time.Time
	nowFunc func() time.Time // mockable
}

var _ Revoker = (*MemoryRevoker)(nil)

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{entries: make(map[string]time.Time), nowFunc: time.Now}
}

func (r *MemoryRevoker) Revoke(_ context.Context, tokenID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.nowFunc()
	r.purge(now)
	if until.After(now) {
		r.entries[tokenID] = until
	}
	return nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(r.nowFunc()) {
		delete(r.entries, tokenID)
		return false, nil
	}
	return true, nil
}

// Len returns the number of live revocations.
func (r *MemoryRevoker) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purge(r.nowFunc())
	return len(r.entries)
}

func (r *MemoryRevoker) purge(now time.Time) {
	for id, until := range r.entries {
		if !until.After(now) {
			delete(r.entries, id)
		}
	}
}
