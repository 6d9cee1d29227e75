// Package lease provides per-order mutual exclusion for single-node runs and tests.
package lease

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	token     string
	expiresAt time.Time
}

// Memory is a map of order id to lease token with a TTL. Expired leases are
// reclaimed lazily on the next acquire.
type Memory struct {
	mu     sync.Mutex
	leases map[string]entry
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{leases: make(map[string]entry), now: time.Now}
}

func (m *Memory) AcquireOrderLock(_ context.Context, orderID string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if cur, ok := m.leases[orderID]; ok && cur.expiresAt.After(now) {
		return "", false, nil
	}
	token := uuid.NewString()
	m.leases[orderID] = entry{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

// ReleaseOrderLock drops the lease only if token still owns it.
func (m *Memory) ReleaseOrderLock(_ context.Context, orderID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.leases[orderID]; ok && cur.token == token {
		delete(m.leases, orderID)
	}
	return nil
}
