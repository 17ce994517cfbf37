package lock

import (
	"context"
	"sync"
	"time"
)

var _ Locker = (*MemoryLocker)(nil)

// MemoryLocker lease local al proceso; se usa cuando no hay Redis configurado.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]memoryLease
	seq    uint64
}

type memoryLease struct {
	id        uint64
	expiresAt time.Time
}

// NewMemoryLocker construye el locker en memoria.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{leases: make(map[string]memoryLease)}
}

// Acquire toma el lease de key o espera hasta wait.
func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (func(), error) {
	var id uint64
	err := acquireLoop(ctx, key, wait, func(context.Context) (bool, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		now := time.Now()
		if l, held := m.leases[key]; held && now.Before(l.expiresAt) {
			return false, nil
		}
		m.seq++
		id = m.seq
		m.leases[key] = memoryLease{id: id, expiresAt: now.Add(ttl)}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		// Solo libera si el lease sigue siendo nuestro (pudo expirar y ser tomado por otro).
		if l, held := m.leases[key]; held && l.id == id {
			delete(m.leases, key)
		}
	}, nil
}
