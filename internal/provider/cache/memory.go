package cache

import (
	"context"
	"sync"
	"time"
)

// entry stores one cached payload with expiry.
type entry struct {
	expiresAt time.Time
	val       []byte
}

// Memory is an in-process Store capped at MaxItems entries.
type Memory struct {
	MaxItems int

	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

func NewMemory(maxItems int) *Memory {
	return &Memory{MaxItems: maxItems, items: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || !m.clock().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.val, true, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string]entry)
	}
	m.items[key] = entry{expiresAt: now.Add(ttl), val: append([]byte(nil), val...)}

	// best-effort cap cache size
	if m.MaxItems > 0 && len(m.items) > m.MaxItems {
		// remove expired first, then arbitrary
		for k, v := range m.items {
			if !now.Before(v.expiresAt) {
				delete(m.items, k)
			}
			if len(m.items) <= m.MaxItems {
				break
			}
		}
		for k := range m.items {
			if len(m.items) <= m.MaxItems {
				break
			}
			if k == key {
				continue
			}
			delete(m.items, k)
		}
	}
	return nil
}

// Len reports how many entries are held, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}
