package store

import (
	"context"
	"sync"
	"time"
)

// Stats holds cache counters for the memory backend.
type Stats struct {
	Hits        int64
	Misses      int64
	Sets        int64
	Evictions   int64
	CurrentSize int
}

type entry struct {
	state      State
	expiration time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// Memory is an in-process Store. Expired entries are dropped by a background
// janitor when a cleanup interval is set.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*entry
	stats   Stats
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemory creates a memory store. cleanupInterval <= 0 disables the janitor.
func NewMemory(cleanupInterval time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go m.janitor(cleanupInterval)
	} else {
		close(m.done)
	}

	return m
}

func (m *Memory) Get(_ context.Context, id string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, found := m.entries[id]
	if !found || e.isExpired(m.now()) {
		m.stats.Misses++
		return State{}, ErrNotFound
	}

	m.stats.Hits++
	return e.state, nil
}

func (m *Memory) Set(_ context.Context, id string, state State, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[id] = &entry{state: state, expiration: m.now().Add(ttl)}
	m.stats.Sets++
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*entry)
	return nil
}

// Stats returns a snapshot of the cache counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.stats
	stats.CurrentSize = len(m.entries)
	return stats
}

// Close stops the janitor. It is safe to call more than once.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
	return nil
}

// deleteExpired removes expired entries and returns how many were dropped.
func (m *Memory) deleteExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	count := 0
	for id, e := range m.entries {
		if e.isExpired(now) {
			delete(m.entries, id)
			count++
		}
	}

	m.stats.Evictions += int64(count)
	return count
}

func (m *Memory) janitor(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.deleteExpired()
		case <-m.stop:
			return
		}
	}
}
