package service

import "sync"

// ScheduleLocks serialises schedule mutations. Section-scoped operations
// take a shared global lock plus a per-section mutex, so two sections can
// regenerate concurrently but the same section cannot. Whole-schedule
// operations (full generation, clear) take the global lock exclusively.
//
// Construct one instance and hand it to every service that mutates slots.
type ScheduleLocks struct {
	global    sync.RWMutex
	mu        sync.Mutex
	bySection map[string]*sync.Mutex
}

// NewScheduleLocks constructs an empty lock table.
func NewScheduleLocks() *ScheduleLocks {
	return &ScheduleLocks{bySection: make(map[string]*sync.Mutex)}
}

func (l *ScheduleLocks) lockSection(sectionID string) func() {
	l.global.RLock()
	l.mu.Lock()
	m, ok := l.bySection[sectionID]
	if !ok {
		m = &sync.Mutex{}
		l.bySection[sectionID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return func() {
		m.Unlock()
		l.global.RUnlock()
	}
}

func (l *ScheduleLocks) lockAll() func() {
	l.global.Lock()
	return l.global.Unlock
}
