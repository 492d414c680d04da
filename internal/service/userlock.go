package service

import "sync"

// ==============================================
// PER-USER LOCKS
// ==============================================

// userLocks hands out one mutex per user ID so recovery operations for
// the same user serialize while different users never contend. Entries
// are tiny and bounded by the user population, so they are never evicted.
type userLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int]*sync.Mutex)}
}

func (l *userLocks) get(userID int) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	return m
}
