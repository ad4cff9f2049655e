package store

import "sync"

// UserLocks hands out one exclusive mutex per user id. Entries are released
// once no goroutine holds or waits for them.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[string]*userLock)}
}

// Lock blocks until the caller holds userId's lock and returns the unlock func.
func (l *UserLocks) Lock(userId string) func() {
	l.mu.Lock()
	ul, ok := l.locks[userId]
	if !ok {
		ul = &userLock{}
		l.locks[userId] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userId)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of live entries.
func (l *UserLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
