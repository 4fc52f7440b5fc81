package dispatch

import "sync"

// droneLocks hands out one mutex per drone id. Holding the lock across an
// operation's check-and-transition serializes concurrent callers aimed at the
// same drone; callers on different drones proceed in parallel.
type droneLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newDroneLocks() *droneLocks {
	return &droneLocks{locks: make(map[int64]*sync.Mutex)}
}

// acquire locks the mutex for the given drone and returns its unlock func.
func (l *droneLocks) acquire(droneID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[droneID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[droneID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
