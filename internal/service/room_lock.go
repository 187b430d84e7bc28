package service

import (
	"sort"
	"sync"
)

// RoomLocker hands out one mutex per room code. Entries are reference counted
// and dropped once no caller holds or waits on them.
type RoomLocker struct {
	mu    sync.Mutex
	rooms map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

// NewRoomLocker constructs an empty locker.
func NewRoomLocker() *RoomLocker {
	return &RoomLocker{rooms: make(map[string]*roomLock)}
}

// Lock acquires the locks of every given room in code order and returns the release func.
func (l *RoomLocker) Lock(codes ...string) func() {
	ordered := append([]string(nil), codes...)
	sort.Strings(ordered)

	held := make([]string, 0, len(ordered))
	for i, code := range ordered {
		if i > 0 && code == ordered[i-1] {
			continue
		}
		l.acquire(code).mu.Lock()
		held = append(held, code)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(held[i])
		}
	}
}

func (l *RoomLocker) acquire(code string) *roomLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.rooms[code]
	if !ok {
		entry = &roomLock{}
		l.rooms[code] = entry
	}
	entry.refs++
	return entry
}

func (l *RoomLocker) release(code string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.rooms[code]
	if !ok {
		return
	}
	entry.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.rooms, code)
	}
}

func (l *RoomLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}
