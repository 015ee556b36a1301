package services

import (
	"sort"
	"strconv"
	"sync"
)

// RoomLocks serializes admission work inside one process. Row locks taken
// inside the transaction cover other instances.
type RoomLocks struct {
	global  sync.RWMutex
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewRoomLocks() *RoomLocks {
	return &RoomLocks{entries: make(map[string]*lockEntry)}
}

// Guard holds the locks of one operation. Lock the student first, then call
// Rooms once with every room the operation touches.
type Guard struct {
	locks     *RoomLocks
	exclusive bool
	held      []string
}

// Shared starts an operation that runs alongside others touching different keys.
func (l *RoomLocks) Shared() *Guard {
	l.global.RLock()
	return &Guard{locks: l}
}

// Exclusive starts an operation that excludes every other one.
func (l *RoomLocks) Exclusive() *Guard {
	l.global.Lock()
	return &Guard{locks: l, exclusive: true}
}

func (g *Guard) Student(id uint) {
	g.lock([]string{"student:" + strconv.FormatUint(uint64(id), 10)})
}

func (g *Guard) Rooms(numbers ...string) {
	keys := make([]string, 0, len(numbers))
	for _, n := range numbers {
		keys = append(keys, "room:"+n)
	}
	sort.Strings(keys)
	g.lock(keys)
}

func (g *Guard) lock(keys []string) {
	if g.exclusive {
		return
	}
	for _, key := range keys {
		if g.holds(key) {
			continue
		}
		g.locks.acquire(key)
		g.held = append(g.held, key)
	}
}

func (g *Guard) holds(key string) bool {
	for _, k := range g.held {
		if k == key {
			return true
		}
	}
	return false
}

// Release unlocks everything in reverse order. It must be called exactly once.
func (g *Guard) Release() {
	for i := len(g.held) - 1; i >= 0; i-- {
		g.locks.release(g.held[i])
	}
	g.held = nil
	if g.exclusive {
		g.locks.global.Unlock()
	} else {
		g.locks.global.RUnlock()
	}
}

func (l *RoomLocks) acquire(key string) {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *RoomLocks) release(key string) {
	l.mu.Lock()
	entry := l.entries[key]
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
