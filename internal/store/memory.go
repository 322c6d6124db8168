package store

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"survive/internal/model"
)

var (
	ErrNotFound = errors.New("room not found")
	ErrExists   = errors.New("room already exists")
)

type entry struct {
	mu      sync.Mutex
	room    *model.Room
	deleted atomic.Bool
}

// Memory is the process-wide room map. Each room carries its own mutex so
// mutations on different rooms never wait on each other; the map lock is only
// held for lookup, insert and delete.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string]*entry
}

// NewMemory creates an empty room store
func NewMemory() *Memory {
	return &Memory{rooms: make(map[string]*entry)}
}

// Create inserts a new room
func (s *Memory) Create(room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; ok {
		return ErrExists
	}
	s.rooms[room.ID] = &entry{room: room}
	return nil
}

func (s *Memory) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.rooms[id]
	return e, ok
}

// Get returns a deep copy of the room
func (s *Memory) Get(id string) (*model.Room, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted.Load() {
		return nil, ErrNotFound
	}
	return e.room.Clone(), nil
}

// Update runs fn against the live room while holding that room's lock.
// fn must not call Update or Get for the same room; Delete is safe.
func (s *Memory) Update(id string, fn func(*model.Room) error) error {
	e, ok := s.lookup(id)
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted.Load() {
		return ErrNotFound
	}
	return fn(e.room)
}

// Delete removes the room. It reports whether the room existed.
func (s *Memory) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rooms[id]
	if !ok {
		return false
	}
	e.deleted.Store(true)
	delete(s.rooms, id)
	return true
}

// Exists reports whether id is in use
func (s *Memory) Exists(id string) bool {
	_, ok := s.lookup(id)
	return ok
}

// IDs returns all room ids in sorted order
func (s *Memory) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Len returns the number of rooms
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
