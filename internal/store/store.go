package store

import (
	"errors"
	"sync"
	"time"

	"github.com/codedrop/codedrop/internal/idgen"
)

// ErrIDExhausted is returned when id generation keeps colliding with
// live rooms. With a 36^6 id space this effectively never happens.
var ErrIDExhausted = errors.New("store: could not allocate a unique room id")

const maxIDAttempts = 5

// Room is a point-in-time copy of one shared document's state.
type Room struct {
	ID        string
	Text      string
	ExpiresAt time.Time
}

type entry struct {
	text      string
	expiresAt time.Time
}

// Store is the authoritative in-memory mapping from room id to room
// state. All state is process-local; a restart loses every room.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*entry
	ttl   time.Duration
	now   func() time.Time
}

// New creates an empty store. Rooms live for ttl after creation; now is
// the clock used for expiry decisions (pass time.Now outside of tests).
func New(ttl time.Duration, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		rooms: make(map[string]*entry),
		ttl:   ttl,
		now:   now,
	}
}

// Create allocates a new room with the given initial text and a fresh
// id guaranteed not to collide with any live room.
func (s *Store) Create(initialText string) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := idgen.NewRoomID()
		if err != nil {
			return Room{}, err
		}

		if e, ok := s.rooms[id]; ok && now.Before(e.expiresAt) {
			continue
		}

		expiresAt := now.Add(s.ttl)
		s.rooms[id] = &entry{text: initialText, expiresAt: expiresAt}
		return Room{ID: id, Text: initialText, ExpiresAt: expiresAt}, nil
	}

	return Room{}, ErrIDExhausted
}

// Get returns the room's current text. An expired room reads as absent
// and is evicted on the spot, so callers never observe stale rooms
// between sweeps.
func (s *Store) Get(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(id)
	if !ok {
		return "", false
	}
	return e.text, true
}

// SetText overwrites the room's text, last write wins. Writes to an
// absent or expired room are dropped and reported via the return value.
func (s *Store) SetText(id, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(id)
	if !ok {
		return false
	}
	e.text = text
	return true
}

// SweepExpired removes every room whose expiry is at or before now and
// returns how many were removed. Safe to call at any time; the lazy
// check in live() already keeps reads correct without it.
func (s *Store) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.rooms {
		if !now.Before(e.expiresAt) {
			delete(s.rooms, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of physically present rooms, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// ExpiresAt returns the room's expiry timestamp if the room is live.
func (s *Store) ExpiresAt(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(id)
	if !ok {
		return time.Time{}, false
	}
	return e.expiresAt, true
}

// live is the single expiry check both the lazy path and the read paths
// funnel through. Caller must hold the write lock: an expired entry is
// evicted here, which is what makes "absent" and "expired"
// indistinguishable to every caller.
func (s *Store) live(id string) (*entry, bool) {
	e, ok := s.rooms[id]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.rooms, id)
		return nil, false
	}
	return e, true
}
