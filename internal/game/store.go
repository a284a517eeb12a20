package game

import "sync"

// Store is the in-memory room state. Rooms are created on first reference and
// live for the process lifetime; players are never removed, even after their
// session disconnects.
//
// A single mutex serializes all mutation. Cross-room operations are
// independent, but the store is small enough that per-room locking buys
// nothing here.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewStore creates an empty Store. Each server (and each test) owns its own
// instance; there is no package-level singleton.
func NewStore() *Store {
	return &Store{rooms: make(map[string]*Room)}
}

// AddPlayer ensures the room exists and inserts a player with no character.
// Join is idempotent: if the user is already present, the existing entry and
// any character it holds are left untouched.
func (s *Store) AddPlayer(roomID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.getOrCreateRoom(roomID)
	if _, ok := room.Players[userID]; ok {
		return
	}
	room.Players[userID] = &Player{UserID: userID}
	room.order = append(room.order, userID)
}

// SaveCharacter ensures the room exists and replaces the player entry
// wholesale, so the stored player is exactly {userID, ch}.
func (s *Store) SaveCharacter(roomID, userID string, ch Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.getOrCreateRoom(roomID)
	if _, ok := room.Players[userID]; !ok {
		room.order = append(room.order, userID)
	}
	room.Players[userID] = &Player{UserID: userID, Character: &ch}
}

// UpdateStats field-merges the patch into the player's stat block. It is a
// no-op when the room, the player, or the player's character does not exist.
func (s *Store) UpdateStats(roomID, userID string, patch StatPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return
	}
	player, ok := room.Players[userID]
	if !ok || player.Character == nil {
		return
	}
	player.Character.Stats.Merge(patch)
}

// RoomState returns the room, or nil if it was never touched.
func (s *Store) RoomState(roomID string) *Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[roomID]
}

func (s *Store) getOrCreateRoom(roomID string) *Room {
	room, ok := s.rooms[roomID]
	if !ok {
		room = &Room{ID: roomID, Players: make(map[string]*Player)}
		s.rooms[roomID] = room
	}
	return room
}
