package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/core"
	"github.com/Ali4mini/internal-comms/internal/domain"
)

// RoomManager creates rooms on first join and reaps them when their
// last member leaves, so the room table never grows past the set of
// rooms in active use.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.Room
}

func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[domain.RoomID]*core.Room)}
}

func (m *RoomManager) GetOrCreate(id domain.RoomID) *core.Room {
	m.mu.RLock()
	room, ok := m.rooms[id]
	m.mu.RUnlock()
	if ok {
		return room
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok = m.rooms[id]; ok {
		return room
	}
	room = core.NewRoom(id)
	m.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return room
}

func (m *RoomManager) Get(id domain.RoomID) (*core.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	return room, ok
}

func (m *RoomManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Reap deletes the room if it is still empty. The room marks itself
// closed inside its own lock, so a join racing the reap either lands
// before it (room stays) or observes the closed room and retries.
func (m *RoomManager) Reap(id domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return
	}
	if room.CloseIfEmpty() {
		delete(m.rooms, id)
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room reaped")
	}
}
