package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/domain"
)

// Room is a threadsafe in-memory membership set. It never closes
// adapter-owned resources. Once closed it accepts no members; callers
// must fetch a fresh room from the manager.
type Room struct {
	id      domain.RoomID
	mu      sync.Mutex
	members map[domain.ConnID]PeerSession
	closed  bool
}

func NewRoom(id domain.RoomID) *Room {
	return &Room{
		id:      id,
		members: make(map[domain.ConnID]PeerSession),
	}
}

func (r *Room) ID() domain.RoomID { return r.id }

// Add inserts the connection and captures the members present before
// it, in one critical section: the joiner is in the set before anyone
// can be told about it, and two concurrent joiners cannot both observe
// an empty room. A repeated join of the same connection is a no-op
// with added=false and no snapshot, so no duplicate notifications go
// out. ok=false means the room was reaped; retry via the manager.
func (r *Room) Add(id domain.ConnID, ps PeerSession) (added bool, prior []MemberSnapshot, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, nil, false
	}
	if _, exists := r.members[id]; exists {
		return false, nil, true
	}
	prior = make([]MemberSnapshot, 0, len(r.members))
	for mid, ms := range r.members {
		prior = append(prior, MemberSnapshot{ID: mid, Session: ms})
	}
	r.members[id] = ps
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Str("conn", string(id)).Msg("member added")
	return true, prior, true
}

// Remove drops the connection and reports how many members remain.
func (r *Room) Remove(id domain.ConnID) (remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, id)
	return len(r.members)
}

func (r *Room) Contains(id domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[id]
	return ok
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// CloseIfEmpty marks the room dead when no members remain, so the
// manager can drop it without racing a concurrent join.
func (r *Room) CloseIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) > 0 {
		return false
	}
	r.closed = true
	return true
}
