package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/core"
	"github.com/Ali4mini/internal-comms/internal/domain"
)

type sessionEntry struct {
	Session core.PeerSession
	Cancel  context.CancelFunc
	Rooms   map[domain.RoomID]struct{}
}

// Registry is the live-connection table. Routing is a direct id
// lookup; nothing here blocks on transport I/O.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ConnID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.ConnID]*sessionEntry)}
}

func (r *Registry) Bind(id domain.ConnID, sess core.PeerSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &sessionEntry{
		Session: sess,
		Cancel:  cancel,
		Rooms:   make(map[domain.RoomID]struct{}),
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("username", sess.Identity().Username).Msg("bound connection")
}

func (r *Registry) Lookup(id domain.ConnID) (core.PeerSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[id]; ok {
		return e.Session, true
	}
	return nil, false
}

// TrackRoom remembers that the connection joined the room, so teardown
// can remove it from every room it belongs to.
func (r *Registry) TrackRoom(id domain.ConnID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.Rooms[roomID] = struct{}{}
	}
}

func (r *Registry) RoomsOf(id domain.ConnID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil
	}
	out := make([]domain.RoomID, 0, len(e.Rooms))
	for rid := range e.Rooms {
		out = append(out, rid)
	}
	return out
}

// Unbind removes the connection and fires its cancel func. After this
// returns the connection is no longer routable.
func (r *Registry) Unbind(id domain.ConnID) {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unbound connection")
}
