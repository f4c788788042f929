// Package app holds the relay core: the live-connection registry, the
// room table, and the router that moves envelopes between connections.
package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/core"
	"github.com/Ali4mini/internal-comms/internal/domain"
	"github.com/Ali4mini/internal-comms/internal/signal"
)

var ErrTargetNotFound = errors.New("route target not found")

// Relay owns all shared mutable state of the signaling service. It is
// initialized at process start and torn down with the process; no
// ambient globals.
type Relay struct {
	Registry *Registry
	Rooms    *RoomManager
}

func NewRelay() *Relay {
	return &Relay{
		Registry: NewRegistry(),
		Rooms:    NewRoomManager(),
	}
}

// Connect registers an authenticated connection. Must run before any
// join or route on behalf of that connection.
func (rl *Relay) Connect(id domain.ConnID, sess core.PeerSession, cancel context.CancelFunc) {
	rl.Registry.Bind(id, sess, cancel)
}

// Join adds the connection to the room and notifies every member that
// was already present. The membership insert and the snapshot of prior
// members happen in one critical section, so the joiner is routable
// before any notification goes out and concurrent joiners always see
// each other. Joining twice is a no-op.
func (rl *Relay) Join(id domain.ConnID, roomID domain.RoomID) {
	sess, ok := rl.Registry.Lookup(id)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("conn", string(id)).Msg("join from unknown connection")
		return
	}

	var prior []core.MemberSnapshot
	for {
		room := rl.Rooms.GetOrCreate(roomID)
		added, p, ok := room.Add(id, sess)
		if !ok {
			// Lost a race with Reap; the next GetOrCreate builds a live room.
			continue
		}
		if !added {
			log.Debug().Str("module", "app.relay").Str("conn", string(id)).Str("room", string(roomID)).Msg("repeat join ignored")
			return
		}
		prior = p
		break
	}
	rl.Registry.TrackRoom(id, roomID)
	log.Info().Str("module", "app.relay").Str("conn", string(id)).Str("room", string(roomID)).Msg("joined room")

	frame, err := signal.UserConnected(id).Marshal()
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("encode user-connected")
		return
	}
	for _, member := range prior {
		if err := member.Session.Signal().TrySend(frame); err != nil {
			log.Warn().Str("module", "app.relay").Str("conn", string(member.ID)).Err(err).Msg("user-connected dropped")
		}
	}
}

// Route forwards the envelope to its target connection, exactly once.
// The target is looked up among all live connections: room membership
// is discovery only, never access control for point-to-point messages.
// Offers and answers carry the full envelope; an ice-candidate is
// delivered unwrapped. An absent target is a logged drop, nothing is
// surfaced to the sender.
func (rl *Relay) Route(env signal.Envelope) error {
	sess, ok := rl.Registry.Lookup(env.Target)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("target", string(env.Target)).Str("type", env.Type).Msg("route target not found")
		return ErrTargetNotFound
	}

	out := env
	if env.Type == signal.TypeICECandidate {
		out = env.Unwrapped()
	}
	frame, err := out.Marshal()
	if err != nil {
		return err
	}
	if err := sess.Signal().TrySend(frame); err != nil {
		log.Warn().Str("module", "app.relay").Str("target", string(env.Target)).Err(err).Msg("route delivery dropped")
		return err
	}
	return nil
}

// Disconnect tears a connection down: it leaves every room it joined
// and stops being routable, atomically from the point of view of
// Route. Remaining members are not notified; join broadcasts, leave
// does not.
func (rl *Relay) Disconnect(id domain.ConnID) {
	for _, roomID := range rl.Registry.RoomsOf(id) {
		if room, ok := rl.Rooms.Get(roomID); ok {
			if remaining := room.Remove(id); remaining == 0 {
				rl.Rooms.Reap(roomID)
			}
		}
	}
	rl.Registry.Unbind(id)
	log.Info().Str("module", "app.relay").Str("conn", string(id)).Msg("disconnected")
}
