package core

import "github.com/Ali4mini/internal-comms/internal/domain"

// Frame is one encoded signaling message.
type Frame []byte

// SignalConnection abstracts the transport endpoint of one connection.
// Owned by the adapter; the adapter must Close() it. TrySend must not
// block: a slow peer drops frames instead of stalling the relay.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PeerSession binds a verified identity to its transport endpoint.
// This is what the registry stores and rooms fan out to.
type PeerSession interface {
	Identity() domain.Identity
	Signal() SignalConnection
}

type peerSession struct {
	ident domain.Identity
	conn  SignalConnection
}

func NewPeerSession(ident domain.Identity, conn SignalConnection) PeerSession {
	return &peerSession{ident: ident, conn: conn}
}

func (p *peerSession) Identity() domain.Identity { return p.ident }
func (p *peerSession) Signal() SignalConnection  { return p.conn }

// MemberSnapshot pairs a connection id with its session, as captured
// inside a room's critical section.
type MemberSnapshot struct {
	ID      domain.ConnID
	Session PeerSession
}
