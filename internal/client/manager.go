package client

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/domain"
	"github.com/Ali4mini/internal-comms/internal/signal"
)

// ChannelFactory builds the local channel context for a negotiation
// with one remote connection. The factory receives the negotiator so
// implementations can wire their local-candidate callback to
// SendLocalCandidate.
type ChannelFactory func(remote domain.ConnID, n *Negotiator) (ChannelContext, error)

// Manager owns one Negotiator per remote connection id and dispatches
// incoming envelopes to the right instance, so concurrent negotiations
// with many peers never interfere.
type Manager struct {
	send    Sender
	factory ChannelFactory

	mu      sync.Mutex
	localID domain.ConnID
	peers   map[domain.ConnID]*Negotiator
	// The relay delivers candidates without their caller wrapper, so a
	// candidate that arrives before any context exists cannot be
	// attributed yet. It is queued here and replayed into the context
	// it raced with.
	orphans []json.RawMessage
	last    *Negotiator
}

func NewManager(send Sender, factory ChannelFactory) *Manager {
	return &Manager{
		send:    send,
		factory: factory,
		peers:   make(map[domain.ConnID]*Negotiator),
	}
}

func (m *Manager) LocalID() domain.ConnID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.localID
}

func (m *Manager) Peer(remote domain.ConnID) (*Negotiator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.peers[remote]
	return n, ok
}

// HandleEnvelope feeds one server→client envelope into the right
// negotiation.
func (m *Manager) HandleEnvelope(env signal.Envelope) error {
	switch env.Type {
	case signal.TypeWelcome:
		m.mu.Lock()
		m.localID = env.ConnID
		m.mu.Unlock()
		log.Info().Str("module", "client").Str("conn", string(env.ConnID)).Msg("welcome")
		return nil

	case signal.TypeUserConnected:
		n, orphaned, err := m.negotiator(env.ConnID)
		if err != nil {
			return err
		}
		if err := n.StartOffer(); err != nil {
			return err
		}
		return replay(n, orphaned)

	case signal.TypeOffer:
		n, orphaned, err := m.negotiator(env.Caller)
		if err != nil {
			return err
		}
		if err := n.HandleOffer(env); err != nil {
			return err
		}
		return replay(n, orphaned)

	case signal.TypeAnswer:
		n, ok := m.Peer(env.Caller)
		if !ok {
			return fmt.Errorf("answer from unknown peer %s", env.Caller)
		}
		return n.HandleAnswer(env)

	case signal.TypeICECandidate:
		return m.handleCandidate(env.Candidate)

	case signal.TypeError:
		log.Warn().Str("module", "client").Str("message", env.Message).Msg("relay error")
		return nil

	default:
		return fmt.Errorf("%w: %q", signal.ErrUnknownType, env.Type)
	}
}

// negotiator returns the instance for the remote id, creating it on
// first use. Orphaned candidates captured before any context existed
// are handed back for replay into the new instance.
func (m *Manager) negotiator(remote domain.ConnID) (*Negotiator, []json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.peers[remote]; ok {
		return n, nil, nil
	}
	n := NewNegotiator(m.localID, remote, nil, m.send)
	ch, err := m.factory(remote, n)
	if err != nil {
		return nil, nil, fmt.Errorf("channel for %s: %w", remote, err)
	}
	n.ch = ch
	m.peers[remote] = n
	m.last = n
	orphaned := m.orphans
	m.orphans = nil
	return n, orphaned, nil
}

// handleCandidate attributes an unwrapped candidate: with a single
// live negotiation it goes there; with none yet it is queued for the
// context it is racing; with several it goes to the most recently
// created one, matching the one-outstanding-exchange shape of the
// discovery flow.
func (m *Manager) handleCandidate(candidate json.RawMessage) error {
	m.mu.Lock()
	var target *Negotiator
	switch len(m.peers) {
	case 0:
		m.orphans = append(m.orphans, candidate)
		m.mu.Unlock()
		log.Debug().Str("module", "client").Msg("candidate before any negotiation, queued")
		return nil
	case 1:
		for _, n := range m.peers {
			target = n
		}
	default:
		target = m.last
	}
	m.mu.Unlock()
	return target.AddRemoteCandidate(candidate)
}

func replay(n *Negotiator, orphaned []json.RawMessage) error {
	for _, cand := range orphaned {
		if err := n.AddRemoteCandidate(cand); err != nil {
			return err
		}
	}
	return nil
}

// Close tears down every negotiation.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.peers {
		n.Close()
	}
}
