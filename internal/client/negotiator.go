// Package client drives the peer side of signaling: one negotiation
// state machine per remote connection, fed by envelopes from the
// relay, producing offers, answers and trickled candidates.
package client

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/domain"
	"github.com/Ali4mini/internal-comms/internal/signal"
)

// State of one negotiation. The happy paths are
// Idle→OfferCreated→OfferSent→RemoteDescriptionSet→Connected for the
// caller and Idle→OfferReceived→AnswerCreated→AnswerSent for the
// callee, whose channel then converges via the transport handshake.
// Failed is terminal; a fresh join restarts negotiation.
type State int

const (
	StateIdle State = iota
	StateOfferCreated
	StateOfferSent
	StateOfferReceived
	StateAnswerCreated
	StateAnswerSent
	StateRemoteDescriptionSet
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOfferCreated:
		return "offer-created"
	case StateOfferSent:
		return "offer-sent"
	case StateOfferReceived:
		return "offer-received"
	case StateAnswerCreated:
		return "answer-created"
	case StateAnswerSent:
		return "answer-sent"
	case StateRemoteDescriptionSet:
		return "remote-description-set"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ChannelContext is the local end of a direct peer channel under
// negotiation. Descriptions and candidates are opaque blobs; the
// implementation (pion, browser, fake) owns their meaning. CreateOffer
// and CreateAnswer also apply the result as the local description.
type ChannelContext interface {
	CreateOffer() (json.RawMessage, error)
	CreateAnswer() (json.RawMessage, error)
	SetRemoteDescription(sdp json.RawMessage) error
	AddICECandidate(candidate json.RawMessage) error
	Close() error
}

// Sender routes an envelope to the relay.
type Sender interface {
	Send(env signal.Envelope) error
}

// Negotiator is one state machine instance, bound to a single remote
// connection for its whole life.
type Negotiator struct {
	localID  domain.ConnID
	remoteID domain.ConnID
	ch       ChannelContext
	send     Sender

	mu        sync.Mutex
	state     State
	remoteSet bool
	// Candidates that raced the offer/answer exchange: applied once the
	// remote description lands, never dropped.
	pending []json.RawMessage
}

func NewNegotiator(localID, remoteID domain.ConnID, ch ChannelContext, send Sender) *Negotiator {
	return &Negotiator{
		localID:  localID,
		remoteID: remoteID,
		ch:       ch,
		send:     send,
		state:    StateIdle,
	}
}

func (n *Negotiator) RemoteID() domain.ConnID { return n.remoteID }

func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *Negotiator) fail(err error) error {
	n.state = StateFailed
	_ = n.ch.Close()
	log.Error().Err(err).Str("module", "client").Str("remote", string(n.remoteID)).Msg("negotiation failed")
	return err
}

// StartOffer runs the caller path: create an offer, apply it locally
// and route it to the remote peer tagged with our own connection id.
func (n *Negotiator) StartOffer() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != StateIdle {
		return n.fail(fmt.Errorf("offer start in state %s", n.state))
	}
	sdp, err := n.ch.CreateOffer()
	if err != nil {
		return n.fail(fmt.Errorf("create offer: %w", err))
	}
	n.state = StateOfferCreated
	env := signal.Envelope{
		Type:   signal.TypeOffer,
		Target: n.remoteID,
		Caller: n.localID,
		SDP:    sdp,
	}
	if err := n.send.Send(env); err != nil {
		return n.fail(fmt.Errorf("send offer: %w", err))
	}
	n.state = StateOfferSent
	return nil
}

// HandleOffer runs the callee path: apply the remote description,
// answer, and route the answer back to the caller id carried by the
// offer envelope.
func (n *Negotiator) HandleOffer(env signal.Envelope) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != StateIdle {
		return n.fail(fmt.Errorf("offer received in state %s", n.state))
	}
	if err := n.ch.SetRemoteDescription(env.SDP); err != nil {
		return n.fail(fmt.Errorf("set remote offer: %w", err))
	}
	n.state = StateOfferReceived
	n.remoteSet = true
	if err := n.flushPendingLocked(); err != nil {
		return n.fail(err)
	}

	sdp, err := n.ch.CreateAnswer()
	if err != nil {
		return n.fail(fmt.Errorf("create answer: %w", err))
	}
	n.state = StateAnswerCreated
	out := signal.Envelope{
		Type:   signal.TypeAnswer,
		Target: env.Caller,
		Caller: n.localID,
		SDP:    sdp,
	}
	if err := n.send.Send(out); err != nil {
		return n.fail(fmt.Errorf("send answer: %w", err))
	}
	n.state = StateAnswerSent
	return nil
}

// HandleAnswer completes the caller path; the channel itself converges
// asynchronously through the transport handshake.
func (n *Negotiator) HandleAnswer(env signal.Envelope) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != StateOfferSent {
		return n.fail(fmt.Errorf("answer received in state %s", n.state))
	}
	if err := n.ch.SetRemoteDescription(env.SDP); err != nil {
		return n.fail(fmt.Errorf("set remote answer: %w", err))
	}
	n.state = StateRemoteDescriptionSet
	if err := n.flushPendingLocked(); err != nil {
		return n.fail(err)
	}
	n.state = StateConnected
	return nil
}

// AddRemoteCandidate applies a trickled candidate, buffering it when
// the remote description is not in place yet. Candidate order within
// the buffer is preserved.
func (n *Negotiator) AddRemoteCandidate(candidate json.RawMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == StateFailed {
		return fmt.Errorf("candidate for failed negotiation with %s", n.remoteID)
	}
	if !n.remoteSet {
		n.pending = append(n.pending, candidate)
		log.Debug().Str("module", "client").Str("remote", string(n.remoteID)).Int("queued", len(n.pending)).Msg("candidate buffered")
		return nil
	}
	return n.ch.AddICECandidate(candidate)
}

// SendLocalCandidate trickles a locally gathered candidate out. The
// remote id is known from the moment this negotiator exists, so there
// is never an outbound buffer.
func (n *Negotiator) SendLocalCandidate(candidate json.RawMessage) error {
	return n.send.Send(signal.Envelope{
		Type:      signal.TypeICECandidate,
		Target:    n.remoteID,
		Candidate: candidate,
	})
}

func (n *Negotiator) flushPendingLocked() error {
	for _, cand := range n.pending {
		if err := n.ch.AddICECandidate(cand); err != nil {
			return fmt.Errorf("apply buffered candidate: %w", err)
		}
	}
	n.pending = nil
	return nil
}

// Close tears the channel down without marking the negotiation failed.
func (n *Negotiator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	_ = n.ch.Close()
}
