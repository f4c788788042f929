// Package signal defines the wire protocol of a signaling connection:
// a tagged union of JSON envelopes, validated at the boundary before
// anything reaches the relay. SDP and ICE candidate bodies stay opaque
// blobs; the relay routes them without ever inspecting their contents.
package signal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Ali4mini/internal-comms/internal/domain"
)

// Envelope types. Offer, answer and ice-candidate flow in both
// directions; join-room is client→server; welcome, user-connected and
// error are server→client.
const (
	TypeJoinRoom      = "join-room"
	TypeOffer         = "offer"
	TypeAnswer        = "answer"
	TypeICECandidate  = "ice-candidate"
	TypeWelcome       = "welcome"
	TypeUserConnected = "user-connected"
	TypeError         = "error"
)

var (
	ErrUnknownType = errors.New("unknown envelope type")
	ErrBadEnvelope = errors.New("bad envelope")
)

// Envelope is the union of every message exchanged over a signaling
// connection. Which fields must be set depends on Type.
type Envelope struct {
	Type      string          `json:"type"`
	RoomID    domain.RoomID   `json:"roomId,omitempty"`
	Target    domain.ConnID   `json:"target,omitempty"`
	Caller    domain.ConnID   `json:"caller,omitempty"`
	ConnID    domain.ConnID   `json:"connectionId,omitempty"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// Parse decodes an envelope and rejects unknown types. Per-direction
// field requirements are checked separately (ValidateInbound on the
// server side).
func Parse(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	switch env.Type {
	case TypeJoinRoom, TypeOffer, TypeAnswer, TypeICECandidate,
		TypeWelcome, TypeUserConnected, TypeError:
		return env, nil
	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// ValidateInbound checks the field requirements of a client→server
// envelope so the relay can rely on them being present.
func (e Envelope) ValidateInbound() error {
	switch e.Type {
	case TypeJoinRoom:
		if e.RoomID == "" {
			return fmt.Errorf("%w: join-room without roomId", ErrBadEnvelope)
		}
	case TypeOffer, TypeAnswer:
		if e.Target == "" {
			return fmt.Errorf("%w: %s without target", ErrBadEnvelope, e.Type)
		}
		if e.Caller == "" {
			return fmt.Errorf("%w: %s without caller", ErrBadEnvelope, e.Type)
		}
		if len(e.SDP) == 0 {
			return fmt.Errorf("%w: %s without sdp", ErrBadEnvelope, e.Type)
		}
	case TypeICECandidate:
		if e.Target == "" {
			return fmt.Errorf("%w: ice-candidate without target", ErrBadEnvelope)
		}
		if len(e.Candidate) == 0 {
			return fmt.Errorf("%w: ice-candidate without candidate", ErrBadEnvelope)
		}
	default:
		return fmt.Errorf("%w: %q is not a client message", ErrUnknownType, e.Type)
	}
	return nil
}

func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unwrapped strips the target/caller addressing from an ice-candidate
// envelope: the receiving client gets the bare candidate only.
func (e Envelope) Unwrapped() Envelope {
	return Envelope{Type: TypeICECandidate, Candidate: e.Candidate}
}

// Welcome tells a freshly authenticated client its own connection id,
// which it needs as the caller field of everything it routes.
func Welcome(id domain.ConnID) Envelope {
	return Envelope{Type: TypeWelcome, ConnID: id}
}

// UserConnected notifies an existing room member that a new connection
// joined the room.
func UserConnected(id domain.ConnID) Envelope {
	return Envelope{Type: TypeUserConnected, ConnID: id}
}

// Error reports a rejected frame back to its sender.
func Error(msg string) Envelope {
	return Envelope{Type: TypeError, Message: msg}
}
