package signalws

import (
	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/domain"
	"github.com/Ali4mini/internal-comms/internal/signal"
)

// handleFrame validates one inbound frame at the boundary and hands it
// to the relay. Malformed frames are answered with an error envelope
// and otherwise ignored; the connection stays up.
func (ctl *Controller) handleFrame(id domain.ConnID, c *Conn, data []byte) {
	env, err := signal.Parse(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signalws").Str("conn", string(id)).Msg("bad frame")
		ctl.sendEnvelope(c, signal.Error("bad_payload"))
		return
	}
	if err := env.ValidateInbound(); err != nil {
		log.Warn().Err(err).Str("module", "signalws").Str("conn", string(id)).Str("type", env.Type).Msg("invalid frame")
		ctl.sendEnvelope(c, signal.Error("bad_payload"))
		return
	}

	switch env.Type {
	case signal.TypeJoinRoom:
		ctl.Relay.Join(id, env.RoomID)
	case signal.TypeOffer, signal.TypeAnswer, signal.TypeICECandidate:
		// Forwarded as sent; a missing target is dropped by the relay
		// and never reported back to the sender.
		_ = ctl.Relay.Route(env)
	}
}
