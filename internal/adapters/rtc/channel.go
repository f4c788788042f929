// Package rtc implements the negotiation channel context on
// pion/webrtc. The state machine in internal/client only ever sees
// opaque JSON blobs; this adapter gives them their WebRTC meaning.
package rtc

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/domain"
)

func DefaultConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// Channel wraps one PeerConnection negotiated with one remote peer.
type Channel struct {
	pc     *webrtc.PeerConnection
	dc     *webrtc.DataChannel
	remote domain.ConnID
}

// NewChannel builds a PeerConnection with a data channel attached, so
// an offer created on it produces ICE activity even before any media
// is added.
func NewChannel(cfg webrtc.Configuration, remote domain.ConnID) (*Channel, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}
	dc, err := pc.CreateDataChannel("comms", nil)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("create data channel: %w", err)
	}

	c := &Channel{pc: pc, dc: dc, remote: remote}

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("remote", string(remote)).Str("state", s.String()).Msg("peer state")
	})
	pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Debug().Str("module", "rtc").Str("remote", string(remote)).Str("ice_state", s.String()).Msg("ICE state")
	})

	return c, nil
}

// OnICECandidate registers the trickle callback. Gathered candidates
// are handed over as their JSON form; nil (end of gathering) is not
// forwarded.
func (c *Channel) OnICECandidate(fn func(json.RawMessage)) {
	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		b, err := json.Marshal(cand.ToJSON())
		if err != nil {
			log.Error().Err(err).Str("module", "rtc").Msg("encode candidate")
			return
		}
		fn(b)
	})
}

func (c *Channel) CreateOffer() (json.RawMessage, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("set local offer: %w", err)
	}
	return json.Marshal(offer)
}

func (c *Channel) CreateAnswer() (json.RawMessage, error) {
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("set local answer: %w", err)
	}
	return json.Marshal(answer)
}

func (c *Channel) SetRemoteDescription(sdp json.RawMessage) error {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(sdp, &desc); err != nil {
		return fmt.Errorf("decode remote description: %w", err)
	}
	return c.pc.SetRemoteDescription(desc)
}

func (c *Channel) AddICECandidate(candidate json.RawMessage) error {
	var init webrtc.ICECandidateInit
	if err := json.Unmarshal(candidate, &init); err != nil {
		return fmt.Errorf("decode candidate: %w", err)
	}
	return c.pc.AddICECandidate(init)
}

func (c *Channel) Close() error {
	return c.pc.Close()
}

// OnOpen fires when a data channel with the remote peer opens, whether
// it is the locally created one or one announced by the remote side.
func (c *Channel) OnOpen(fn func()) {
	c.dc.OnOpen(fn)
	c.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		dc.OnOpen(fn)
	})
}
