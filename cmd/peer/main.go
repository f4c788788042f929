// Command peer is a headless client: it logs in, connects to the
// signaling relay, joins a room and negotiates a data channel with
// every peer it discovers there.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/adapters/rtc"
	"github.com/Ali4mini/internal-comms/internal/client"
	"github.com/Ali4mini/internal-comms/internal/domain"
)

func main() {
	authURL := flag.String("auth", "http://localhost:3000", "auth server base URL")
	signalURL := flag.String("signal", "ws://localhost:4000/ws/signal", "signaling WebSocket URL")
	room := flag.String("room", "room-1", "room to join")
	username := flag.String("user", "", "username to log in as")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *username == "" {
		log.Fatal().Msg("-user is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	token, err := client.Login(ctx, *authURL, *username)
	if err != nil {
		log.Fatal().Err(err).Msg("login failed")
	}
	log.Info().Str("username", *username).Msg("logged in")

	factory := func(remote domain.ConnID, n *client.Negotiator) (client.ChannelContext, error) {
		ch, err := rtc.NewChannel(rtc.DefaultConfig(), remote)
		if err != nil {
			return nil, err
		}
		ch.OnICECandidate(func(cand json.RawMessage) {
			if err := n.SendLocalCandidate(cand); err != nil {
				log.Warn().Err(err).Str("remote", string(remote)).Msg("candidate send failed")
			}
		})
		ch.OnOpen(func() {
			log.Info().Str("remote", string(remote)).Msg("data channel open")
		})
		return ch, nil
	}

	c, err := client.Dial(ctx, *signalURL, token, factory)
	if err != nil {
		log.Fatal().Err(err).Msg("signaling connect failed")
	}
	defer c.Close()

	if err := c.JoinRoom(domain.RoomID(*room)); err != nil {
		log.Fatal().Err(err).Msg("join failed")
	}
	log.Info().Str("room", *room).Msg("joined room")

	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("signaling loop ended")
	}
}
