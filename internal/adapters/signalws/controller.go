package signalws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/app"
	"github.com/Ali4mini/internal-comms/internal/core"
	"github.com/Ali4mini/internal-comms/internal/domain"
	"github.com/Ali4mini/internal-comms/internal/signal"
)

// IdentityKey is where the auth middleware stashes the verified
// identity in the gin context.
const IdentityKey = "identity"

type Options struct {
	ReadLimit  int64
	SendBuffer int
	PingPeriod time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadLimit == 0 {
		o.ReadLimit = 32768
	}
	if o.SendBuffer == 0 {
		o.SendBuffer = 32
	}
	if o.PingPeriod == 0 {
		o.PingPeriod = 54 * time.Second
	}
	return o
}

type Controller struct {
	Relay *app.Relay
	opts  Options
}

func NewController(relay *app.Relay, opts Options) *Controller {
	return &Controller{Relay: relay, opts: opts.withDefaults()}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades an already-authenticated request and runs the
// connection until the transport closes. The identity must have been
// attached by the auth middleware; without it the request is refused.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	val, ok := c.Get(IdentityKey)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication error"})
		return
	}
	ident := val.(domain.Identity)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signalws").Msg("ws upgrade")
		return
	}

	connID := domain.ConnID(uuid.NewString())
	conn := newConn(ws, ctl.opts.SendBuffer)
	sess := core.NewPeerSession(ident, conn)

	ctx, cancel := context.WithCancel(ctx)
	ctl.Relay.Connect(connID, sess, cancel)
	log.Info().Str("module", "signalws").Str("conn", string(connID)).Str("username", ident.Username).Msg("connection established")

	ctl.sendEnvelope(conn, signal.Welcome(connID))

	go ctl.writePump(ctx, connID, conn)
	go ctl.readPump(ctx, connID, conn)
}

func (ctl *Controller) sendEnvelope(c *Conn, env signal.Envelope) {
	b, err := env.Marshal()
	if err != nil {
		log.Error().Err(err).Str("module", "signalws").Msg("encode envelope")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signalws").Str("type", env.Type).Msg("send dropped")
	}
}
