package signalws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, id domain.ConnID, c *Conn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signalws").Str("conn", string(id)).Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signalws").Str("conn", string(id)).Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signalws").Str("conn", string(id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signalws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signalws").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump owns connection teardown: when the transport closes, the
// connection leaves every room and stops being routable before the
// pump returns.
func (ctl *Controller) readPump(ctx context.Context, id domain.ConnID, c *Conn) {
	defer func() {
		log.Info().Str("module", "signalws").Str("conn", string(id)).Msg("readPump closing")
		ctl.Relay.Disconnect(id)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signalws").Str("conn", string(id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "signalws").Str("conn", string(id)).Msg("readPump read error")
				return
			}
			ctl.handleFrame(id, c, data)
		}
	}
}
