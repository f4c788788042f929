package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/domain"
	"github.com/Ali4mini/internal-comms/internal/signal"
)

// Client maintains the persistent signaling connection and feeds
// incoming envelopes to the negotiation manager.
type Client struct {
	conn    *websocket.Conn
	Manager *Manager

	writeMu sync.Mutex
}

// Dial connects to the signaling relay, presenting the token with the
// handshake. The returned client is not reading yet; call Run.
func Dial(ctx context.Context, signalURL, token string, factory ChannelFactory) (*Client, error) {
	u := signalURL + "?token=" + url.QueryEscape(token)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("connection refused: authentication error")
		}
		return nil, fmt.Errorf("dial signaling: %w", err)
	}
	c := &Client{conn: conn}
	c.Manager = NewManager(c, factory)
	return c, nil
}

// Send routes an envelope to the relay. Safe for concurrent use; the
// write lock keeps one sender's messages in order.
func (c *Client) Send(env signal.Envelope) error {
	b, err := env.Marshal()
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// JoinRoom announces this connection in a discovery scope. Existing
// members will react with offers addressed to our connection id.
func (c *Client) JoinRoom(roomID domain.RoomID) error {
	return c.Send(signal.Envelope{Type: signal.TypeJoinRoom, RoomID: roomID})
}

// Run reads envelopes until the context ends or the transport closes.
// Negotiation failures are terminal per peer but never kill the
// connection; a fresh join restarts negotiation.
func (c *Client) Run(ctx context.Context) error {
	defer c.Manager.Close()
	go func() {
		<-ctx.Done()
		_ = c.conn.Close()
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("signaling read: %w", err)
		}
		env, err := signal.Parse(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "client").Msg("unparseable frame")
			continue
		}
		if err := c.Manager.HandleEnvelope(env); err != nil {
			log.Error().Err(err).Str("module", "client").Str("type", env.Type).Msg("envelope handling failed")
		}
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Login obtains a session token from the auth service.
func Login(ctx context.Context, authURL, username string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL+"/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login rejected: status %d", resp.StatusCode)
	}

	var out struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("login response without token")
	}
	return out.Token, nil
}
