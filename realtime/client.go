// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

/*
Package realtime maintains the persistent notification stream.

The party service pushes JSON-encoded notification envelopes over a
websocket connection. This client owns the connection lifecycle
(handshake, keepalive, reconnect with exponential backoff) and hands
every inbound frame to a single registered handler; it also carries the
party group-chat frames (room join/leave/message).
*/
package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/partyline/partyline/internal/logging"
	"github.com/partyline/partyline/internal/metrics"
)

// Options tunes the stream connection. Zero values fall back to defaults.
type Options struct {
	HandshakeTimeout  time.Duration
	KeepaliveInterval time.Duration
	ReconnectMinDelay time.Duration
	ReconnectMaxDelay time.Duration

	// ReadDeadline bounds silence on the wire before the connection is
	// considered dead. Default: 60s.
	ReadDeadline time.Duration
}

func (o *Options) applyDefaults() {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.KeepaliveInterval <= 0 {
		o.KeepaliveInterval = 30 * time.Second
	}
	if o.ReconnectMinDelay <= 0 {
		o.ReconnectMinDelay = 1 * time.Second
	}
	if o.ReconnectMaxDelay <= 0 {
		o.ReconnectMaxDelay = 32 * time.Second
	}
	if o.ReadDeadline <= 0 {
		o.ReadDeadline = 60 * time.Second
	}
}

// Client manages the websocket connection to the notification stream.
type Client struct {
	wsURL string
	token string
	opts  Options

	conn   *websocket.Conn
	connMu sync.RWMutex

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	handlerMu sync.RWMutex
	handler   func([]byte)
}

// outboundFrame is the envelope for frames this client originates. Chat
// messages carry a client-generated ID so the server can deduplicate
// retransmissions after a reconnect.
type outboundFrame struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	Room     string `json:"room,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Body     string `json:"body,omitempty"`
}

// NewClient creates a stream client. The token authenticates the
// connection during the handshake.
func NewClient(wsURL, token string, opts Options) *Client {
	opts.applyDefaults()
	return &Client{
		wsURL:    wsURL,
		token:    token,
		opts:     opts,
		stopChan: make(chan struct{}),
	}
}

// SetHandler registers the single inbound-frame handler. The handler runs
// on the listener goroutine and must not block.
func (c *Client) SetHandler(fn func([]byte)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.handler = fn
}

// Connect establishes the websocket connection and starts the listener and
// keepalive goroutines. Idempotent while connected.
func (c *Client) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}

	logging.Info().Str("url", c.wsURL).Msg("connecting to notification stream")

	dialer := websocket.Dialer{
		HandshakeTimeout:  c.opts.HandshakeTimeout,
		EnableCompression: true,
	}
	header := map[string][]string{
		"Authorization": {"Bearer " + c.token},
	}

	conn, resp, err := dialer.DialContext(ctx, c.wsURL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("stream dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("stream dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c.conn = conn
	metrics.RealtimeConnected.Set(1)
	logging.Info().Msg("notification stream connected")

	c.wg.Add(2)
	go c.listen(ctx)
	go c.keepaliveLoop(ctx)

	return nil
}

// listen reads inbound frames, reconnecting with exponential backoff when
// the connection drops.
func (c *Client) listen(ctx context.Context) {
	defer c.wg.Done()

	delay := c.opts.ReconnectMinDelay

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		default:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()

			if conn == nil {
				logging.Info().Dur("delay", delay).Msg("stream disconnected, reconnecting")
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return
				case <-c.stopChan:
					return
				}
				delay *= 2
				if delay > c.opts.ReconnectMaxDelay {
					delay = c.opts.ReconnectMaxDelay
				}

				metrics.RealtimeReconnects.Inc()
				if err := c.redial(ctx); err != nil {
					logging.Err(err).Msg("stream reconnection failed")
					continue
				}
				delay = c.opts.ReconnectMinDelay
				continue
			}

			if err := conn.SetReadDeadline(time.Now().Add(c.opts.ReadDeadline)); err != nil {
				logging.Err(err).Msg("failed to set read deadline")
			}

			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logging.Info().Msg("stream closed by server")
				} else if ctx.Err() == nil {
					logging.Err(err).Msg("stream read error")
				}
				c.closeConnection()
				continue
			}

			delay = c.opts.ReconnectMinDelay
			c.deliver(message)
		}
	}
}

// redial re-establishes the connection without spawning new goroutines.
func (c *Client) redial(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout:  c.opts.HandshakeTimeout,
		EnableCompression: true,
	}
	header := map[string][]string{
		"Authorization": {"Bearer " + c.token},
	}
	conn, resp, err := dialer.DialContext(ctx, c.wsURL, header)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c.conn = conn
	metrics.RealtimeConnected.Set(1)
	logging.Info().Msg("notification stream reconnected")
	return nil
}

// deliver hands one frame to the registered handler.
func (c *Client) deliver(message []byte) {
	c.handlerMu.RLock()
	handler := c.handler
	c.handlerMu.RUnlock()

	if handler != nil {
		handler(message)
	}
}

// keepaliveLoop sends periodic keepalive frames.
func (c *Client) keepaliveLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.opts.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			if err := c.writeFrame(outboundFrame{Type: "keepalive"}); err != nil {
				logging.Err(err).Msg("keepalive failed")
				c.closeConnection()
			}
		}
	}
}

// JoinRoom enters a party chat room under the given nickname.
func (c *Client) JoinRoom(roomID, nickname string) error {
	return c.writeFrame(outboundFrame{Type: "chat.join", Room: roomID, Nickname: nickname})
}

// LeaveRoom exits a party chat room.
func (c *Client) LeaveRoom(roomID string) error {
	return c.writeFrame(outboundFrame{Type: "chat.leave", Room: roomID})
}

// SendRoomMessage sends a message to a party chat room.
func (c *Client) SendRoomMessage(roomID, body string) error {
	return c.writeFrame(outboundFrame{Type: "chat.message", ID: uuid.NewString(), Room: roomID, Body: body})
}

// writeFrame marshals and writes one outbound frame.
func (c *Client) writeFrame(frame outboundFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("realtime: not connected")
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// closeConnection safely tears down the websocket connection.
func (c *Client) closeConnection() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return
	}

	if err := c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(1*time.Second),
	); err != nil {
		logging.Debug().Err(err).Msg("failed to send close frame")
	}
	if err := c.conn.Close(); err != nil {
		logging.Debug().Err(err).Msg("failed to close connection")
	}
	c.conn = nil
	metrics.RealtimeConnected.Set(0)
}

// IsConnected reports whether the stream is currently connected.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn != nil
}

// Close shuts the client down and waits for its goroutines.
func (c *Client) Close() error {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.closeConnection()
	c.wg.Wait()
	logging.Info().Msg("notification stream client closed")
	return nil
}
