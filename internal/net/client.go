package net

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"LocalDoodle/internal/state"
)

var (
	_ state.Sender      = (*Hub)(nil)
	_ state.BrushSender = (*Hub)(nil)
	_ state.Sender      = (*Client)(nil)
	_ state.BrushSender = (*Client)(nil)
)

// Client is run by a JOINER. It holds the single connection to the host.
type Client struct {
	self    string
	clock   *Clock
	handler Handler
	opts    options

	peer    *Peer
	welcome Message
}

// Dial connects to the host at addr (host:port), introduces itself as self and
// waits for the host's hello.
func Dial(ctx context.Context, addr, self string, clock *Clock, handler Handler, opts ...Option) (*Client, error) {
	c := &Client{
		self:    self,
		clock:   clock,
		handler: handler,
		opts:    newOptions(opts),
	}

	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	dialer := websocket.Dialer{HandshakeTimeout: handshakeWait}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}

	hello := c.stamp(Message{Type: TypeHello})
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}
	welcome, err := readHello(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.clock.Observe(welcome.Seq)
	c.welcome = welcome

	host := state.NormalizeID(welcome.From)
	c.peer = newPeer(host, conn, c.opts.sendBuffer, c.opts.logger)
	c.peer.follow(welcome)
	c.opts.logger.Info("connected to host", slog.String("host", host), slog.String("address", addr))
	return c, nil
}

// Host returns the normalised identity of the host.
func (c *Client) Host() string { return c.peer.ID }

// Welcome returns the hello the host answered with.
func (c *Client) Welcome() Message { return c.welcome }

// Run delivers the host's hello and then every message the host sends until
// ctx is cancelled or the connection drops. A bye is delivered last.
func (c *Client) Run(ctx context.Context) error {
	go c.peer.writePump()
	go func() {
		select {
		case <-ctx.Done():
			c.peer.Close()
		case <-c.peer.Done():
		}
	}()

	host := c.peer.ID
	c.handler(host, c.welcome)
	err := c.peer.readPump(func(msg Message) {
		c.clock.Observe(msg.Seq)
		c.handler(host, msg)
	})
	c.handler(host, Message{Type: TypeBye, From: host})
	if err != nil {
		return fmt.Errorf("connection to %s: %w", host, err)
	}
	return nil
}

// Close disconnects from the host.
func (c *Client) Close() {
	c.peer.Close()
}

func (c *Client) SendStroke(peer string, list state.DrawList) {
	c.send(peer, Message{Type: TypeDraw, Points: list.Flatten()})
}

func (c *Client) SendClear(peer string) {
	c.send(peer, Message{Type: TypeClear})
}

func (c *Client) SendBrush(peer string, b state.Brush) {
	c.send(peer, Message{Type: TypeBrush, Brush: &b})
}

func (c *Client) send(peer string, msg Message) {
	if id := state.NormalizeID(peer); id != c.peer.ID {
		c.opts.logger.Warn("not connected to peer, dropping message",
			slog.String("peer", id), slog.String("type", msg.Type))
		return
	}
	c.peer.Send(c.stamp(msg))
}

func (c *Client) stamp(msg Message) Message {
	msg.From = c.self
	msg.Site = c.clock.Site()
	msg.Seq = c.clock.Tick()
	return msg
}
