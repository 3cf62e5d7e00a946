package net

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	handshakeWait  = 10 * time.Second
	maxMessageSize = 1 << 20

	DefaultSendBuffer = 256
)

type options struct {
	logger     *slog.Logger
	sendBuffer int
	welcome    func(peer string) Message
}

// Option configures a Hub or a Client.
type Option func(*options)

// WithLogger sets the logger for connection events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSendBuffer sets how many outbound messages are queued per peer before
// new ones are dropped.
func WithSendBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sendBuffer = n
		}
	}
}

// WithWelcome sets how the hub builds the hello it answers a joining peer
// with.
func WithWelcome(fn func(peer string) Message) Option {
	return func(o *options) {
		o.welcome = fn
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:     slog.Default(),
		sendBuffer: DefaultSendBuffer,
		welcome:    func(string) Message { return Message{} },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Peer is one websocket connection to a remote whiteboard. Only the write
// pump writes data frames to the connection.
type Peer struct {
	ID string

	conn   *websocket.Conn
	send   chan Message
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger

	// Site and highest sequence number seen from the remote clock. Only
	// the read pump touches them after the handshake.
	site string
	seq  uint64
}

func newPeer(id string, conn *websocket.Conn, buffer int, logger *slog.Logger) *Peer {
	return &Peer{
		ID:     id,
		conn:   conn,
		send:   make(chan Message, buffer),
		done:   make(chan struct{}),
		logger: logger.With(slog.String("peer", id)),
	}
}

// Send queues msg for the write pump. It never blocks: when the queue is full
// or the peer is gone the message is dropped and false is returned.
func (p *Peer) Send(msg Message) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.send <- msg:
		return true
	default:
		p.logger.Warn("send buffer full, dropping message", slog.String("type", msg.Type))
		return false
	}
}

// follow records the remote clock announced by the handshake hello.
func (p *Peer) follow(hello Message) {
	p.site = hello.Site
	p.seq = hello.Seq
}

// inOrder reports whether msg continues the remote clock. Messages stamped by
// a different site, and sequence numbers that do not advance, are replays or
// forgeries and are dropped. Unstamped messages pass.
func (p *Peer) inOrder(msg Message) bool {
	if msg.Site != "" && p.site != "" && msg.Site != p.site {
		p.logger.Warn("message from foreign site",
			slog.String("type", msg.Type), slog.String("site", msg.Site))
		return false
	}
	if msg.Seq == 0 {
		return true
	}
	if msg.Seq <= p.seq {
		p.logger.Warn("out-of-order message",
			slog.String("type", msg.Type), slog.Uint64("seq", msg.Seq), slog.Uint64("last", p.seq))
		return false
	}
	p.seq = msg.Seq
	return true
}

// Close stops both pumps and closes the connection.
func (p *Peer) Close() {
	p.once.Do(func() {
		close(p.done)
	})
}

// Done is closed once the peer has been closed.
func (p *Peer) Done() <-chan struct{} {
	return p.done
}

func (p *Peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case msg := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteJSON(msg); err != nil {
				p.logger.Warn("write failed", slog.String("error", err.Error()))
				p.Close()
				return
			}
		case <-ticker.C:
			if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				p.Close()
				return
			}
		case <-p.done:
			_ = p.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// readPump delivers messages until the connection fails or is closed. A clean
// close returns nil.
func (p *Peer) readPump(handle func(Message)) error {
	defer p.Close()

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			select {
			case <-p.done:
				return nil
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			p.logger.Warn("malformed message", slog.String("error", err.Error()))
			continue
		}
		if !p.inOrder(msg) {
			continue
		}
		handle(msg)
	}
}

var errHandshake = errors.New("handshake failed")
