package net

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"LocalDoodle/internal/state"
)

// Hub is run by the HOST. It accepts joining peers over websocket and routes
// outgoing strokes to the peer a session belongs to.
type Hub struct {
	self     string
	clock    *Clock
	handler  Handler
	opts     options
	upgrader websocket.Upgrader

	peers map[string]*Peer
	mu    sync.RWMutex
}

// NewHub creates a hub that identifies itself as self and passes every
// incoming message to handler.
func NewHub(self string, clock *Clock, handler Handler, opts ...Option) *Hub {
	return &Hub{
		self:    self,
		clock:   clock,
		handler: handler,
		opts:    newOptions(opts),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Peers are desktop clients on the local network, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		peers: make(map[string]*Peer),
	}
}

// ServeHTTP upgrades the request and serves the peer until it disconnects.
// The first frame must be a hello carrying the peer's identity.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.opts.logger
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	hello, err := readHello(conn)
	if err != nil {
		logger.Warn("rejecting peer", slog.String("remote", r.RemoteAddr), slog.String("error", err.Error()))
		conn.Close()
		return
	}
	id := state.NormalizeID(hello.From)
	h.clock.Observe(hello.Seq)

	// Stamped before the peer is reachable so nothing queued for it can
	// carry a lower sequence number than the welcome.
	welcome := h.stamp(h.opts.welcome(id))
	welcome.Type = TypeHello

	p := newPeer(id, conn, h.opts.sendBuffer, logger)
	p.follow(hello)
	if !h.add(p) {
		logger.Warn("peer already connected", slog.String("peer", id))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "already connected"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	defer h.remove(p)

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(welcome); err != nil {
		logger.Warn("welcome failed", slog.String("peer", id), slog.String("error", err.Error()))
		conn.Close()
		return
	}

	logger.Info("peer connected", slog.String("peer", id), slog.String("remote", r.RemoteAddr))
	h.handler(id, hello)

	go p.writePump()
	err = p.readPump(func(msg Message) {
		h.clock.Observe(msg.Seq)
		h.handler(id, msg)
	})
	if err != nil {
		logger.Warn("peer connection lost", slog.String("peer", id), slog.String("error", err.Error()))
	} else {
		logger.Info("peer disconnected", slog.String("peer", id))
	}
	h.handler(id, Message{Type: TypeBye, From: id})
}

func readHello(conn *websocket.Conn) (Message, error) {
	var hello Message
	_ = conn.SetReadDeadline(time.Now().Add(handshakeWait))
	if err := conn.ReadJSON(&hello); err != nil {
		return hello, fmt.Errorf("%w: %w", errHandshake, err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	if hello.Type != TypeHello {
		return hello, fmt.Errorf("%w: expected %q, got %q", errHandshake, TypeHello, hello.Type)
	}
	if state.NormalizeID(hello.From) == "" {
		return hello, fmt.Errorf("%w: empty identity", errHandshake)
	}
	return hello, nil
}

func (h *Hub) add(p *Peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[p.ID]; ok {
		return false
	}
	h.peers[p.ID] = p
	return true
}

func (h *Hub) remove(p *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.peers[p.ID] == p {
		delete(h.peers, p.ID)
	}
	p.Close()
}

// Peers returns the identities of the connected peers, sorted.
func (h *Hub) Peers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.peers))
	for id := range h.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close disconnects every peer.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.peers {
		p.Close()
	}
}

func (h *Hub) SendStroke(peer string, list state.DrawList) {
	h.send(peer, Message{Type: TypeDraw, Points: list.Flatten()})
}

func (h *Hub) SendClear(peer string) {
	h.send(peer, Message{Type: TypeClear})
}

func (h *Hub) SendBrush(peer string, b state.Brush) {
	h.send(peer, Message{Type: TypeBrush, Brush: &b})
}

func (h *Hub) send(peer string, msg Message) {
	id := state.NormalizeID(peer)
	h.mu.RLock()
	p, ok := h.peers[id]
	h.mu.RUnlock()
	if !ok {
		h.opts.logger.Warn("no connection for peer, dropping message",
			slog.String("peer", id), slog.String("type", msg.Type))
		return
	}
	p.Send(h.stamp(msg))
}

func (h *Hub) stamp(msg Message) Message {
	msg.From = h.self
	msg.Site = h.clock.Site()
	msg.Seq = h.clock.Tick()
	return msg
}
