package internal

import (
	"errors"
	"image"
	"log/slog"

	"LocalDoodle/internal/net"
	"LocalDoodle/internal/session"
)

// inbox routes messages from the transport to the session they belong to.
type inbox struct {
	dir     *session.Directory
	onBrush func(peer string)
	logger  *slog.Logger
}

func newInbox(dir *session.Directory, onBrush func(peer string), logger *slog.Logger) *inbox {
	return &inbox{dir: dir, onBrush: onBrush, logger: logger}
}

// Handle is a net.Handler.
func (in *inbox) Handle(peer string, msg net.Message) {
	logger := in.logger.With(slog.String("peer", peer), slog.String("type", msg.Type))

	if msg.Type == net.TypeHello {
		s, err := in.dir.Open(peer, image.Pt(msg.Width, msg.Height))
		if err != nil {
			logger.Error("cannot open session", slog.String("error", err.Error()))
			return
		}
		if msg.Brush != nil {
			s.ApplyBrush(*msg.Brush)
		}
		return
	}

	if msg.Type == net.TypeBye {
		if err := in.dir.Close(peer); err != nil && !errors.Is(err, session.ErrNotFound) {
			logger.Warn("close session", slog.String("error", err.Error()))
		}
		return
	}

	s, ok := in.dir.Find(peer)
	if !ok {
		logger.Warn("message for unknown session")
		return
	}

	switch msg.Type {
	case net.TypeDraw:
		list, err := msg.DrawList()
		if err != nil {
			logger.Warn("malformed draw list", slog.String("error", err.Error()))
			return
		}
		s.ApplyStroke(list)
	case net.TypeClear:
		s.ApplyClear()
	case net.TypeBrush:
		if msg.Brush == nil {
			logger.Warn("brush message without brush")
			return
		}
		s.ApplyBrush(*msg.Brush)
		if in.onBrush != nil {
			in.onBrush(s.Peer)
		}
	default:
		logger.Warn("unknown message type")
	}
}
