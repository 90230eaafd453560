package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/price-relay/internal/config"
	"github.com/rickgao/price-relay/internal/hub"
)

// Session is one connected client: a WebSocket connection, a unique client
// id, and a bounded outbound queue. It implements hub.Client.
type Session struct {
	id     string
	conn   *websocket.Conn
	hub    *hub.Hub
	out    *hub.Outbox
	cfg    config.ServerConfig
	logger *slog.Logger

	closeOnce sync.Once
}

// newSession wraps an upgraded connection.
func newSession(conn *websocket.Conn, h *hub.Hub, cfg config.ServerConfig, queueSize int, logger *slog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		conn:   conn,
		hub:    h,
		out:    hub.NewOutbox(queueSize),
		cfg:    cfg,
		logger: logger.With("client_id", id),
	}
}

// ID returns the session's client id.
func (s *Session) ID() string {
	return s.id
}

// Send enqueues msg without blocking. Implements hub.Client.
func (s *Session) Send(msg []byte) bool {
	return s.out.TrySend(msg)
}

// Dropped returns how many outbound messages this session has dropped.
func (s *Session) Dropped() int64 {
	return s.out.Dropped()
}

// start launches the session's pumps.
func (s *Session) start() {
	go s.writePump()
	go s.readPump()
}

// close tears the session down exactly once: subscriptions released,
// outbox closed, connection closed, both pumps unblocked.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.hub.Disconnect(s.id)
		s.out.Close()
		s.conn.Close()
	})
}

// readPump consumes client requests until the connection drops.
func (s *Session) readPump() {
	defer s.close()

	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read error", "error", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			s.enqueue(ErrorMessage{Type: "error", Message: "invalid JSON format"})
			continue
		}

		s.handleRequest(req)
	}
}

// handleRequest dispatches one client request. Malformed or unknown
// requests produce an error response on this session only.
func (s *Session) handleRequest(req Request) {
	switch req.Type {
	case TypeSubscribe:
		accepted := s.hub.Subscribe(s.id, req.Symbols)
		if len(accepted) == 0 {
			s.enqueue(ErrorMessage{Type: "error", Message: "no valid symbols provided"})
			return
		}
		s.enqueue(SubscribeAck{
			Type:            "subscribe_success",
			Symbols:         accepted,
			TotalSubscribed: len(s.hub.Symbols(s.id)),
		})

	case TypeUnsubscribe:
		processed := s.hub.Unsubscribe(s.id, req.Symbols)
		if len(processed) == 0 {
			s.enqueue(ErrorMessage{Type: "error", Message: "no valid symbols provided"})
			return
		}
		s.enqueue(UnsubscribeAck{
			Type:            "unsubscribe_success",
			Symbols:         processed,
			TotalSubscribed: len(s.hub.Symbols(s.id)),
		})

	case TypeGetSubscribed:
		s.enqueue(SubscribedList{
			Type:    "subscribed_symbols",
			Symbols: s.hub.Symbols(s.id),
		})

	default:
		s.enqueue(ErrorMessage{
			Type:    "error",
			Message: fmt.Sprintf("unknown message type: %s", req.Type),
		})
	}
}

// enqueue marshals v onto the outbound queue.
func (s *Session) enqueue(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("marshal response", "error", err)
		return
	}
	if !s.out.TrySend(msg) {
		s.logger.Warn("outbound queue full, response dropped")
	}
}

// writePump drains the outbox to the connection and keeps the client alive
// with periodic pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.out.Done():
			s.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.cfg.WriteTimeout),
			)
			return

		case <-s.out.Notify():
			for {
				msg, ok := s.out.TryReceive()
				if !ok {
					break
				}
				s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					s.close()
					return
				}
			}

		case <-ticker.C:
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.close()
				return
			}
		}
	}
}
