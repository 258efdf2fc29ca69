// Package gateway upgrades HTTP connections to websockets and adapts each
// one to the hub's Session contract: a non-blocking outbound buffer with a
// write pump, and a read pump that turns client JSON into hub commands.
package gateway

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"oscbridge/hub"
)

const (
	// sendBuffer bounds the per-session outbound queue. A session that
	// cannot drain it loses the oldest messages first.
	sendBuffer = 64

	writeTimeout = 10 * time.Second
)

// Gateway serves the websocket endpoint.
type Gateway struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func New(h *hub.Hub, log *zap.Logger) *Gateway {
	return &Gateway{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Trusted local operator; the bridge binds to loopback.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s := &session{
		conn:     conn,
		out:      make(chan any, sendBuffer),
		shutdown: make(chan struct{}),
		log:      g.log.With(zap.String("remote", conn.RemoteAddr().String())),
	}

	g.hub.Register(s)
	go s.writePump(g.hub)
	go s.readPump(g.hub)
}

// session is one websocket client.
type session struct {
	conn     *websocket.Conn
	out      chan any
	shutdown chan struct{}
	once     sync.Once
	log      *zap.Logger
}

// Send queues a message without blocking. When the buffer is full the
// oldest queued message is discarded to make room.
func (s *session) Send(msg any) {
	select {
	case s.out <- msg:
	default:
		select {
		case <-s.out:
		default:
		}
		select {
		case s.out <- msg:
		default:
		}
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.shutdown)
		s.conn.Close()
	})
}

// writePump drains the outbound buffer onto the wire. A write failure is
// a disconnect: the session unregisters itself and closes.
func (s *session) writePump(h *hub.Hub) {
	defer func() {
		h.Unregister(s)
		s.close()
	}()
	for {
		select {
		case <-s.shutdown:
			return
		case msg := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.log.Info("session write failed", zap.Error(err))
				return
			}
		}
	}
}

// clientMessage is the inbound frame shape. send and notification default
// to true when absent, matching the chatbox endpoint's common case.
type clientMessage struct {
	Type         string `json:"type"`
	Address      string `json:"address"`
	Value        any    `json:"value"`
	Text         string `json:"text"`
	Send         *bool  `json:"send"`
	Notification *bool  `json:"notification"`
}

// readPump turns inbound frames into hub commands. Malformed JSON is
// dropped without killing the session; a transport error ends it.
func (s *session) readPump(h *hub.Hub) {
	defer func() {
		h.Unregister(s)
		s.close()
	}()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Info("session read failed", zap.Error(err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Debug("malformed client message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case "set":
			h.SetParameter(s, msg.Address, msg.Value)
		case "chatbox":
			h.Chatbox(msg.Text, boolOr(msg.Send, true), boolOr(msg.Notification, true))
		default:
			s.log.Debug("unknown client message type", zap.String("type", msg.Type))
		}
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
