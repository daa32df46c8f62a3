package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/timada-org/reelay/internal/core"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

type Session struct {
	id        string
	userID    string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(id string, userID string, conn *websocket.Conn, buffer int) *Session {
	return &Session{
		id:     id,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) UserID() string {
	return s.userID
}

func (s *Session) Send(e *core.Event) error {
	frame, err := json.Marshal(e)
	if err != nil {
		return err
	}

	select {
	case <-s.done:
		return core.ErrSessionClosed
	default:
	}

	select {
	case s.send <- frame:
		return nil
	case <-s.done:
		return core.ErrSessionClosed
	default:
		return core.ErrSessionFull
	}
}

// Close asks the write pump to send a close frame and drop the connection.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *Session) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		s.Close()
		s.conn.Close()
	}()

	for {
		select {
		case message := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-s.done:
			_ = s.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
				time.Now().Add(writeWait),
			)
			return
		}
	}
}

// readPump feeds client messages to the hub until the connection fails.
func (s *Session) readPump(hub *core.Hub, pongWait time.Duration, logger *logrus.Logger) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WithField("session_id", s.id).WithError(err).Debug("ws read failed")
			}
			return
		}

		var msg core.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.WithField("session_id", s.id).WithError(err).Warn("invalid client message")
			continue
		}

		hub.Dispatch(s, &msg)
	}
}
