package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/timada-org/reelay/internal/core"
)

// SessionEvent is the first frame of every stream; its data is the session id.
const SessionEvent = "session"

type Session struct {
	id        string
	userID    string
	messages  chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(id string, userID string, buffer int) *Session {
	return &Session{
		id:       id,
		userID:   userID,
		messages: make(chan []byte, buffer),
		done:     make(chan struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) UserID() string {
	return s.userID
}

func (s *Session) Send(e *core.Event) error {
	frame, err := encode(e.Name, e.Data)
	if err != nil {
		return err
	}

	select {
	case <-s.done:
		return core.ErrSessionClosed
	default:
	}

	select {
	case s.messages <- frame:
		return nil
	case <-s.done:
		return core.ErrSessionClosed
	default:
		return core.ErrSessionFull
	}
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func encode(name string, data json.RawMessage) ([]byte, error) {
	if err := core.CheckEventName(name); err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.WriteString("event: ")
	buf.WriteString(name)
	buf.WriteString("\ndata: ")

	if len(data) == 0 {
		buf.WriteString("null")
	} else if err := json.Compact(&buf, data); err != nil {
		return nil, err
	}

	buf.WriteString("\n\n")

	return buf.Bytes(), nil
}

func (s *Session) listen(w http.ResponseWriter, r *http.Request, pingInterval time.Duration) {
	defer s.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	id, _ := json.Marshal(s.id)
	hello, _ := encode(SessionEvent, id)

	if _, err := w.Write(hello); err != nil {
		return
	}

	flusher.Flush()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case message := <-s.messages:
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-s.done:
			return

		case <-r.Context().Done():
			return
		}
	}
}
