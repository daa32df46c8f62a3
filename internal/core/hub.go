package core

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// ClientHandler reacts to a message emitted by the remote end of a session.
type ClientHandler func(session Session, msg *ClientMessage)

type HubOptions struct {
	Logger *logrus.Logger
}

// Hub is the table of every live push session, whatever its transport. It
// keeps the Registry in step with connects and disconnects.
type Hub struct {
	mux      sync.RWMutex
	sessions map[string]Session
	handlers map[string]ClientHandler
	fallback ClientHandler
	registry *Registry
	logger   *logrus.Logger
}

func NewHub(options *HubOptions) *Hub {
	logger := options.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	hub := &Hub{
		sessions: make(map[string]Session),
		handlers: make(map[string]ClientHandler),
		logger:   logger,
	}

	hub.registry = NewRegistry(hub.Drop)

	return hub
}

func (hub *Hub) Registry() *Registry {
	return hub.registry
}

// Connect makes session visible to broadcasts. A session carrying a user id
// replaces, and terminates, any previous session of that user before Connect
// returns.
func (hub *Hub) Connect(session Session) {
	hub.mux.Lock()
	hub.sessions[session.ID()] = session
	hub.mux.Unlock()

	hub.logger.WithFields(logrus.Fields{
		"session_id": session.ID(),
		"user_id":    session.UserID(),
	}).Info("session connected")

	userID := session.UserID()
	if userID == "" {
		return
	}

	hub.registry.Register(userID, session)

	// a Drop that ran between the insert and Register found nothing to
	// unregister
	if current, live := hub.Get(session.ID()); !live || current != session {
		hub.registry.Unregister(userID, session)
	}
}

// Disconnect forgets session. It reports false when the session was already
// gone, which happens when a transport notices the close of a session the hub
// dropped itself.
func (hub *Hub) Disconnect(session Session) bool {
	hub.mux.Lock()
	current, ok := hub.sessions[session.ID()]
	if !ok || current != session {
		hub.mux.Unlock()
		return false
	}
	delete(hub.sessions, session.ID())
	hub.mux.Unlock()

	if userID := session.UserID(); userID != "" {
		hub.registry.Unregister(userID, session)
	}

	hub.logger.WithFields(logrus.Fields{
		"session_id": session.ID(),
		"user_id":    session.UserID(),
	}).Info("session disconnected")

	return true
}

// Drop disconnects session and closes its connection.
func (hub *Hub) Drop(session Session) {
	hub.Disconnect(session)
	session.Close()
}

func (hub *Hub) Get(id string) (Session, bool) {
	hub.mux.RLock()
	defer hub.mux.RUnlock()

	session, ok := hub.sessions[id]

	return session, ok
}

// Sessions returns a snapshot of the live sessions.
func (hub *Hub) Sessions() []Session {
	hub.mux.RLock()
	defer hub.mux.RUnlock()

	sessions := make([]Session, 0, len(hub.sessions))
	for _, session := range hub.sessions {
		sessions = append(sessions, session)
	}

	return sessions
}

func (hub *Hub) Len() int {
	hub.mux.RLock()
	defer hub.mux.RUnlock()

	return len(hub.sessions)
}

func (hub *Hub) Send(session Session, e *Event) error {
	return session.Send(e)
}

// OnClientEvent installs the handler for messages named name.
func (hub *Hub) OnClientEvent(name string, handler ClientHandler) {
	hub.mux.Lock()
	defer hub.mux.Unlock()

	hub.handlers[name] = handler
}

// OnUnhandledClientEvent installs the handler used for names without one.
func (hub *Hub) OnUnhandledClientEvent(handler ClientHandler) {
	hub.mux.Lock()
	defer hub.mux.Unlock()

	hub.fallback = handler
}

// Dispatch routes every message a transport reads from its remote end.
func (hub *Hub) Dispatch(session Session, msg *ClientMessage) {
	if err := CheckEventName(msg.Name); err != nil {
		hub.logger.WithField("session_id", session.ID()).WithError(err).Warn("client message refused")
		return
	}

	hub.mux.RLock()
	current, live := hub.sessions[session.ID()]
	handler, ok := hub.handlers[msg.Name]
	if !ok {
		handler = hub.fallback
	}
	hub.mux.RUnlock()

	if !live || current != session {
		return
	}

	if handler == nil {
		hub.logger.WithFields(logrus.Fields{
			"session_id": session.ID(),
			"name":       msg.Name,
		}).Debug("no handler for client message")
		return
	}

	handler(session, msg)
}
