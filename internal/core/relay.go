package core

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Mirror receives every event after local fan-out.
type Mirror interface {
	Publish(ctx context.Context, e *Event) error
}

type RelayOptions struct {
	Hub    *Hub
	Mirror Mirror
	Logger *logrus.Logger
	// ClientEvents lists the patterns of client message names that are
	// rebroadcast. Empty allows every name.
	ClientEvents []*EventPattern
}

// Relay fans an event out to every live session of the hub.
type Relay struct {
	mux     sync.Mutex
	hub     *Hub
	mirror  Mirror
	logger  *logrus.Logger
	allowed []*EventPattern
}

func NewRelay(options *RelayOptions) *Relay {
	logger := options.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	relay := &Relay{
		hub:     options.Hub,
		mirror:  options.Mirror,
		logger:  logger,
		allowed: options.ClientEvents,
	}

	options.Hub.OnUnhandledClientEvent(relay.relayClientEvent)

	return relay
}

// Broadcast delivers e to every connected session and returns how many
// accepted it. Sessions that fail are dropped.
func (relay *Relay) Broadcast(ctx context.Context, e *Event) int {
	relay.mux.Lock()
	defer relay.mux.Unlock()

	delivered := 0

	for _, session := range relay.hub.Sessions() {
		if err := relay.hub.Send(session, e); err != nil {
			relay.logger.WithFields(logrus.Fields{
				"session_id": session.ID(),
				"user_id":    session.UserID(),
				"event":      e.Name,
			}).WithError(err).Warn("dropping session after failed send")

			relay.hub.Drop(session)
			continue
		}

		delivered++
	}

	relay.logger.WithFields(logrus.Fields{
		"kind":      e.Kind,
		"event":     e.Name,
		"delivered": delivered,
	}).Debug("event broadcast")

	if relay.mirror != nil {
		if err := relay.mirror.Publish(ctx, e); err != nil {
			relay.logger.WithField("event", e.Name).WithError(err).Error("mirror publish failed")
		}
	}

	return delivered
}

func (relay *Relay) relayClientEvent(session Session, msg *ClientMessage) {
	if !relay.allows(msg.Name) {
		relay.logger.WithFields(logrus.Fields{
			"session_id": session.ID(),
			"name":       msg.Name,
		}).Warn("client event not allowed")
		return
	}

	relay.Broadcast(context.Background(), PeerRelay(msg.Name, msg.Data))
}

func (relay *Relay) allows(name string) bool {
	if len(relay.allowed) == 0 {
		return true
	}

	for _, pattern := range relay.allowed {
		if pattern.Match(name) {
			return true
		}
	}

	return false
}
