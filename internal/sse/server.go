package sse

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/timada-org/reelay/internal/core"
)

type ServerOptions struct {
	Hub          *core.Hub
	Identify     core.Identify
	SendBuffer   int
	PingInterval time.Duration
	Logger       *logrus.Logger
}

// Server streams hub events to browsers as server-sent events. It is one way
// only: client events need the websocket transport.
type Server struct {
	hub          *core.Hub
	identify     core.Identify
	sendBuffer   int
	pingInterval time.Duration
	logger       *logrus.Logger
}

func New(options ServerOptions) *Server {
	s := &Server{
		hub:          options.Hub,
		identify:     options.Identify,
		sendBuffer:   options.SendBuffer,
		pingInterval: options.PingInterval,
		logger:       options.Logger,
	}

	if s.identify == nil {
		s.identify = core.QueryIdentity
	}

	if s.sendBuffer <= 0 {
		s.sendBuffer = 64
	}

	if s.pingInterval <= 0 {
		s.pingInterval = 25 * time.Second
	}

	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}

	return s
}

func (s *Server) HandleFunc() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if _, ok := w.(http.Flusher); !ok {
			http.Error(w, "Streaming unsupported.", http.StatusInternalServerError)
			return
		}

		userID, err := s.identify(r)
		if err != nil {
			s.logger.WithError(err).Warn("sse identify failed")
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		id, err := gonanoid.New()
		if err != nil {
			s.logger.WithError(err).Error("sse session id")
			http.Error(w, "Internal server error.", http.StatusInternalServerError)
			return
		}

		session := newSession(id, userID, s.sendBuffer)

		s.hub.Connect(session)
		defer s.hub.Disconnect(session)

		session.listen(w, r, s.pingInterval)
	}
}
