package ws

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/timada-org/reelay/internal/core"
)

type ServerOptions struct {
	Hub            *core.Hub
	Identify       core.Identify
	SendBuffer     int
	PingInterval   time.Duration
	AllowedOrigins []string
	Logger         *logrus.Logger
}

// Server is the bidirectional push transport.
type Server struct {
	hub            *core.Hub
	identify       core.Identify
	sendBuffer     int
	pingInterval   time.Duration
	allowedOrigins map[string]bool
	upgrader       websocket.Upgrader
	logger         *logrus.Logger
}

func New(options ServerOptions) *Server {
	s := &Server{
		hub:            options.Hub,
		identify:       options.Identify,
		sendBuffer:     options.SendBuffer,
		pingInterval:   options.PingInterval,
		allowedOrigins: make(map[string]bool),
		logger:         options.Logger,
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

	for _, origin := range options.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			s.allowedOrigins[trimmed] = true
		}
	}

	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	return s
}

func (s *Server) HandleFunc() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		userID, err := s.identify(r)
		if err != nil {
			s.logger.WithError(err).Warn("ws identify failed")
			http.Error(w, "Unauthorized.", http.StatusUnauthorized)
			return
		}

		id, err := gonanoid.New()
		if err != nil {
			s.logger.WithError(err).Error("ws session id")
			http.Error(w, "Internal server error.", http.StatusInternalServerError)
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.WithError(err).Warn("ws upgrade failed")
			return
		}

		session := newSession(id, userID, conn, s.sendBuffer)

		s.hub.Connect(session)
		go session.writePump(s.pingInterval)

		session.readPump(s.hub, 2*s.pingInterval, s.logger)

		s.hub.Disconnect(session)
		session.Close()
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		return s.allowedOrigins[origin]
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return parsed.Host == r.Host
}
