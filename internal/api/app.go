package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"github.com/timada-org/reelay/internal/caption"
	"github.com/timada-org/reelay/internal/core"
	"github.com/timada-org/reelay/internal/mirror"
	"github.com/timada-org/reelay/internal/sse"
	"github.com/timada-org/reelay/internal/store"
	"github.com/timada-org/reelay/internal/ws"
)

type App struct {
	config   *core.Config
	logger   *logrus.Logger
	hub      *core.Hub
	relay    *core.Relay
	sse      *sse.Server
	ws       *ws.Server
	store    *store.DB
	mirror   *mirror.Mirror
	caption  caption.Submitter
	fallback http.Handler
	router   *httprouter.Router
}

func New(config *core.Config, logger *logrus.Logger) (*App, error) {
	app := &App{
		config: config,
		logger: logger,
	}

	clientEvents, err := core.ParseEventPatterns(config.Relay.ClientEvents)
	if err != nil {
		return nil, fmt.Errorf("relay client events: %w", err)
	}

	identify := core.Identify(core.QueryIdentity)

	if config.JwksURL != "" {
		auth, err := core.NewAuth(config.JwksURL, logger)
		if err != nil {
			return nil, fmt.Errorf("jwks: %w", err)
		}

		identify = auth.Identify
	}

	db, err := store.Open(config.Store.Path)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	app.store = db

	var relayMirror core.Mirror

	if config.Broker.URL != "" {
		m, err := mirror.New(mirror.Options{
			URL:    config.Broker.URL,
			Topic:  config.Broker.Topic,
			Logger: logger,
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("mirror: %w", err)
		}

		app.mirror = m
		relayMirror = m
	}

	app.hub = core.NewHub(&core.HubOptions{Logger: logger})

	app.relay = core.NewRelay(&core.RelayOptions{
		Hub:          app.hub,
		Mirror:       relayMirror,
		Logger:       logger,
		ClientEvents: clientEvents,
	})

	pingInterval := time.Duration(config.Push.PingIntervalSeconds) * time.Second

	app.sse = sse.New(sse.ServerOptions{
		Hub:          app.hub,
		Identify:     identify,
		SendBuffer:   config.Push.SendBuffer,
		PingInterval: pingInterval,
		Logger:       logger,
	})

	app.ws = ws.New(ws.ServerOptions{
		Hub:            app.hub,
		Identify:       identify,
		SendBuffer:     config.Push.SendBuffer,
		PingInterval:   pingInterval,
		AllowedOrigins: config.Push.AllowedOrigins,
		Logger:         logger,
	})

	if config.Caption.Key != "" {
		app.caption = caption.New(caption.ClientOptions{
			URL:        config.Caption.URL,
			Model:      config.Caption.Model,
			Key:        config.Caption.Key,
			WebhookURL: config.Caption.WebhookURL,
			Timeout:    time.Duration(config.Caption.TimeoutSeconds) * time.Second,
			Logger:     logger,
		})
	}

	app.fallback = http.NotFoundHandler()

	if config.Frontend.URL != "" {
		target, err := url.Parse(config.Frontend.URL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("frontend url: %w", err)
		}

		app.fallback = httputil.NewSingleHostReverseProxy(target)
	}

	app.router = app.routes()

	return app, nil
}

func (app *App) routes() *httprouter.Router {
	router := httprouter.New()

	// anything not matched below, wrong method included, belongs to the page app
	router.HandleMethodNotAllowed = false
	router.NotFound = app.fallback

	for _, route := range webhookRoutes {
		router.POST(route.Path, app.webhook(route))
	}

	router.GET("/ws", app.ws.HandleFunc())
	router.GET("/sse", app.sse.HandleFunc())
	router.POST("/api/videos", app.saveVideo())
	router.GET("/api/videos/:userid", app.listVideos())
	router.POST("/api/captions", app.submitCaption())

	return router
}

func (app *App) Handler() http.Handler {
	return app.router
}

func (app *App) Hub() *core.Hub {
	return app.hub
}

func (app *App) Relay() *core.Relay {
	return app.relay
}

// Listen serves until ctx is done, then shuts the server down.
func (app *App) Listen(ctx context.Context) error {
	server := &http.Server{
		Addr:              app.config.Addr,
		Handler:           app.router,
		ReadHeaderTimeout: time.Duration(app.config.ReadHeaderTimeoutSeconds) * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		app.logger.WithField("addr", app.config.Addr).Info("listening")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, session := range app.hub.Sessions() {
		app.hub.Drop(session)
	}

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (app *App) Close() {
	if app.mirror != nil {
		app.mirror.Close()
	}

	if app.store != nil {
		if err := app.store.Close(); err != nil {
			app.logger.WithError(err).Error("closing store")
		}
	}
}
