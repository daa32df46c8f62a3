package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timada-org/reelay/internal/api"
	"github.com/timada-org/reelay/internal/core"
)

func newTestApp(t *testing.T, configure ...func(*core.Config)) *api.App {
	t.Helper()

	config := core.DefaultConfig()
	config.Store.Path = ":memory:"
	config.Push.PingIntervalSeconds = 5

	for _, fn := range configure {
		fn(config)
	}

	logger, _ := test.NewNullLogger()

	app, err := api.New(config, logger)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	return app
}

func do(app *api.App, method string, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, req)

	return w
}

func TestFallthrough(t *testing.T) {
	t.Run("not found without frontend", func(t *testing.T) {
		app := newTestApp(t)

		assert.Equal(t, http.StatusNotFound, do(app, "GET", "/", "").Code)
		assert.Equal(t, http.StatusNotFound, do(app, "POST", "/api/webhook4", "{}").Code)
	})

	t.Run("proxied to frontend", func(t *testing.T) {
		var paths []string
		frontend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.Method+" "+r.URL.Path)
			_, _ = w.Write([]byte("page"))
		}))
		defer frontend.Close()

		app := newTestApp(t, func(c *core.Config) { c.Frontend.URL = frontend.URL })

		w := do(app, "GET", "/dashboard", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "page", w.Body.String())

		// wrong method on a webhook route is the page app's business
		w = do(app, "GET", "/api/webhook1", "")
		assert.Equal(t, http.StatusOK, w.Code)

		assert.Equal(t, []string{"GET /dashboard", "GET /api/webhook1"}, paths)
	})
}

func TestListenShutdown(t *testing.T) {
	app := newTestApp(t, func(c *core.Config) { c.Addr = "127.0.0.1:0" })

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)

	go func() { errc <- app.Listen(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listen did not return after cancel")
	}
}

func TestNewInvalidClientEvents(t *testing.T) {
	config := core.DefaultConfig()
	config.Store.Path = ":memory:"
	config.Relay.ClientEvents = []string{"upload/#/done"}

	logger, _ := test.NewNullLogger()

	_, err := api.New(config, logger)
	assert.Error(t, err)
}
