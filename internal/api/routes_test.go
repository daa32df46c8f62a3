package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timada-org/reelay/internal/core"
)

func TestWebhookRoutesKinds(t *testing.T) {
	samples := map[string][]map[string]any{
		"/api/webhook1": {{"secure_url": "X"}},
		"/api/webhook2": {
			{"payload": map[string]any{"video_url": "Y"}},
			{"payload": map[string]any{"message": "quota"}},
		},
		"/api/webhook3": {{"secure_url": "Z"}},
	}

	require.Len(t, webhookRoutes, len(samples))

	for _, route := range webhookRoutes {
		t.Run(route.Path, func(t *testing.T) {
			bodies, ok := samples[route.Path]
			require.True(t, ok)

			for _, body := range bodies {
				c, err := route.Classify(body)
				require.NoError(t, err)
				assert.Contains(t, route.Kinds, c.Event.Kind)
			}
		})
	}
}

func TestWebhookForeignKind(t *testing.T) {
	config := core.DefaultConfig()
	config.Store.Path = ":memory:"

	logger, hook := test.NewNullLogger()

	app, err := New(config, logger)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	session := &countingSession{}
	app.hub.Connect(session)

	handle := app.webhook(webhookRoute{
		Path:     "/api/webhook1",
		Kinds:    []core.Kind{core.KindSourceReady},
		Classify: core.ClassifyPostProcess,
	})

	w := httptest.NewRecorder()
	handle(w, httptest.NewRequest("POST", "/api/webhook1", strings.NewReader(`{"secure_url":"X"}`)), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 0, session.sent)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, core.KindPostProcessComplete, hook.LastEntry().Data["kind"])
}

type countingSession struct {
	sent int
}

func (s *countingSession) ID() string { return "s1" }

func (s *countingSession) UserID() string { return "" }

func (s *countingSession) Send(e *core.Event) error {
	s.sent++
	return nil
}

func (s *countingSession) Close() {}
