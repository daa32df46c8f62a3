package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timada-org/reelay/internal/core"
)

const captionBody = `{
	"original_video_url": "https://cdn/original.mp4",
	"parameters": {
		"subtitle_position": "bottom",
		"font_size": 24,
		"font_style": "Arial",
		"text_color": "#ffffff"
	}
}`

type fakeProvider struct {
	mux    sync.Mutex
	inputs []map[string]any
	query  []string
	status int
}

func newFakeProvider(t *testing.T, status int) (*fakeProvider, string) {
	t.Helper()

	provider := &fakeProvider{status: status}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provider.mux.Lock()
		defer provider.mux.Unlock()

		var input map[string]any
		_ = json.NewDecoder(r.Body).Decode(&input)
		provider.inputs = append(provider.inputs, input)
		provider.query = append(provider.query, r.URL.Query().Get("fal_webhook"))

		if provider.status != http.StatusOK {
			http.Error(w, "limit reached", provider.status)
			return
		}

		_, _ = w.Write([]byte(`{"request_id":"req-1"}`))
	}))
	t.Cleanup(server.Close)

	return provider, server.URL
}

func withCaption(url string) func(*core.Config) {
	return func(c *core.Config) {
		c.Caption.URL = url
		c.Caption.Key = "secret"
		c.Caption.WebhookURL = "https://reelay.example/api/webhook2"
	}
}

func TestSubmitCaption(t *testing.T) {
	t.Run("queued", func(t *testing.T) {
		provider, url := newFakeProvider(t, http.StatusOK)
		app := newTestApp(t, withCaption(url))

		w := do(app, "POST", "/api/captions", captionBody)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"message":"Video processing started, you will receive updates.","request_id":"req-1"}`, w.Body.String())

		require.Len(t, provider.inputs, 1)
		assert.Equal(t, "https://cdn/original.mp4", provider.inputs[0]["video_url"])
		assert.Equal(t, "bottom", provider.inputs[0]["top_align"])
		assert.Equal(t, float64(24), provider.inputs[0]["font_size"])
		assert.Equal(t, "Arial", provider.inputs[0]["txt_font"])
		assert.Equal(t, "#ffffff", provider.inputs[0]["txt_color"])
		assert.Equal(t, []string{"https://reelay.example/api/webhook2"}, provider.query)
	})

	t.Run("invalid parameters", func(t *testing.T) {
		cases := []struct {
			body   string
			reason string
		}{
			{
				body:   `{"parameters":{"subtitle_position":"bottom","font_size":24,"font_style":"Arial","text_color":"#fff"}}`,
				reason: "original_video_url missing",
			},
			{
				body:   `{"original_video_url":"o","parameters":{"font_size":24,"font_style":"Arial","text_color":"#fff"}}`,
				reason: "subtitle_position missing",
			},
			{
				body:   `{"original_video_url":"o","parameters":{"subtitle_position":"bottom","font_style":"Arial","text_color":"#fff"}}`,
				reason: "font_size missing",
			},
			{
				body:   `{"original_video_url":"o","parameters":{"subtitle_position":"bottom","font_size":24,"text_color":"#fff"}}`,
				reason: "font_style missing",
			},
			{
				body:   `{"original_video_url":"o","parameters":{"subtitle_position":"bottom","font_size":24,"font_style":"Arial"}}`,
				reason: "text_color missing",
			},
		}

		provider, url := newFakeProvider(t, http.StatusOK)
		app := newTestApp(t, withCaption(url))

		for _, c := range cases {
			w := do(app, "POST", "/api/captions", c.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"`+c.reason+`"}`, w.Body.String())
		}

		assert.Equal(t, http.StatusBadRequest, do(app, "POST", "/api/captions", `{`).Code)
		assert.Empty(t, provider.inputs)
	})

	t.Run("provider refuses", func(t *testing.T) {
		_, url := newFakeProvider(t, http.StatusForbidden)
		app := newTestApp(t, withCaption(url))

		w := do(app, "POST", "/api/captions", captionBody)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.JSONEq(t, `{"error":"Caption job submission failed."}`, w.Body.String())
	})

	t.Run("not configured", func(t *testing.T) {
		app := newTestApp(t, func(c *core.Config) { c.Caption.Key = "" })

		w := do(app, "POST", "/api/captions", captionBody)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
