package caption_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timada-org/reelay/internal/caption"
)

func TestClientSubmit(t *testing.T) {
	t.Run("queued", func(t *testing.T) {
		var got *http.Request
		var body map[string]any

		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, _ = w.Write([]byte(`{"request_id":"req-1","status_url":"https://queue/status"}`))
		}))
		defer provider.Close()

		logger, _ := test.NewNullLogger()
		client := caption.New(caption.ClientOptions{
			URL:        provider.URL,
			Model:      "fal-ai/auto-caption",
			Key:        "secret",
			WebhookURL: "https://reelay.example/api/webhook2",
			Logger:     logger,
		})

		submission, err := client.Submit(context.Background(), "https://cdn/original.mp4", caption.Options{
			TopAlign: "bottom",
			FontSize: 24,
			Font:     "Arial",
			Color:    "white",
		})
		require.NoError(t, err)

		assert.Equal(t, "req-1", submission.RequestID)
		assert.Equal(t, "https://queue/status", submission.StatusURL)

		require.NotNil(t, got)
		assert.Equal(t, "/fal-ai/auto-caption", got.URL.Path)
		assert.Equal(t, "https://reelay.example/api/webhook2", got.URL.Query().Get("fal_webhook"))
		assert.Equal(t, "Key secret", got.Header.Get("Authorization"))
		assert.Equal(t, map[string]any{
			"video_url": "https://cdn/original.mp4",
			"top_align": "bottom",
			"font_size": float64(24),
			"txt_font":  "Arial",
			"txt_color": "white",
		}, body)
	})

	t.Run("without webhook", func(t *testing.T) {
		var query string

		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			_, _ = w.Write([]byte(`{"request_id":"req-2"}`))
		}))
		defer provider.Close()

		logger, _ := test.NewNullLogger()
		client := caption.New(caption.ClientOptions{URL: provider.URL, Model: "fal-ai/auto-caption", Logger: logger})

		_, err := client.Submit(context.Background(), "v", caption.Options{})
		require.NoError(t, err)
		assert.Empty(t, query)
	})

	t.Run("refused", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusForbidden)
		}))
		defer provider.Close()

		logger, hook := test.NewNullLogger()
		client := caption.New(caption.ClientOptions{URL: provider.URL, Model: "fal-ai/auto-caption", Logger: logger})

		_, err := client.Submit(context.Background(), "v", caption.Options{})
		require.Error(t, err)

		var statusErr *caption.StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusForbidden, statusErr.Code)
		assert.Contains(t, statusErr.Body, "quota exceeded")

		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, http.StatusForbidden, hook.LastEntry().Data["status"])
	})

	t.Run("unreachable", func(t *testing.T) {
		provider := httptest.NewServer(http.NotFoundHandler())
		url := provider.URL
		provider.Close()

		logger, _ := test.NewNullLogger()
		client := caption.New(caption.ClientOptions{URL: url, Model: "fal-ai/auto-caption", Logger: logger})

		_, err := client.Submit(context.Background(), "v", caption.Options{})
		assert.Error(t, err)
	})
}
