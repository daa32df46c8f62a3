package api

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/timada-org/reelay/internal/caption"
	"github.com/timada-org/reelay/internal/store"
)

type captionRequest struct {
	OriginalVideoURL string           `json:"original_video_url"`
	Parameters       store.Parameters `json:"parameters"`
}

type captionResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// submitCaption queues a caption job. The provider reports the result on
// /api/webhook2, which reaches the browser through the relay.
func (app *App) submitCaption() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if app.caption == nil {
			app.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Captioning is not configured."})
			return
		}

		var input captionRequest

		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, app.config.Webhook.MaxBodyBytes))
		if err := decoder.Decode(&input); err != nil {
			app.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
			return
		}

		if input.OriginalVideoURL == "" {
			app.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "original_video_url missing"})
			return
		}

		if reason := validateParameters(&input.Parameters); reason != "" {
			app.writeJSON(w, http.StatusBadRequest, map[string]string{"error": reason})
			return
		}

		submission, err := app.caption.Submit(r.Context(), input.OriginalVideoURL, caption.Options{
			TopAlign: input.Parameters.SubtitlePosition,
			FontSize: input.Parameters.FontSize,
			Font:     input.Parameters.FontStyle,
			Color:    input.Parameters.TextColor,
		})
		if err != nil {
			app.logger.WithField("video_url", input.OriginalVideoURL).WithError(err).Error("submitting caption job")
			app.writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Caption job submission failed."})
			return
		}

		app.writeJSON(w, http.StatusOK, captionResponse{
			Message:   "Video processing started, you will receive updates.",
			RequestID: submission.RequestID,
		})
	}
}
