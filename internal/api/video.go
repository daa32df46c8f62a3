package api

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/timada-org/reelay/internal/store"
)

func (app *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.WithError(err).Debug("write response")
	}
}

func validateVideo(v *store.Video) string {
	switch {
	case v.UserID == "":
		return "user_id missing"
	case v.OriginalVideoURL == "":
		return "original_video_url missing"
	case v.FileName == "":
		return "file_name missing"
	}

	return validateParameters(&v.Parameters)
}

func validateParameters(p *store.Parameters) string {
	switch {
	case p.SubtitlePosition == "":
		return "subtitle_position missing"
	case p.FontSize <= 0:
		return "font_size missing"
	case p.FontStyle == "":
		return "font_style missing"
	case p.TextColor == "":
		return "text_color missing"
	}

	return ""
}

func (app *App) saveVideo() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		var input store.Video

		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, app.config.Webhook.MaxBodyBytes))
		if err := decoder.Decode(&input); err != nil {
			app.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
			return
		}

		if reason := validateVideo(&input); reason != "" {
			app.writeJSON(w, http.StatusBadRequest, map[string]string{"error": reason})
			return
		}

		input.ID = 0

		if err := app.store.Save(r.Context(), &input); err != nil {
			app.logger.WithField("user_id", input.UserID).WithError(err).Error("saving video")
			app.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "An error occurred while saving the video."})
			return
		}

		app.writeJSON(w, http.StatusOK, &input)
	}
}

type videosResponse struct {
	Message string         `json:"message"`
	Videos  []*store.Video `json:"videos,omitempty"`
}

func (app *App) listVideos() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		userID := p.ByName("userid")

		videos, err := app.store.FindByUser(r.Context(), userID)
		if err != nil {
			app.logger.WithField("user_id", userID).WithError(err).Error("listing videos")
			app.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "An error occurred while retrieving the videos."})
			return
		}

		if len(videos) == 0 {
			app.writeJSON(w, http.StatusNotFound, videosResponse{Message: "No videos found for this user."})
			return
		}

		app.writeJSON(w, http.StatusOK, videosResponse{Message: "Videos retrieved successfully", Videos: videos})
	}
}
