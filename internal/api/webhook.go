package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"github.com/timada-org/reelay/internal/core"
)

type webhookRoute struct {
	Path     string
	Kinds    []core.Kind
	Classify core.Classifier
}

// The route alone decides which classifier, and so which kinds, apply:
// webhook1 and webhook3 share a body shape but not a meaning.
var webhookRoutes = []webhookRoute{
	{
		Path:     "/api/webhook1",
		Kinds:    []core.Kind{core.KindSourceReady},
		Classify: core.ClassifySourceReady,
	},
	{
		Path:     "/api/webhook2",
		Kinds:    []core.Kind{core.KindTransformComplete, core.KindQuotaExceeded},
		Classify: core.ClassifyTransform,
	},
	{
		Path:     "/api/webhook3",
		Kinds:    []core.Kind{core.KindPostProcessComplete},
		Classify: core.ClassifyPostProcess,
	},
}

func (route webhookRoute) emits(kind core.Kind) bool {
	for _, k := range route.Kinds {
		if k == kind {
			return true
		}
	}

	return false
}

func (app *App) writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)

	if _, err := io.WriteString(w, text); err != nil {
		app.logger.WithError(err).Debug("write response")
	}
}

func (app *App) webhook(route webhookRoute) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		logger := app.logger.WithField("route", route.Path)

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, app.config.Webhook.MaxBodyBytes))
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				app.writeText(w, http.StatusRequestEntityTooLarge, "Payload too large")
				return
			}

			logger.WithError(err).Warn("reading webhook body")
			app.writeText(w, http.StatusBadRequest, "Invalid body")
			return
		}

		var input map[string]any
		if err := json.Unmarshal(body, &input); err != nil || input == nil {
			app.writeText(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		classification, err := route.Classify(input)
		if err != nil {
			var payloadErr *core.PayloadError
			if errors.As(err, &payloadErr) {
				logger.WithField("reason", payloadErr.Reason).Info("webhook rejected")
				app.writeText(w, http.StatusBadRequest, payloadErr.Reason)
				return
			}

			logger.WithError(err).Error("classifying webhook")
			app.writeText(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if !route.emits(classification.Event.Kind) {
			logger.WithField("kind", classification.Event.Kind).Error("classifier produced a kind foreign to the route")
			app.writeText(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		delivered := app.relay.Broadcast(r.Context(), classification.Event)

		logger.WithFields(logrus.Fields{
			"kind":      classification.Event.Kind,
			"delivered": delivered,
		}).Info("webhook relayed")

		app.writeText(w, http.StatusOK, classification.Ack)
	}
}
