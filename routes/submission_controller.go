package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/pathfinders/app"
	"github.com/mbolis/pathfinders/httpx"
	"github.com/mbolis/pathfinders/log"
	"github.com/mbolis/pathfinders/model"
	"github.com/mbolis/pathfinders/submissions"
)

type submissionResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SubmitData receives one step submission, records it and forwards it to the sink.
func SubmitData(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub model.Submission
		if err := render.DecodeJSON(r.Body, &sub); err != nil {
			httpx.LogStatusJSON(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body",
				submissionResponse{Error: "Invalid submission body"})
			return
		}

		sub, err := app.Submissions.Submit(r.Context(), sub, model.OriginFromRequest(r))
		if errors.Is(err, submissions.ErrMissingFields) {
			httpx.LogStatusJSON(w, r, http.StatusBadRequest, log.DebugLevel, "submission.missing_fields",
				submissionResponse{Error: "Missing required fields: stepType and sessionId"})
			return
		}
		if err != nil {
			httpx.LogInternalErrorJSON(w, r, "submission.process", err,
				submissionResponse{Error: "Failed to process data submission"})
			return
		}

		log.Debugf("submission: processed %s for session %s", sub.StepType, sub.SessionID)
		render.JSON(w, r, submissionResponse{
			Success:   true,
			Message:   string(sub.StepType) + " data processed successfully",
			SessionID: sub.SessionID,
		})
	}
}

// SubmissionHealth reports whether a sink URL was configured.
func SubmissionHealth(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		configured := app.SinkURL != ""
		message := "Using development configuration"
		if configured {
			message = "Using environment configuration"
		}
		render.JSON(w, r, map[string]any{
			"status":     "Data submission API endpoint is running",
			"configured": configured,
			"message":    message,
		})
	}
}
