package routes

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/goccy/go-json"
	"github.com/mbolis/pathfinders/app"
	"github.com/mbolis/pathfinders/funnel"
	"github.com/mbolis/pathfinders/httpx"
	"github.com/mbolis/pathfinders/log"
	"github.com/mbolis/pathfinders/model"
	"github.com/mbolis/pathfinders/questions"
	"github.com/mbolis/pathfinders/routes/middlewares"
)

// decodeOptional decodes a JSON body into v, leaving v alone when there is no body.
func decodeOptional(r *http.Request, v any) error {
	err := render.DecodeJSON(r.Body, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func OpenFunnel(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reported model.DeviceInfo
		if err := decodeOptional(r, &reported); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		device := model.DeviceInfoFromRequest(r, reported, time.Now())
		view, err := app.Funnels.Open(r.Context(), middlewares.Scope(r.Context()), device)
		if err != nil {
			httpx.LogInternalError(w, "funnel.open", err)
			return
		}
		render.JSON(w, r, view)
	}
}

func GetFunnel(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := app.Funnels.View(r.Context(), middlewares.Scope(r.Context()))
		if err != nil {
			funnelError(w, r, "funnel.view", err)
			return
		}
		render.JSON(w, r, view)
	}
}

func NextStep(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in funnel.Input
		if err := decodeOptional(r, &in); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		view, err := app.Funnels.Next(r.Context(), middlewares.Scope(r.Context()), in, model.OriginFromRequest(r))
		if err != nil {
			funnelError(w, r, "funnel.next", err)
			return
		}
		render.JSON(w, r, view)
	}
}

func SkipToSummary(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in funnel.Input
		if err := decodeOptional(r, &in); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		view, err := app.Funnels.Skip(r.Context(), middlewares.Scope(r.Context()), in, model.OriginFromRequest(r))
		if err != nil {
			funnelError(w, r, "funnel.skip", err)
			return
		}
		render.JSON(w, r, view)
	}
}

func PreviousStep(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := app.Funnels.Back(r.Context(), middlewares.Scope(r.Context()))
		if err != nil {
			funnelError(w, r, "funnel.back", err)
			return
		}
		render.JSON(w, r, view)
	}
}

type answerRequest struct {
	QuestionID string          `json:"questionId"`
	Value      json.RawMessage `json:"value"`
}

func AnswerQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answerRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if req.QuestionID == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "funnel.answer", "questionId is required")
			return
		}

		view, err := app.Funnels.Answer(r.Context(), middlewares.Scope(r.Context()), req.QuestionID, req.Value)
		if err != nil {
			funnelError(w, r, "funnel.answer", err)
			return
		}
		render.JSON(w, r, view)
	}
}

func GetSummary(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := app.Funnels.Summary(r.Context(), middlewares.Scope(r.Context()))
		if err != nil {
			funnelError(w, r, "funnel.summary", err)
			return
		}
		render.JSON(w, r, summary)
	}
}

// GetBacklog lists the submissions of the caller that never reached the sink.
func GetBacklog(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		backlog, err := app.Funnels.Backlog(r.Context(), middlewares.Scope(r.Context()))
		if err != nil {
			httpx.LogInternalError(w, "funnel.backlog", err)
			return
		}
		render.JSON(w, r, map[string]any{"data": backlog})
	}
}

func funnelError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var verr *funnel.ValidationError
	var aerr *questions.AnswerError
	switch {
	case errors.As(err, &verr):
		httpx.LogStatusJSON(w, r, http.StatusUnprocessableEntity, log.DebugLevel, code+".invalid", verr)
	case errors.As(err, &aerr):
		httpx.LogStatusJSON(w, r, http.StatusUnprocessableEntity, log.DebugLevel, code+".invalid_answer",
			funnel.ValidationError{Field: aerr.QuestionID, Message: aerr.Message})
	case errors.Is(err, funnel.ErrNoFunnel):
		httpx.LogNotFound(w, code, middlewares.Scope(r.Context()))
	case errors.Is(err, funnel.ErrInvalidTransition):
		httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, code+".invalid_transition")
	default:
		httpx.LogInternalError(w, code, err)
	}
}
