package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/goccy/go-json"
	"github.com/mbolis/pathfinders/app"
	"github.com/mbolis/pathfinders/funnel"
	"github.com/mbolis/pathfinders/httpx"
	"github.com/mbolis/pathfinders/log"
	"github.com/mbolis/pathfinders/model"
	"github.com/mbolis/pathfinders/routes/middlewares"
)

var stepParams = map[string]model.StepType{
	"step1": model.Step1,
	"step2": model.Step2,
	"step3": model.Step3,
}

// ListSubmissions returns every recorded submission of one step type.
func ListSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		param := chi.URLParam(r, "step")
		step, ok := stepParams[param]
		if !ok {
			httpx.LogNotFound(w, "admin.list_submissions", param)
			return
		}

		all, err := app.Submissions.Log().List(step)
		if err != nil {
			httpx.LogInternalErrorJSON(w, r, "admin.list_submissions", err,
				map[string]string{"error": "Failed to read " + param + " data"})
			return
		}
		render.JSON(w, r, map[string]any{"data": all})
	}
}

func AdminStats(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := app.Submissions.Stats(time.Now())
		if err != nil {
			httpx.LogInternalError(w, "admin.stats", err)
			return
		}
		render.JSON(w, r, stats)
	}
}

type connectionStatus struct {
	IsConnected bool   `json:"isConnected"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

type configurationStatus struct {
	ScriptURL     string `json:"scriptUrl"`
	Configured    bool   `json:"configured"`
	UsingFallback bool   `json:"usingFallback"`
	IsConfigured  bool   `json:"isConfigured"`
	HasValidURL   bool   `json:"hasValidUrl"`
}

type backlogStatus struct {
	Clients     int `json:"clients"`
	Submissions int `json:"submissions"`
	Mine        int `json:"mine"`
}

type submissionStatus struct {
	TotalSubmissions  int    `json:"totalSubmissions"`
	RecentSubmissions int    `json:"recentSubmissions"`
	LastSubmission    string `json:"lastSubmission,omitempty"`
}

// AdminStatus checks the sink and reports configuration, submission and backlog counts.
func AdminStatus(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), app.SinkTimeout)
		defer cancel()

		connection := connectionStatus{IsConnected: true}
		if err := app.Sink.Ping(ctx); err != nil {
			log.Warnf("admin.status.ping: %s", err)
			connection = connectionStatus{Error: err.Error()}
		}
		connection.LastChecked = time.Now().UTC().Format(time.RFC3339)

		stats, err := app.Submissions.Stats(time.Now())
		if err != nil {
			httpx.LogInternalError(w, "admin.status.stats", err)
			return
		}
		var last string
		for _, s := range stats.Steps {
			if s.LastSubmission > last {
				last = s.LastSubmission
			}
		}

		backlog, err := backlogCounts(r, app)
		if err != nil {
			httpx.LogInternalError(w, "admin.status.backlog", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"connection": connection,
			"configuration": configurationStatus{
				ScriptURL:     app.Sink.URL,
				Configured:    app.SinkURL != "",
				UsingFallback: app.Sink.UsingFallback(),
				IsConfigured:  strings.Contains(app.Sink.URL, "script.google.com"),
				HasValidURL:   len(app.Sink.URL) > 50,
			},
			"submissions": submissionStatus{
				TotalSubmissions:  stats.Total,
				RecentSubmissions: stats.Last24h,
				LastSubmission:    last,
			},
			"backlog": backlog,
		})
	}
}

func backlogCounts(r *http.Request, app app.App) (backlogStatus, error) {
	var status backlogStatus

	all, err := app.Store.Scan(r.Context(), funnel.KeyBacklog)
	if err != nil {
		return status, err
	}

	mine := ""
	if c, err := r.Cookie(middlewares.ClientCookie); err == nil {
		mine = c.Value
	}
	for scope, data := range all {
		var queued []json.RawMessage
		if err := json.Unmarshal(data, &queued); err != nil {
			log.Warnf("admin.status.backlog %s: %s", scope, err)
			continue
		}
		if len(queued) == 0 {
			continue
		}
		status.Clients++
		status.Submissions += len(queued)
		if scope == mine {
			status.Mine = len(queued)
		}
	}
	return status, nil
}
