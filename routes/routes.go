package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/mbolis/pathfinders/app"
	"github.com/mbolis/pathfinders/metrics"
	"github.com/mbolis/pathfinders/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer, metrics.Instrument)

	root.Handle("/metrics", metrics.Handler())
	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Route("/funnel", func(r chi.Router) {
		r.Use(middlewares.ClientScope)

		r.Post("/", OpenFunnel(app))
		r.Get("/", GetFunnel(app))
		r.Post("/next", NextStep(app))
		r.Post("/answers", AnswerQuestion(app))
		r.Post("/skip", SkipToSummary(app))
		r.Post("/back", PreviousStep(app))
		r.Get("/summary", GetSummary(app))
		r.Get("/backlog", GetBacklog(app))
	})

	api.Post("/data-submission", SubmitData(app))
	api.Get("/data-submission", SubmissionHealth(app))

	api.Route("/admin", func(r chi.Router) {
		r.Post("/login", Login(app))
		r.Post("/logout", Logout(app))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.Admin(app.Auth))

			r.Get("/stats", AdminStats(app))
			r.Get("/status", AdminStatus(app))
			r.
				With(middlewares.DevOnly(app.Dev)).
				Get(`/{step:^step[123]$}`, ListSubmissions(app))
		})
	})

	return api
}
