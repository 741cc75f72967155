package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/pathfinders/app"
	"github.com/mbolis/pathfinders/config"
	"github.com/mbolis/pathfinders/database"
	"github.com/mbolis/pathfinders/funnel"
	"github.com/mbolis/pathfinders/httpx"
	"github.com/mbolis/pathfinders/log"
	"github.com/mbolis/pathfinders/questions"
	"github.com/mbolis/pathfinders/routes"
	"github.com/mbolis/pathfinders/sink"
	"github.com/mbolis/pathfinders/submissions"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	catalog, err := questions.Load(cfg.QuestionsFile)
	if err != nil {
		log.Fatal("main.questions:", err)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	auth, err := httpx.NewAuthenticator(cfg.AdminPassword, cfg.TokenTTL)
	if err != nil {
		log.Fatal("main.auth:", err)
	}

	store := database.NewLocalStore(db)
	sinkClient := sink.New(cfg.SinkURL, cfg.SinkTimeout)
	if sinkClient.UsingFallback() {
		log.Warn("GOOGLE_APPS_SCRIPT_URL not set, using the built-in script URL")
	}

	app := app.App{
		Config:      cfg,
		Store:       store,
		Submissions: submissions.NewService(submissions.NewFileLog(cfg.DataDir), sinkClient),
		Sink:        sinkClient,
		Auth:        auth,
	}

	var sender funnel.Sender = funnel.HandlerSender{Handler: routes.SubmitData(app)}
	if cfg.SubmitURL != "" {
		sender = funnel.HTTPSender{URL: cfg.SubmitURL, Client: &http.Client{Timeout: cfg.SinkTimeout}}
	}
	dispatcher := funnel.NewDispatcher(sender, cfg.SinkTimeout)
	app.Funnels = funnel.NewService(store, catalog, dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go evictIdle(ctx, app.Funnels, cfg.IdleTTL)

	err = runServer(ctx, cfg, routes.Wire(app))
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}

	log.Info("Waiting for pending submissions")
	dispatcher.Wait()
}

func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	shutdown := make(chan struct{})
	go func() {
		defer close(shutdown)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("main.server.shutdown:", err)
		}
	}()

	log.Info("Listening on " + cfg.Url())
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		// in-flight requests may still dispatch until Shutdown returns
		<-shutdown
	}
	return err
}

func evictIdle(ctx context.Context, funnels *funnel.Service, ttl time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := funnels.Cleanup(now.Add(-ttl)); n > 0 {
				log.Debugf("evicted %d idle funnels", n)
			}
		}
	}
}
