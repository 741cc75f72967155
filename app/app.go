package app

import (
	"github.com/mbolis/pathfinders/config"
	"github.com/mbolis/pathfinders/database"
	"github.com/mbolis/pathfinders/funnel"
	"github.com/mbolis/pathfinders/httpx"
	"github.com/mbolis/pathfinders/sink"
	"github.com/mbolis/pathfinders/submissions"
)

type App struct {
	config.Config
	Store       *database.LocalStore
	Funnels     *funnel.Service
	Submissions *submissions.Service
	Sink        *sink.Client
	Auth        *httpx.Authenticator
}
