package httpapi

import (
	"context"
	"log"

	"learnquiz/internal/auth"
	"learnquiz/internal/quiz"
	"learnquiz/internal/session"
)

// Completer answers a free-form student prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Deps struct {
	Quizzes   *quiz.Service
	Auth      *auth.Service
	Engine    *session.Engine
	Assistant Completer
	Logger    *log.Logger
}

type API struct {
	quizzes   *quiz.Service
	auth      *auth.Service
	engine    *session.Engine
	assistant Completer
	logger    *log.Logger
}

func NewAPI(deps Deps) *API {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &API{
		quizzes:   deps.Quizzes,
		auth:      deps.Auth,
		engine:    deps.Engine,
		assistant: deps.Assistant,
		logger:    logger,
	}
}
