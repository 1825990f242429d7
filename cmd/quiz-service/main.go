package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnquiz/internal/assistant"
	"learnquiz/internal/auth"
	"learnquiz/internal/config"
	"learnquiz/internal/httpapi"
	"learnquiz/internal/opentdb"
	"learnquiz/internal/quiz"
	"learnquiz/internal/session"
	"learnquiz/internal/store"
	"learnquiz/internal/store/redisstore"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	addr := flag.String("addr", "", "HTTP listen address, overrides QUIZ_ADDR")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer backend.Close()

	var scores quiz.ScoreRepository = backend
	if cfg.RedisAddr != "" {
		rdb, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		scores = redisstore.NewScoreStore(rdb)
		log.Printf("quiz scores stored in redis at %s", cfg.RedisAddr)
	}

	authService := auth.NewService(backend, cfg.JWTSecret, cfg.JWTTTL)
	if cfg.AdminEmail != "" {
		created, err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		if created {
			log.Printf("created admin account %s", cfg.AdminEmail)
		}
	}

	trivia := opentdb.NewClient(&http.Client{Timeout: 10 * time.Second})
	quizService := quiz.NewService(quiz.Deps{
		Courses:  backend,
		Quizzes:  backend,
		Scores:   scores,
		Feedback: backend,
		Names:    authService,
		Fetcher:  trivia.FetchQuestions,
	})

	engine := session.NewEngine(quizService, scores, session.Config{
		Countdown:    cfg.Countdown,
		TickInterval: cfg.TickInterval,
	})

	var completer httpapi.Completer
	if cfg.AssistantKey != "" {
		completer = assistant.NewClient(&http.Client{Timeout: 30 * time.Second}, cfg.AssistantURL, cfg.AssistantKey, cfg.AssistantModel)
	}

	api := httpapi.NewAPI(httpapi.Deps{
		Quizzes:   quizService,
		Auth:      authService,
		Engine:    engine,
		Assistant: completer,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(api, httpapi.RouterOptions{CORSOrigins: cfg.CORSOrigins}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("quiz-service listening on %s (store=%s)", cfg.Addr, cfg.StoreDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}
