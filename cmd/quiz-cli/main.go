package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"learnquiz/internal/auth"
	"learnquiz/internal/cli"
	"learnquiz/internal/config"
	"learnquiz/internal/quiz"
	"learnquiz/internal/session"
	"learnquiz/internal/store"
)

func main() {
	student := flag.String("student", "", "student id for quiz attempts (required)")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	if *student == "" {
		fmt.Fprintln(os.Stderr, "error: --student is required")
		os.Exit(1)
	}
	if err := run(*student, *envFile); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(student, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return err
	}
	defer backend.Close()

	quizService := quiz.NewService(quiz.Deps{
		Courses:  backend,
		Quizzes:  backend,
		Scores:   backend,
		Feedback: backend,
		Names:    auth.NewService(backend, cfg.JWTSecret, cfg.JWTTTL),
	})
	engine := session.NewEngine(quizService, backend, session.Config{
		Countdown:    cfg.Countdown,
		TickInterval: cfg.TickInterval,
		// Session logs would interleave with the prompt.
		Logger: log.New(io.Discard, "", 0),
	})

	return cli.Run(ctx, os.Stdin, os.Stdout, cli.Config{
		StudentID: student,
		Quizzes:   quizService,
		Engine:    engine,
	})
}
