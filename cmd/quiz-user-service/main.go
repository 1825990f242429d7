package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"learnquiz/internal/userclient"
)

func main() {
	email := flag.String("email", "", "account email (required)")
	password := flag.String("password", os.Getenv("QUIZ_PASSWORD"), "account password, defaults to $QUIZ_PASSWORD")
	server := flag.String("server", "http://127.0.0.1:8080", "quiz service base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "HTTP timeout")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "error: --email and --password are required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := userclient.Run(ctx, os.Stdin, os.Stdout, userclient.Config{
		Email:       *email,
		Password:    *password,
		ServerURL:   *server,
		HTTPTimeout: *timeout,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
