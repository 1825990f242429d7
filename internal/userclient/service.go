package userclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"learnquiz/internal/cli"
)

const (
	defaultServer           = "http://127.0.0.1:8080"
	defaultLeaderboardLimit = 5
	defaultHTTPTimeout      = 5 * time.Second
)

type Config struct {
	Email            string
	Password         string
	ServerURL        string
	LeaderboardLimit int
	HTTPTimeout      time.Duration
}

// Run logs in and serves an interactive session against a remote quiz
// service.
func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	email := strings.TrimSpace(cfg.Email)
	if email == "" || cfg.Password == "" {
		return errors.New("email and password are required")
	}

	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServer
	}

	leaderboardLimit := cfg.LeaderboardLimit
	if leaderboardLimit <= 0 {
		leaderboardLimit = defaultLeaderboardLimit
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := NewHTTPClient(serverURL, &http.Client{Timeout: timeout})
	user, err := client.Login(ctx, email, cfg.Password)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return errors.New("invalid email or password")
		}
		return describeClientError(err, serverURL)
	}

	lines := cli.Lines(in)
	fmt.Fprintf(out, "quiz-user-service\nuser=%s (%s)\nserver=%s\n\n", user.Name, user.Role, serverURL)
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case next, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(next)
		}
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])

		var cmdErr error
		switch command {
		case "help":
			printHelp(out)
		case "exit":
			return nil
		case "courses":
			cmdErr = runCourses(ctx, out, client)
		case "scores":
			cmdErr = runScores(ctx, out, client)
		case "leaderboard":
			limit, parseErr := parsePositiveLimit(args, 1, leaderboardLimit)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid leaderboard limit: %v\n", parseErr)
				continue
			}
			cmdErr = runLeaderboard(ctx, out, client, limit)
		case "recommend":
			cmdErr = runRecommendations(ctx, out, client)
		case "feedback":
			cmdErr = runFeedback(ctx, out, client)
		case "ask":
			if len(args) < 2 {
				fmt.Fprintln(out, "usage: ask <question>")
				continue
			}
			cmdErr = runAsk(ctx, out, client, strings.TrimSpace(line[len(args[0]):]))
		case "play":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: play <course_id>")
				continue
			}
			cmdErr = runPlay(ctx, lines, out, client, args[1])
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}

		if cmdErr != nil {
			fmt.Fprintf(out, "error: %v\n", describeClientError(cmdErr, serverURL))
		}
	}
}

func runCourses(ctx context.Context, out io.Writer, client *HTTPClient) error {
	courses, err := client.ListCourses(ctx)
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		fmt.Fprintln(out, "No courses.")
		return nil
	}
	for idx, course := range courses {
		fmt.Fprintf(out, "%d. %s  %s\n", idx+1, course.CourseID, course.CourseName)
	}
	return nil
}

func runScores(ctx context.Context, out io.Writer, client *HTTPClient) error {
	records, err := client.MyScores(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No scores yet.")
		return nil
	}
	for _, record := range records {
		fmt.Fprintf(out, "%s  %s  (%s)\n", record.CourseID, formatScore(record.ScorePercentage), record.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func runLeaderboard(ctx context.Context, out io.Writer, client *HTTPClient, limit int) error {
	entries, err := client.Leaderboard(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No scores yet.")
		return nil
	}

	fmt.Fprintln(out, "Leaderboard:")
	for idx, entry := range entries {
		fmt.Fprintf(out, "%d. %s  %s (%d quizzes)\n", idx+1, entry.Name, formatScore(entry.AverageScore), entry.QuizCount)
	}
	return nil
}

func runRecommendations(ctx context.Context, out io.Writer, client *HTTPClient) error {
	courses, err := client.MyRecommendations(ctx)
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		fmt.Fprintln(out, "Nothing to revise yet.")
		return nil
	}

	fmt.Fprintln(out, "Worth revisiting:")
	for idx, course := range courses {
		fmt.Fprintf(out, "%d. %s  %s\n", idx+1, course.CourseID, course.CourseName)
	}
	return nil
}

func runFeedback(ctx context.Context, out io.Writer, client *HTTPClient) error {
	items, err := client.MyFeedback(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "No feedback yet.")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(out, "[%s] %s\n", item.CourseID, item.Message)
	}
	return nil
}

func runAsk(ctx context.Context, out io.Writer, client *HTTPClient, question string) error {
	reply, err := client.Chat(ctx, question)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, reply)
	return nil
}

func runPlay(ctx context.Context, lines <-chan string, out io.Writer, client *HTTPClient, courseID string) error {
	attempt, err := client.StartPlay(ctx, courseID)
	if err != nil {
		return err
	}
	defer attempt.Close()

	_, err = cli.Play(ctx, lines, out, attempt)
	return err
}
