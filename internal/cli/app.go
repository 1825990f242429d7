package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"learnquiz/internal/quiz"
	"learnquiz/internal/session"
)

type Config struct {
	StudentID string
	Quizzes   *quiz.Service
	Engine    *session.Engine
}

// Run is the local terminal front end: it plays quizzes straight against
// the configured store.
func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	studentID := strings.TrimSpace(cfg.StudentID)
	if studentID == "" {
		return errors.New("student id is required")
	}
	if cfg.Quizzes == nil || cfg.Engine == nil {
		return errors.New("quiz service and engine are required")
	}

	lines := Lines(in)
	fmt.Fprintf(out, "quiz-cli\nstudent=%s\n\n", studentID)
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
		switch strings.ToLower(args[0]) {
		case "help":
			printHelp(out)
		case "exit":
			return nil
		case "courses":
			if err := runCourses(ctx, out, cfg.Quizzes); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "scores":
			if err := runScores(ctx, out, cfg.Quizzes, studentID); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "leaderboard":
			if err := runLeaderboard(ctx, out, cfg.Quizzes); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "play":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: play <course_id>")
				continue
			}
			if err := runPlay(ctx, lines, out, cfg, studentID, args[1]); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  courses")
	fmt.Fprintln(out, "  play <course_id>")
	fmt.Fprintln(out, "  scores")
	fmt.Fprintln(out, "  leaderboard")
	fmt.Fprintln(out, "  exit")
}

func runCourses(ctx context.Context, out io.Writer, quizzes *quiz.Service) error {
	courses, err := quizzes.ListCourses(ctx)
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

func runScores(ctx context.Context, out io.Writer, quizzes *quiz.Service, studentID string) error {
	records, err := quizzes.StudentScores(ctx, studentID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No scores yet.")
		return nil
	}
	for _, record := range records {
		fmt.Fprintf(out, "%s  %.2f%%\n", record.CourseID, record.ScorePercentage)
	}
	return nil
}

func runLeaderboard(ctx context.Context, out io.Writer, quizzes *quiz.Service) error {
	board, err := quizzes.Leaderboard(ctx, quiz.LeaderboardSize)
	if err != nil {
		return err
	}
	if len(board) == 0 {
		fmt.Fprintln(out, "No scores yet.")
		return nil
	}
	for idx, entry := range board {
		fmt.Fprintf(out, "%d. %s  %.2f%% (%d quizzes)\n", idx+1, entry.Name, entry.AverageScore, entry.QuizCount)
	}
	return nil
}

func runPlay(ctx context.Context, lines <-chan string, out io.Writer, cfg Config, studentID, courseID string) error {
	params := session.Params{StudentID: studentID, CourseID: courseID}
	if course, err := cfg.Quizzes.GetCourse(ctx, courseID); err == nil {
		params.CourseName = course.CourseName
	}

	playCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	_, err := Play(playCtx, lines, out, cfg.Engine.Start(playCtx, params))
	return err
}
