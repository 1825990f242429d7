package userclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  courses")
	fmt.Fprintln(out, "  play <course_id>")
	fmt.Fprintln(out, "  scores")
	fmt.Fprintln(out, "  leaderboard [limit]")
	fmt.Fprintln(out, "  recommend")
	fmt.Fprintln(out, "  feedback")
	fmt.Fprintln(out, "  ask <question>")
	fmt.Fprintln(out, "  exit")
}

func parsePositiveLimit(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(args[index])
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64) + "%"
}

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, ErrServiceUnavailable) {
		return fmt.Errorf("quiz service unavailable at %s", serverURL)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("session expired, please log in again")
		case http.StatusTooManyRequests:
			return errors.New("assistant quota exceeded, try again later")
		}
	}
	return err
}
