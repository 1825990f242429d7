package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"learnquiz/internal/quiz"
	"learnquiz/internal/session"
)

// Attempt is a running quiz, local or remote.
type Attempt interface {
	States() <-chan session.State
	Select(question, option int) bool
}

var ErrSessionClosed = errors.New("quiz session closed before finishing")

// Lines reads in on its own goroutine so prompts never block the countdown.
// The channel closes on EOF or read error.
func Lines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// Play renders every state of attempt and forwards typed labels as
// selections. Answers typed ahead are queued and applied to the next
// unanswered question. It returns the terminal state.
func Play(ctx context.Context, lines <-chan string, out io.Writer, attempt Attempt) (session.State, error) {
	states := attempt.States()
	current := session.State{QuestionIndex: -1}
	shown := -1
	answered := -1
	var pending []quiz.Label

	flush := func() {
		for len(pending) > 0 && current.Phase == session.PhaseAwaitingAnswer && current.QuestionIndex > answered {
			attempt.Select(current.QuestionIndex, pending[0].Index())
			answered = current.QuestionIndex
			pending = pending[1:]
		}
	}

	for {
		input := lines
		if current.QuestionCount > 0 && answered >= current.QuestionCount-1 {
			// Leave further input to the caller.
			input = nil
		}

		select {
		case <-ctx.Done():
			return current, ctx.Err()

		case state, ok := <-states:
			if !ok {
				if current.Phase.Terminal() {
					return current, nil
				}
				return current, ErrSessionClosed
			}
			current = state
			shown = render(out, state, shown)
			if state.Phase.Terminal() {
				return state, nil
			}
			flush()

		case line, ok := <-input:
			if !ok {
				// Without input the countdown decides the remaining answers.
				lines = nil
				continue
			}
			label, valid := quiz.ParseLabel(line)
			if !valid {
				fmt.Fprintln(out, "Please enter a letter A-D.")
				continue
			}
			pending = append(pending, label)
			flush()
		}
	}
}

func render(out io.Writer, state session.State, shown int) int {
	switch state.Phase {
	case session.PhaseLoading:
		fmt.Fprintln(out, "Loading quiz...")
	case session.PhaseAwaitingAnswer:
		if state.QuestionIndex != shown {
			printQuestion(out, state)
			return state.QuestionIndex
		}
		if state.Countdown <= 5 || state.Countdown%10 == 0 {
			fmt.Fprintf(out, "  %ds left\n", state.Countdown)
		}
	case session.PhaseScoring:
		fmt.Fprintln(out, "Scoring...")
	case session.PhaseCompleted:
		fmt.Fprintf(out, "\nAnswers: %s\n", strings.Join(state.Answers, " "))
		fmt.Fprintln(out, state.Message)
	default:
		fmt.Fprintf(out, "error: %s\n", state.Message)
	}
	return shown
}

func printQuestion(out io.Writer, state session.State) {
	if state.Question == nil {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d/%d: %s  (%ds)\n\n", state.QuestionIndex+1, state.QuestionCount, state.Question.Question, state.Countdown)
	for idx, option := range state.Question.Options {
		label, _ := quiz.LabelForIndex(idx)
		fmt.Fprintf(out, "%s. %s\n", label, option)
	}
	fmt.Fprint(out, "\nYour answer (A-D): ")
}
