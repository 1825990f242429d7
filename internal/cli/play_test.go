package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"learnquiz/internal/quiz"
	"learnquiz/internal/session"
)

// scriptedAttempt answers every selection with the states returned by next
// and closes the stream after a terminal one.
type scriptedAttempt struct {
	states   chan session.State
	selected [][2]int
	next     func(question, option int) []session.State
}

func newScriptedAttempt(initial ...session.State) *scriptedAttempt {
	a := &scriptedAttempt{states: make(chan session.State, 16)}
	for _, state := range initial {
		a.states <- state
	}
	return a
}

func (a *scriptedAttempt) States() <-chan session.State { return a.states }

func (a *scriptedAttempt) Select(question, option int) bool {
	a.selected = append(a.selected, [2]int{question, option})
	if a.next == nil {
		return true
	}
	for _, state := range a.next(question, option) {
		a.states <- state
		if state.Phase.Terminal() {
			close(a.states)
		}
	}
	return true
}

func questionState(index, count, countdown int) session.State {
	return session.State{
		Phase:         session.PhaseAwaitingAnswer,
		CourseID:      "c1",
		QuestionIndex: index,
		QuestionCount: count,
		Countdown:     countdown,
		Question: &quiz.PublicQuestion{
			Question: "Question " + string(rune('1'+index)),
			Options:  []string{"alpha", "beta", "gamma", "delta"},
		},
	}
}

func bufferedLines(values ...string) <-chan string {
	lines := make(chan string, len(values))
	for _, value := range values {
		lines <- value
	}
	close(lines)
	return lines
}

func TestPlayForwardsLabelsAndQueuesTypedAhead(t *testing.T) {
	attempt := newScriptedAttempt(session.State{Phase: session.PhaseLoading}, questionState(0, 2, 30))
	attempt.next = func(question, _ int) []session.State {
		if question == 0 {
			return []session.State{questionState(1, 2, 30)}
		}
		return []session.State{
			{Phase: session.PhaseScoring, QuestionIndex: 2, QuestionCount: 2},
			{
				Phase:   session.PhaseCompleted,
				Score:   50,
				Answers: []string{"B", "A"},
				Message: "Quiz completed. Your score: 50.00%",
			},
		}
	}

	var out bytes.Buffer
	final, err := Play(context.Background(), bufferedLines("x", "b", " a "), &out, attempt)
	if err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if final.Phase != session.PhaseCompleted {
		t.Fatalf("final phase = %s, want completed", final.Phase)
	}

	want := [][2]int{{0, 1}, {1, 0}}
	if len(attempt.selected) != len(want) {
		t.Fatalf("selections = %v, want %v", attempt.selected, want)
	}
	for idx := range want {
		if attempt.selected[idx] != want[idx] {
			t.Fatalf("selections = %v, want %v", attempt.selected, want)
		}
	}

	text := out.String()
	for _, fragment := range []string{
		"Loading quiz...",
		"Please enter a letter A-D.",
		"Q1/2: Question 1  (30s)",
		"Q2/2: Question 2",
		"C. gamma",
		"Answers: B A",
		"Quiz completed. Your score: 50.00%",
	} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("output missing %q:\n%s", fragment, text)
		}
	}
}

func TestPlayShowsCountdownWithoutRepeatingQuestion(t *testing.T) {
	attempt := newScriptedAttempt(
		questionState(0, 1, 30),
		questionState(0, 1, 29),
		questionState(0, 1, 5),
		session.State{Phase: session.PhaseNoQuiz, Message: "no quiz available for c1"},
	)

	var out bytes.Buffer
	final, err := Play(context.Background(), nil, &out, attempt)
	if err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if final.Phase != session.PhaseNoQuiz {
		t.Fatalf("final phase = %s, want no-quiz", final.Phase)
	}

	text := out.String()
	if strings.Count(text, "Q1/1") != 1 {
		t.Fatalf("question rendered more than once:\n%s", text)
	}
	if strings.Contains(text, "29s left") {
		t.Fatalf("unexpected countdown line for 29:\n%s", text)
	}
	if !strings.Contains(text, "5s left") || !strings.Contains(text, "error: no quiz available for c1") {
		t.Fatalf("unexpected output:\n%s", text)
	}
}

func TestPlayReportsClosedStream(t *testing.T) {
	attempt := newScriptedAttempt(questionState(0, 3, 30))
	close(attempt.states)

	_, err := Play(context.Background(), nil, &bytes.Buffer{}, attempt)
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestPlayStopsOnCancel(t *testing.T) {
	attempt := newScriptedAttempt()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Play(ctx, nil, &bytes.Buffer{}, attempt)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLinesClosesOnEOF(t *testing.T) {
	lines := Lines(strings.NewReader("a\nb\n"))
	var got []string
	for line := range lines {
		got = append(got, line)
	}
	if strings.Join(got, ",") != "a,b" {
		t.Fatalf("lines = %v, want [a b]", got)
	}
}
