package session

import (
	"testing"

	"learnquiz/internal/quiz"
)

func sampleQuestions(n int) []quiz.Question {
	questions := make([]quiz.Question, n)
	for idx := range questions {
		questions[idx] = quiz.Question{
			Question:      "Question " + string(rune('1'+idx)),
			Options:       []string{"alpha", "beta", "gamma", "delta"},
			CorrectAnswer: quiz.LabelA,
		}
	}
	return questions
}

func TestMachineRecordsOneAnswerPerQuestion(t *testing.T) {
	m, err := NewMachine(sampleQuestions(5), 30)
	if err != nil {
		t.Fatalf("NewMachine returned error: %v", err)
	}

	// correct, wrong, correct, timeout, correct
	m.Select(0)
	m.Select(1)
	m.SelectOption("alpha")
	for i := 0; i < 30; i++ {
		m.Tick()
	}
	m.Select(0)

	if m.Phase() != PhaseScoring {
		t.Fatalf("expected scoring phase, got %s", m.Phase())
	}
	answers := m.Answers()
	if len(answers) != 5 {
		t.Fatalf("expected 5 answers, got %d", len(answers))
	}
	want := []string{"A", "B", "A", "-", "A"}
	for idx, answer := range answers {
		if answer.String() != want[idx] {
			t.Fatalf("answer %d: expected %s, got %s", idx, want[idx], answer)
		}
	}
	if m.Score() != 60 {
		t.Fatalf("expected score 60, got %v", m.Score())
	}
}

func TestMachineSelectMapsIndexToLabel(t *testing.T) {
	m, _ := NewMachine(sampleQuestions(1), 30)
	m.Select(2)

	label, ok := m.Answers()[0].Label()
	if !ok || label != quiz.LabelC {
		t.Fatalf("expected C, got %q answered=%v", label, ok)
	}
}

func TestMachineOutOfRangeSelectionIsNoAnswer(t *testing.T) {
	m, _ := NewMachine(sampleQuestions(2), 30)
	m.Select(7)
	m.SelectOption("not an option")

	for idx, answer := range m.Answers() {
		if answer.Answered() {
			t.Fatalf("answer %d: expected no answer, got %s", idx, answer)
		}
	}
	if m.Score() != 0 {
		t.Fatalf("expected score 0, got %v", m.Score())
	}
}

func TestMachineTickExpiresAtZero(t *testing.T) {
	m, _ := NewMachine(sampleQuestions(2), 3)

	if m.Tick() || m.Countdown() != 2 {
		t.Fatalf("expected countdown 2 without expiry, got %d", m.Countdown())
	}
	m.Tick()
	if !m.Tick() {
		t.Fatal("expected third tick to expire the question")
	}
	if m.Cursor() != 1 || m.Countdown() != 3 {
		t.Fatalf("expected cursor 1 with reset countdown, got cursor=%d countdown=%d", m.Cursor(), m.Countdown())
	}
	if m.Answers()[0].Answered() {
		t.Fatal("expected expired question to record no answer")
	}
}

func TestMachineIgnoresEventsAfterLastQuestion(t *testing.T) {
	m, _ := NewMachine(sampleQuestions(1), 30)
	m.Select(0)

	if m.Select(1) || m.Tick() {
		t.Fatal("expected events after the last question to be rejected")
	}
	if _, ok := m.Current(); ok {
		t.Fatal("expected no current question after the last answer")
	}
	if m.Answers()[0].String() != "A" {
		t.Fatalf("expected first answer to stay A, got %s", m.Answers()[0])
	}
}

func TestNewMachineRejectsEmptyQuiz(t *testing.T) {
	if _, err := NewMachine(nil, 30); err != ErrNoQuestions {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestPhaseTextRoundTrip(t *testing.T) {
	text, _ := PhaseAwaitingAnswer.MarshalText()
	if string(text) != "in_progress" {
		t.Fatalf("unexpected text %q", text)
	}

	var p Phase
	if err := p.UnmarshalText([]byte("error")); err != nil || p != PhaseFailed {
		t.Fatalf("expected PhaseFailed, got %s err=%v", p, err)
	}
	if err := p.UnmarshalText([]byte("bogus")); err == nil {
		t.Fatal("expected error for unknown phase")
	}
}
