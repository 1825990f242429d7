package session

import (
	"errors"

	"learnquiz/internal/quiz"
)

// DefaultCountdown is the per-question time allowance in ticks.
const DefaultCountdown = 30

// ErrNoQuestions rejects a quiz that cannot start a session.
var ErrNoQuestions = errors.New("quiz has no questions")

// Phase is the observable stage of a session.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseInvalidInput
	PhaseNoQuiz
	PhaseAwaitingAnswer
	PhaseScoring
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseInvalidInput:
		return "invalid_input"
	case PhaseNoQuiz:
		return "no_quiz"
	case PhaseAwaitingAnswer:
		return "in_progress"
	case PhaseScoring:
		return "scoring"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "error"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for candidate := PhaseLoading; candidate <= PhaseFailed; candidate++ {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return errors.New("unknown phase " + string(text))
}

// Terminal reports whether no further states follow p.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseInvalidInput, PhaseNoQuiz, PhaseCompleted, PhaseFailed:
		return true
	}
	return false
}

// Machine is the question cursor. It is not safe for concurrent use; a
// Session drives it from a single goroutine.
type Machine struct {
	questions []quiz.Question
	answers   []quiz.Answer
	cursor    int
	duration  int
	countdown int
	phase     Phase
	score     float64
}

// NewMachine starts at the first question with a full countdown.
func NewMachine(questions []quiz.Question, duration int) (*Machine, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if duration <= 0 {
		duration = DefaultCountdown
	}

	return &Machine{
		questions: questions,
		answers:   make([]quiz.Answer, len(questions)),
		duration:  duration,
		countdown: duration,
		phase:     PhaseAwaitingAnswer,
	}, nil
}

// Select records the option at index for the current question and advances.
// Indexes outside A-D record NoAnswer. It returns false once the machine has
// left PhaseAwaitingAnswer.
func (m *Machine) Select(index int) bool {
	if m.phase != PhaseAwaitingAnswer {
		return false
	}

	answer := quiz.NoAnswer
	if label, ok := quiz.LabelForIndex(index); ok && index < len(m.questions[m.cursor].Options) {
		answer = quiz.Answered(label)
	}
	m.advance(answer)
	return true
}

// SelectOption maps option text to its position, as a tap on a rendered
// option would.
func (m *Machine) SelectOption(text string) bool {
	if m.phase != PhaseAwaitingAnswer {
		return false
	}
	return m.Select(m.questions[m.cursor].OptionIndex(text))
}

// Tick consumes one unit of the countdown. When it reaches zero the current
// question is recorded as NoAnswer and the cursor advances; Tick then
// returns true.
func (m *Machine) Tick() bool {
	if m.phase != PhaseAwaitingAnswer {
		return false
	}

	if m.countdown > 0 {
		m.countdown--
	}
	if m.countdown > 0 {
		return false
	}
	m.advance(quiz.NoAnswer)
	return true
}

func (m *Machine) advance(answer quiz.Answer) {
	m.answers[m.cursor] = answer

	if m.cursor < len(m.questions)-1 {
		m.cursor++
		m.countdown = m.duration
		return
	}

	m.phase = PhaseScoring
	m.countdown = 0
	m.score = quiz.ScorePercentage(m.questions, m.answers)
}

func (m *Machine) Phase() Phase {
	return m.phase
}

func (m *Machine) Cursor() int {
	return m.cursor
}

func (m *Machine) Countdown() int {
	return m.countdown
}

func (m *Machine) Len() int {
	return len(m.questions)
}

// Current returns the question under the cursor while awaiting an answer.
func (m *Machine) Current() (quiz.Question, bool) {
	if m.phase != PhaseAwaitingAnswer {
		return quiz.Question{}, false
	}
	return m.questions[m.cursor], true
}

func (m *Machine) Answers() []quiz.Answer {
	out := make([]quiz.Answer, len(m.answers))
	copy(out, m.answers)
	return out
}

// Score is valid once the machine reaches PhaseScoring.
func (m *Machine) Score() float64 {
	return m.score
}
