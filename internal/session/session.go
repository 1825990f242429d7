package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"learnquiz/internal/quiz"
)

const (
	defaultTickInterval = time.Second
	stateBuffer         = 16
)

// QuizSource fetches the quiz of a course. Zero documents must be reported
// as quiz.ErrQuizNotFound.
type QuizSource interface {
	FetchQuiz(ctx context.Context, courseID string) (quiz.Quiz, error)
}

type Config struct {
	// Countdown is the number of ticks allowed per question.
	Countdown    int
	TickInterval time.Duration
	Clock        Clock
	Logger       *log.Logger
	Now          func() time.Time
}

type Engine struct {
	quizzes QuizSource
	scores  ScoreStore
	cfg     Config
}

func NewEngine(quizzes QuizSource, scores ScoreStore, cfg Config) *Engine {
	if cfg.Countdown <= 0 {
		cfg.Countdown = DefaultCountdown
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{quizzes: quizzes, scores: scores, cfg: cfg}
}

// Params identify one attempt. StudentID is the signed-in user.
type Params struct {
	StudentID  string
	CourseID   string
	CourseName string
}

// State is what the caller observes after every transition and tick. A
// PhaseScoring state is published between the last answer and the terminal
// completed or error state; clients may treat it as in progress.
type State struct {
	Phase         Phase                `json:"phase"`
	CourseID      string               `json:"courseId"`
	CourseName    string               `json:"courseName"`
	QuestionIndex int                  `json:"questionIndex"`
	QuestionCount int                  `json:"questionCount"`
	Countdown     int                  `json:"countdown"`
	Question      *quiz.PublicQuestion `json:"question,omitempty"`
	Score         float64              `json:"score"`
	Updated       bool                 `json:"updated"`
	Answers       []string             `json:"answers,omitempty"`
	Message       string               `json:"message,omitempty"`
}

type selection struct {
	question int
	option   int
	text     string
	byText   bool
}

// Session is one running attempt. All state lives in the run goroutine;
// selections and countdown ticks reach it through one ordered select loop,
// so the first event for a question wins and later ones are dropped.
type Session struct {
	engine *Engine
	params Params

	selections chan selection
	states     chan State
	done       chan struct{}
}

// Start launches a session. Callers must drain States until it is closed or
// cancel ctx.
func (e *Engine) Start(ctx context.Context, params Params) *Session {
	s := &Session{
		engine: e,
		params: Params{
			StudentID:  strings.TrimSpace(params.StudentID),
			CourseID:   strings.TrimSpace(params.CourseID),
			CourseName: strings.TrimSpace(params.CourseName),
		},
		selections: make(chan selection),
		states:     make(chan State, stateBuffer),
		done:       make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// States delivers every observable state; it is closed after the terminal one.
func (s *Session) States() <-chan State {
	return s.states
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Select answers question with the option at index. A selection for a
// question that is no longer current is ignored. It returns false once the
// session has finished.
func (s *Session) Select(question, option int) bool {
	return s.send(selection{question: question, option: option})
}

// SelectOption answers question by option text.
func (s *Session) SelectOption(question int, text string) bool {
	return s.send(selection{question: question, text: text, byText: true})
}

func (s *Session) send(sel selection) bool {
	select {
	case s.selections <- sel:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.states)

	logger := s.engine.cfg.Logger
	base := State{CourseID: s.params.CourseID, CourseName: s.params.CourseName}

	loading := base
	loading.Phase = PhaseLoading
	if !s.publish(ctx, loading) {
		return
	}

	if s.params.CourseID == "" || s.params.StudentID == "" {
		invalid := base
		invalid.Phase = PhaseInvalidInput
		invalid.Message = "invalid course or quiz data"
		s.publish(ctx, invalid)
		return
	}

	machine, err := s.load(ctx)
	if err != nil {
		noQuiz := base
		noQuiz.Phase = PhaseNoQuiz
		noQuiz.Message = err.Error()
		s.publish(ctx, noQuiz)
		return
	}

	logger.Printf("quiz session started course=%s student=%s questions=%d", s.params.CourseID, s.params.StudentID, machine.Len())

	if !s.ask(ctx, machine) {
		return
	}

	scoring := s.stateFor(machine)
	if !s.publish(ctx, scoring) {
		return
	}

	updated, err := RegisterScore(ctx, s.engine.scores, s.params.StudentID, s.params.CourseID, machine.Score(), s.engine.cfg.Now())
	final := s.stateFor(machine)
	if err != nil {
		logger.Printf("quiz session course=%s student=%s score=%.2f: %v", s.params.CourseID, s.params.StudentID, machine.Score(), err)
		final.Phase = PhaseFailed
		final.Message = ErrSaveScore.Error()
		s.publish(ctx, final)
		return
	}

	final.Phase = PhaseCompleted
	final.Updated = updated
	if updated {
		final.Message = fmt.Sprintf("Your score has been updated: %.2f%%", machine.Score())
	} else {
		final.Message = fmt.Sprintf("Quiz completed. Your score: %.2f%%", machine.Score())
	}
	logger.Printf("quiz session finished course=%s student=%s score=%.2f updated=%t", s.params.CourseID, s.params.StudentID, machine.Score(), updated)
	s.publish(ctx, final)
}

func (s *Session) load(ctx context.Context) (*Machine, error) {
	name := s.params.CourseName
	if name == "" {
		name = s.params.CourseID
	}

	q, err := s.engine.quizzes.FetchQuiz(ctx, s.params.CourseID)
	if err != nil {
		if errors.Is(err, quiz.ErrQuizNotFound) {
			return nil, fmt.Errorf("no quiz available for %s", name)
		}
		s.engine.cfg.Logger.Printf("quiz session fetch course=%s: %v", s.params.CourseID, err)
		return nil, errors.New("failed to load quiz")
	}
	if s.params.CourseName == "" {
		s.params.CourseName = q.CourseName
	}

	machine, err := NewMachine(q.Questions, s.engine.cfg.Countdown)
	if err != nil {
		return nil, fmt.Errorf("no quiz available for %s", name)
	}
	return machine, nil
}

// ask runs the question loop until the machine leaves PhaseAwaitingAnswer.
// It returns false if the context ended first.
func (s *Session) ask(ctx context.Context, machine *Machine) bool {
	clock := s.engine.cfg.Clock
	interval := s.engine.cfg.TickInterval

	ticker := clock.NewTicker(interval)
	defer func() { ticker.Stop() }()

	if !s.publish(ctx, s.stateFor(machine)) {
		return false
	}

	for machine.Phase() == PhaseAwaitingAnswer {
		cursor := machine.Cursor()

		select {
		case <-ctx.Done():
			return false
		case sel := <-s.selections:
			if sel.question != cursor {
				continue
			}
			if sel.byText {
				machine.SelectOption(sel.text)
			} else {
				machine.Select(sel.option)
			}
		case <-ticker.C():
			machine.Tick()
		}

		if machine.Cursor() != cursor || machine.Phase() != PhaseAwaitingAnswer {
			// Drop the old countdown so a pending expiry cannot fire twice.
			ticker.Stop()
			if machine.Phase() != PhaseAwaitingAnswer {
				return true
			}
			ticker = clock.NewTicker(interval)
		}

		if !s.publish(ctx, s.stateFor(machine)) {
			return false
		}
	}
	return true
}

func (s *Session) stateFor(machine *Machine) State {
	state := State{
		Phase:         machine.Phase(),
		CourseID:      s.params.CourseID,
		CourseName:    s.params.CourseName,
		QuestionIndex: machine.Cursor(),
		QuestionCount: machine.Len(),
		Countdown:     machine.Countdown(),
	}
	if question, ok := machine.Current(); ok {
		public := question.Public()
		state.Question = &public
		return state
	}

	state.Score = machine.Score()
	answers := machine.Answers()
	state.Answers = make([]string, len(answers))
	for idx, answer := range answers {
		state.Answers[idx] = answer.String()
	}
	return state
}

func (s *Session) publish(ctx context.Context, state State) bool {
	select {
	case s.states <- state:
		return true
	case <-ctx.Done():
		return false
	}
}
