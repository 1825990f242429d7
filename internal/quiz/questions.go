package quiz

import (
	"html"
	"math/rand"
	"strings"
	"time"

	"learnquiz/internal/opentdb"
)

// OptionCount is the fixed number of options every question carries.
const OptionCount = 4

// MinQuizQuestions is the smallest quiz a lecturer may publish.
const MinQuizQuestions = 5

// Label names an option by its position: A, B, C or D.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
)

var labels = [OptionCount]Label{LabelA, LabelB, LabelC, LabelD}

// LabelForIndex maps an option position to its label.
func LabelForIndex(index int) (Label, bool) {
	if index < 0 || index >= OptionCount {
		return "", false
	}
	return labels[index], true
}

// ParseLabel accepts "a".."d" in any case and surrounding whitespace.
func ParseLabel(value string) (Label, bool) {
	letter := strings.ToUpper(strings.TrimSpace(value))
	if len(letter) != 1 {
		return "", false
	}
	return LabelForIndex(int(letter[0] - 'A'))
}

// Index returns the option position for l, or -1.
func (l Label) Index() int {
	for idx, candidate := range labels {
		if candidate == l {
			return idx
		}
	}
	return -1
}

// Answer is one recorded slot of a session. The zero value is "no answer",
// which is never equal to any label and never scores.
type Answer struct {
	label    Label
	answered bool
}

// NoAnswer is recorded on timeout or an unmappable selection.
var NoAnswer = Answer{}

func Answered(label Label) Answer {
	return Answer{label: label, answered: true}
}

func (a Answer) Label() (Label, bool) {
	return a.label, a.answered
}

func (a Answer) Answered() bool {
	return a.answered
}

func (a Answer) String() string {
	if !a.answered {
		return "-"
	}
	return string(a.label)
}

type Question struct {
	Question      string   `json:"question" validate:"notblank"`
	Options       []string `json:"options" validate:"len=4,dive,notblank"`
	CorrectAnswer Label    `json:"correctAnswer" validate:"oneof=A B C D"`
}

type PublicQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

func (q Question) Public() PublicQuestion {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return PublicQuestion{Question: q.Question, Options: options}
}

// IsCorrect reports whether answer selects the correct label.
func (q Question) IsCorrect(answer Answer) bool {
	label, ok := answer.Label()
	return ok && label == q.CorrectAnswer
}

// OptionIndex finds the position of text among the options, or -1.
func (q Question) OptionIndex(text string) int {
	for idx, option := range q.Options {
		if option == text {
			return idx
		}
	}
	return -1
}

type Quiz struct {
	QuizID     string     `json:"quizId"`
	CourseID   string     `json:"courseId"`
	CourseName string     `json:"courseName"`
	Questions  []Question `json:"questions"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ScorePercentage is 100 * correct / len(questions). Slots beyond len(answers)
// count as unanswered.
func ScorePercentage(questions []Question, answers []Answer) float64 {
	if len(questions) == 0 {
		return 0
	}

	correct := 0
	for idx, question := range questions {
		if idx < len(answers) && question.IsCorrect(answers[idx]) {
			correct++
		}
	}
	return float64(correct) / float64(len(questions)) * 100
}

// BuildQuestions converts OpenTDB multiple-choice items into four-option
// questions. Items that do not carry exactly three distractors are skipped.
func BuildQuestions(raw []opentdb.RawQuestion) []Question {
	questions := make([]Question, 0, len(raw))
	for _, item := range raw {
		if len(item.IncorrectAnswers) != OptionCount-1 {
			continue
		}
		questions = append(questions, buildQuestion(item))
	}
	return questions
}

func buildQuestion(raw opentdb.RawQuestion) Question {
	type choice struct {
		text      string
		isCorrect bool
	}

	choices := make([]choice, 0, len(raw.IncorrectAnswers)+1)
	for _, incorrect := range raw.IncorrectAnswers {
		choices = append(choices, choice{
			text:      html.UnescapeString(incorrect),
			isCorrect: false,
		})
	}

	choices = append(choices, choice{
		text:      html.UnescapeString(raw.CorrectAnswer),
		isCorrect: true,
	})

	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	options := make([]string, len(choices))
	var correct Label
	for idx, candidate := range choices {
		options[idx] = candidate.text
		if candidate.isCorrect {
			correct, _ = LabelForIndex(idx)
		}
	}

	return Question{
		Question:      html.UnescapeString(raw.Question),
		Options:       options,
		CorrectAnswer: correct,
	}
}
