package quiz

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"learnquiz/internal/validation"
)

func init() {
	validation.Validate.RegisterStructValidation(questionStructValidation, Question{})
}

// questionStructValidation enforces that the correct label points at a
// non-empty option.
func questionStructValidation(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(Question)
	if !ok {
		return
	}
	idx := q.CorrectAnswer.Index()
	if idx < 0 || idx >= len(q.Options) || strings.TrimSpace(q.Options[idx]) == "" {
		sl.ReportError(q.CorrectAnswer, "correctAnswer", "CorrectAnswer", "oneof", "A B C D")
	}
}

// ValidateQuestion checks a single authored question.
func ValidateQuestion(q Question) error {
	return validation.Struct(q)
}
