package quiz

import (
	"context"
	"errors"
	"time"

	"learnquiz/internal/validation"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrCourseNotFound  = errors.New("course not found")
	ErrCourseExists    = errors.New("course already exists")
	ErrTooFewQuestions = errors.New("quiz needs more questions")
	ErrInvalidInput    = validation.ErrInvalid
)

type Course struct {
	CourseID   string `json:"courseId" validate:"notblank"`
	CourseName string `json:"courseName" validate:"notblank"`
	LecturerID string `json:"lecturerId,omitempty"`
}

// ScoreRecord is the persisted (student, course) -> percentage mapping.
type ScoreRecord struct {
	UserID          string    `json:"userId"`
	CourseID        string    `json:"courseId"`
	ScorePercentage float64   `json:"scorePercentage"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Feedback struct {
	StudentID  string    `json:"studentId" validate:"notblank"`
	CourseID   string    `json:"courseId" validate:"notblank"`
	LecturerID string    `json:"lecturerId"`
	Message    string    `json:"message" validate:"notblank,max=2000"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ScoreKey is the composite document key "{studentId}_{courseId}". Score
// records and feedback share the same key shape.
func ScoreKey(studentID, courseID string) string {
	return studentID + "_" + courseID
}

type CourseRepository interface {
	CreateCourse(ctx context.Context, course Course) error
	GetCourse(ctx context.Context, courseID string) (Course, error)
	ListCourses(ctx context.Context) ([]Course, error)
	ListCoursesByLecturer(ctx context.Context, lecturerID string) ([]Course, error)
}

type QuizRepository interface {
	SaveQuiz(ctx context.Context, quiz Quiz) error
	FetchQuiz(ctx context.Context, courseID string) (Quiz, error)
}

type ScoreRepository interface {
	GetScore(ctx context.Context, key string) (ScoreRecord, bool, error)
	PutScore(ctx context.Context, key string, record ScoreRecord) error
	ListScores(ctx context.Context) ([]ScoreRecord, error)
	ListScoresByCourse(ctx context.Context, courseID string) ([]ScoreRecord, error)
	ListScoresByStudent(ctx context.Context, studentID string) ([]ScoreRecord, error)
}

type FeedbackRepository interface {
	PutFeedback(ctx context.Context, key string, feedback Feedback) error
	ListFeedbackForStudent(ctx context.Context, studentID string) ([]Feedback, error)
}

// NameLookup resolves a user id to a display name.
type NameLookup interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}
