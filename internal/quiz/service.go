package quiz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"learnquiz/internal/opentdb"
	"learnquiz/internal/validation"
)

const (
	defaultImportAmount = 10
	LeaderboardSize     = 5
	RecommendationCount = 3
)

type QuestionsFetcher func(ctx context.Context, amount int) ([]opentdb.RawQuestion, error)

type Deps struct {
	Courses  CourseRepository
	Quizzes  QuizRepository
	Scores   ScoreRepository
	Feedback FeedbackRepository
	Names    NameLookup
	Fetcher  QuestionsFetcher
}

type Service struct {
	courses  CourseRepository
	quizzes  QuizRepository
	scores   ScoreRepository
	feedback FeedbackRepository
	names    NameLookup
	fetcher  QuestionsFetcher

	mu        sync.RWMutex
	quizCache map[string]Quiz
}

func NewService(deps Deps) *Service {
	return &Service{
		courses:   deps.Courses,
		quizzes:   deps.Quizzes,
		scores:    deps.Scores,
		feedback:  deps.Feedback,
		names:     deps.Names,
		fetcher:   deps.Fetcher,
		quizCache: make(map[string]Quiz),
	}
}

func (s *Service) CreateCourse(ctx context.Context, lecturerID, courseID, courseName string) (Course, error) {
	course := Course{
		CourseID:   strings.TrimSpace(courseID),
		CourseName: strings.TrimSpace(courseName),
		LecturerID: lecturerID,
	}
	if err := validation.Struct(course); err != nil {
		return Course{}, err
	}
	if err := s.courses.CreateCourse(ctx, course); err != nil {
		return Course{}, err
	}
	return course, nil
}

func (s *Service) GetCourse(ctx context.Context, courseID string) (Course, error) {
	return s.courses.GetCourse(ctx, strings.TrimSpace(courseID))
}

func (s *Service) ListCourses(ctx context.Context) ([]Course, error) {
	return s.courses.ListCourses(ctx)
}

func (s *Service) ListLecturerCourses(ctx context.Context, lecturerID string) ([]Course, error) {
	return s.courses.ListCoursesByLecturer(ctx, lecturerID)
}

// CreateQuiz publishes the quiz for a course, replacing any previous one.
func (s *Service) CreateQuiz(ctx context.Context, courseID string, questions []Question) (Quiz, error) {
	course, err := s.courses.GetCourse(ctx, strings.TrimSpace(courseID))
	if err != nil {
		return Quiz{}, err
	}

	if len(questions) < MinQuizQuestions {
		return Quiz{}, fmt.Errorf("%w: got %d, need at least %d", ErrTooFewQuestions, len(questions), MinQuizQuestions)
	}
	for idx, question := range questions {
		if err := ValidateQuestion(question); err != nil {
			return Quiz{}, fmt.Errorf("question %d: %w", idx+1, err)
		}
	}

	quiz := Quiz{
		QuizID:     uuid.NewString(),
		CourseID:   course.CourseID,
		CourseName: course.CourseName,
		Questions:  questions,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.quizzes.SaveQuiz(ctx, quiz); err != nil {
		// The stored quiz is unknown after a failed replace.
		s.invalidateQuiz(course.CourseID)
		return Quiz{}, err
	}

	s.setCachedQuiz(quiz)
	return quiz, nil
}

// ImportQuiz builds a quiz for the course from OpenTDB trivia.
func (s *Service) ImportQuiz(ctx context.Context, courseID string, amount int) (Quiz, error) {
	if s.fetcher == nil {
		return Quiz{}, errors.New("question fetcher is not configured")
	}
	if amount < MinQuizQuestions {
		amount = defaultImportAmount
	}

	raw, err := s.fetcher(ctx, amount)
	if err != nil {
		return Quiz{}, err
	}
	return s.CreateQuiz(ctx, courseID, BuildQuestions(raw))
}

// FetchQuiz returns the course quiz. An existing quiz with no questions is
// reported as ErrQuizNotFound.
func (s *Service) FetchQuiz(ctx context.Context, courseID string) (Quiz, error) {
	courseID = strings.TrimSpace(courseID)
	if cached, ok := s.getCachedQuiz(courseID); ok {
		return cached, nil
	}

	quiz, err := s.quizzes.FetchQuiz(ctx, courseID)
	if err != nil {
		return Quiz{}, err
	}
	if len(quiz.Questions) == 0 {
		return Quiz{}, ErrQuizNotFound
	}

	s.setCachedQuiz(quiz)
	return quiz, nil
}

type StandingEntry struct {
	UserID       string  `json:"userId"`
	Name         string  `json:"name"`
	AverageScore float64 `json:"averageScore"`
	QuizCount    int     `json:"quizCount"`
}

type CoursePerformance struct {
	CourseID string          `json:"courseId"`
	Top      []StandingEntry `json:"top"`
	Bottom   []StandingEntry `json:"bottom"`
}

// Leaderboard ranks students by their average score across all courses.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]StandingEntry, error) {
	if limit <= 0 {
		limit = LeaderboardSize
	}

	records, err := s.scores.ListScores(ctx)
	if err != nil {
		return nil, err
	}

	standings := averageByStudent(records)
	standings = applyLimit(standings, limit)
	s.resolveNames(ctx, standings)
	return standings, nil
}

// CoursePerformance returns the best and worst performers of one course.
func (s *Service) CoursePerformance(ctx context.Context, courseID string, size int) (CoursePerformance, error) {
	course, err := s.courses.GetCourse(ctx, strings.TrimSpace(courseID))
	if err != nil {
		return CoursePerformance{}, err
	}
	if size <= 0 {
		size = LeaderboardSize
	}

	records, err := s.scores.ListScoresByCourse(ctx, course.CourseID)
	if err != nil {
		return CoursePerformance{}, err
	}

	standings := averageByStudent(records)
	s.resolveNames(ctx, standings)

	perf := CoursePerformance{CourseID: course.CourseID}
	perf.Top = applyLimit(standings, size)
	if len(standings) > size {
		perf.Bottom = standings[len(standings)-size:]
	} else {
		perf.Bottom = standings
	}
	return perf, nil
}

func (s *Service) StudentScores(ctx context.Context, studentID string) ([]ScoreRecord, error) {
	return s.scores.ListScoresByStudent(ctx, studentID)
}

// Recommendations returns the courses where the student scored lowest.
func (s *Service) Recommendations(ctx context.Context, studentID string, limit int) ([]Course, error) {
	if limit <= 0 {
		limit = RecommendationCount
	}

	records, err := s.scores.ListScoresByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ScorePercentage < records[j].ScorePercentage
	})

	courses := make([]Course, 0, limit)
	for _, record := range records {
		if len(courses) == limit {
			break
		}
		course, err := s.courses.GetCourse(ctx, record.CourseID)
		if errors.Is(err, ErrCourseNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, nil
}

func (s *Service) SendFeedback(ctx context.Context, lecturerID, studentID, courseID, message string) (Feedback, error) {
	feedback := Feedback{
		StudentID:  strings.TrimSpace(studentID),
		CourseID:   strings.TrimSpace(courseID),
		LecturerID: lecturerID,
		Message:    strings.TrimSpace(message),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := validation.Struct(feedback); err != nil {
		return Feedback{}, err
	}
	if _, err := s.courses.GetCourse(ctx, feedback.CourseID); err != nil {
		return Feedback{}, err
	}

	if err := s.feedback.PutFeedback(ctx, ScoreKey(feedback.StudentID, feedback.CourseID), feedback); err != nil {
		return Feedback{}, err
	}
	return feedback, nil
}

func (s *Service) StudentFeedback(ctx context.Context, studentID string) ([]Feedback, error) {
	return s.feedback.ListFeedbackForStudent(ctx, studentID)
}

func (s *Service) resolveNames(ctx context.Context, entries []StandingEntry) {
	for idx := range entries {
		entries[idx].Name = entries[idx].UserID
		if s.names == nil {
			continue
		}
		if name, err := s.names.DisplayName(ctx, entries[idx].UserID); err == nil && name != "" {
			entries[idx].Name = name
		}
	}
}

func averageByStudent(records []ScoreRecord) []StandingEntry {
	type total struct {
		sum   float64
		count int
	}

	totals := make(map[string]*total)
	order := make([]string, 0)
	for _, record := range records {
		t, ok := totals[record.UserID]
		if !ok {
			t = &total{}
			totals[record.UserID] = t
			order = append(order, record.UserID)
		}
		t.sum += record.ScorePercentage
		t.count++
	}

	standings := make([]StandingEntry, 0, len(order))
	for _, userID := range order {
		t := totals[userID]
		standings = append(standings, StandingEntry{
			UserID:       userID,
			AverageScore: t.sum / float64(t.count),
			QuizCount:    t.count,
		})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standingBefore(standings[i], standings[j])
	})
	return standings
}

func standingBefore(a, b StandingEntry) bool {
	// Higher average first, then user id for deterministic output.
	if a.AverageScore != b.AverageScore {
		return a.AverageScore > b.AverageScore
	}
	return a.UserID < b.UserID
}
