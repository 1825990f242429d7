// Package memstore keeps every collection in process memory. It backs tests
// and the single-binary CLI.
package memstore

import (
	"context"
	"sort"
	"sync"

	"learnquiz/internal/auth"
	"learnquiz/internal/quiz"
)

type Store struct {
	mu sync.RWMutex

	courses  map[string]quiz.Course
	quizzes  map[string]quiz.Quiz
	scores   map[string]quiz.ScoreRecord
	feedback map[string]quiz.Feedback
	users    map[string]auth.User

	// Counters let tests assert the read-then-write contract.
	GetScoreCalls int
	PutScoreCalls int
}

func New() *Store {
	return &Store{
		courses:  make(map[string]quiz.Course),
		quizzes:  make(map[string]quiz.Quiz),
		scores:   make(map[string]quiz.ScoreRecord),
		feedback: make(map[string]quiz.Feedback),
		users:    make(map[string]auth.User),
	}
}

// Close is a no-op; it lets Store stand in for a database-backed store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) CreateCourse(_ context.Context, course quiz.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.CourseID]; ok {
		return quiz.ErrCourseExists
	}
	s.courses[course.CourseID] = course
	return nil
}

func (s *Store) GetCourse(_ context.Context, courseID string) (quiz.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	course, ok := s.courses[courseID]
	if !ok {
		return quiz.Course{}, quiz.ErrCourseNotFound
	}
	return course, nil
}

func (s *Store) ListCourses(_ context.Context) ([]quiz.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]quiz.Course, 0, len(s.courses))
	for _, course := range s.courses {
		out = append(out, course)
	}
	sortCourses(out)
	return out, nil
}

func (s *Store) ListCoursesByLecturer(_ context.Context, lecturerID string) ([]quiz.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]quiz.Course, 0)
	for _, course := range s.courses {
		if course.LecturerID == lecturerID {
			out = append(out, course)
		}
	}
	sortCourses(out)
	return out, nil
}

// PutQuiz stores q as-is, skipping the service's validation. Tests use it to
// seed malformed or empty quizzes.
func (s *Store) PutQuiz(q quiz.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[q.CourseID] = q
}

func (s *Store) SaveQuiz(_ context.Context, q quiz.Quiz) error {
	s.PutQuiz(q)
	return nil
}

func (s *Store) FetchQuiz(_ context.Context, courseID string) (quiz.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[courseID]
	if !ok {
		return quiz.Quiz{}, quiz.ErrQuizNotFound
	}
	return q, nil
}

func (s *Store) GetScore(_ context.Context, key string) (quiz.ScoreRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetScoreCalls++
	record, ok := s.scores[key]
	return record, ok, nil
}

func (s *Store) PutScore(_ context.Context, key string, record quiz.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PutScoreCalls++
	s.scores[key] = record
	return nil
}

func (s *Store) ListScores(_ context.Context) ([]quiz.ScoreRecord, error) {
	return s.filterScores(func(quiz.ScoreRecord) bool { return true }), nil
}

func (s *Store) ListScoresByCourse(_ context.Context, courseID string) ([]quiz.ScoreRecord, error) {
	return s.filterScores(func(r quiz.ScoreRecord) bool { return r.CourseID == courseID }), nil
}

func (s *Store) ListScoresByStudent(_ context.Context, studentID string) ([]quiz.ScoreRecord, error) {
	return s.filterScores(func(r quiz.ScoreRecord) bool { return r.UserID == studentID }), nil
}

// ScoreCount is the number of stored score documents.
func (s *Store) ScoreCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scores)
}

func (s *Store) filterScores(keep func(quiz.ScoreRecord) bool) []quiz.ScoreRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]quiz.ScoreRecord, 0)
	for _, record := range s.scores {
		if keep(record) {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return quiz.ScoreKey(out[i].UserID, out[i].CourseID) < quiz.ScoreKey(out[j].UserID, out[j].CourseID)
	})
	return out
}

func (s *Store) PutFeedback(_ context.Context, key string, feedback quiz.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback[key] = feedback
	return nil
}

func (s *Store) ListFeedbackForStudent(_ context.Context, studentID string) ([]quiz.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]quiz.Feedback, 0)
	for _, item := range s.feedback {
		if item.StudentID == studentID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, user auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return auth.ErrEmailTaken
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]auth.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return auth.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func sortCourses(courses []quiz.Course) {
	sort.Slice(courses, func(i, j int) bool { return courses[i].CourseID < courses[j].CourseID })
}
