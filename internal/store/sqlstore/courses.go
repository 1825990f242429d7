package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"learnquiz/internal/quiz"
)

func (s *Store) CreateCourse(ctx context.Context, course quiz.Course) error {
	result, err := s.exec(
		ctx,
		`INSERT INTO courses (course_id, course_name, lecturer_id) VALUES (?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		course.CourseID,
		course.CourseName,
		course.LecturerID,
	)
	if err != nil {
		return errors.Wrap(err, "insert course")
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "insert course")
	}
	if inserted == 0 {
		return quiz.ErrCourseExists
	}
	return nil
}

func (s *Store) GetCourse(ctx context.Context, courseID string) (quiz.Course, error) {
	var course quiz.Course
	err := s.queryRow(
		ctx,
		`SELECT course_id, course_name, lecturer_id FROM courses WHERE course_id = ?`,
		courseID,
	).Scan(&course.CourseID, &course.CourseName, &course.LecturerID)
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.Course{}, quiz.ErrCourseNotFound
	}
	if err != nil {
		return quiz.Course{}, errors.Wrapf(err, "get course %s", courseID)
	}
	return course, nil
}

func (s *Store) ListCourses(ctx context.Context) ([]quiz.Course, error) {
	return s.listCourses(ctx, `SELECT course_id, course_name, lecturer_id FROM courses ORDER BY course_id`)
}

func (s *Store) ListCoursesByLecturer(ctx context.Context, lecturerID string) ([]quiz.Course, error) {
	return s.listCourses(
		ctx,
		`SELECT course_id, course_name, lecturer_id FROM courses WHERE lecturer_id = ? ORDER BY course_id`,
		lecturerID,
	)
}

func (s *Store) listCourses(ctx context.Context, query string, args ...any) ([]quiz.Course, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	defer rows.Close()

	courses := make([]quiz.Course, 0)
	for rows.Next() {
		var course quiz.Course
		if err := rows.Scan(&course.CourseID, &course.CourseName, &course.LecturerID); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

// SaveQuiz replaces the quiz of the course. Questions are stored as one JSON
// document, matching how they are authored and served.
func (s *Store) SaveQuiz(ctx context.Context, q quiz.Quiz) error {
	if q.CourseID == "" {
		return errors.New("course id is required")
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	questionsJSON, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}

	_, err = s.exec(
		ctx,
		`INSERT INTO quizzes (course_id, quiz_id, course_name, questions_json, created_at_unix)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(course_id) DO UPDATE SET
			quiz_id = excluded.quiz_id,
			course_name = excluded.course_name,
			questions_json = excluded.questions_json,
			created_at_unix = excluded.created_at_unix`,
		q.CourseID,
		q.QuizID,
		q.CourseName,
		string(questionsJSON),
		q.CreatedAt.UnixNano(),
	)
	return errors.Wrapf(err, "save quiz for %s", q.CourseID)
}

func (s *Store) FetchQuiz(ctx context.Context, courseID string) (quiz.Quiz, error) {
	var (
		q             quiz.Quiz
		questionsJSON string
		createdAtUnix int64
	)
	err := s.queryRow(
		ctx,
		`SELECT course_id, quiz_id, course_name, questions_json, created_at_unix
		 FROM quizzes WHERE course_id = ?`,
		courseID,
	).Scan(&q.CourseID, &q.QuizID, &q.CourseName, &questionsJSON, &createdAtUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.Quiz{}, quiz.ErrQuizNotFound
	}
	if err != nil {
		return quiz.Quiz{}, errors.Wrapf(err, "fetch quiz for %s", courseID)
	}

	if err := json.Unmarshal([]byte(questionsJSON), &q.Questions); err != nil {
		return quiz.Quiz{}, errors.Wrapf(err, "decode quiz for %s", courseID)
	}
	q.CreatedAt = time.Unix(0, createdAtUnix).UTC()
	return q, nil
}
