package sqlstore

import (
	"context"
)

func (s *Store) initSchema(ctx context.Context) error {
	// Column types are chosen so the same statements run on SQLite and
	// PostgreSQL. Timestamps are unix nanoseconds.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			course_id TEXT PRIMARY KEY,
			course_name TEXT NOT NULL,
			lecturer_id TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS quizzes (
			course_id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			course_name TEXT NOT NULL,
			questions_json TEXT NOT NULL,
			created_at_unix BIGINT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS quiz_scores (
			score_key TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			score_percentage DOUBLE PRECISION NOT NULL,
			updated_at_unix BIGINT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS feedbacks (
			feedback_key TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			lecturer_id TEXT NOT NULL,
			message TEXT NOT NULL,
			updated_at_unix BIGINT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			role TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at_unix BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_courses_lecturer ON courses(lecturer_id);`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_scores_course ON quiz_scores(course_id);`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_scores_user ON quiz_scores(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_feedbacks_student ON feedbacks(student_id);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
