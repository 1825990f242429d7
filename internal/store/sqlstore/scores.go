package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"learnquiz/internal/quiz"
)

func (s *Store) GetScore(ctx context.Context, key string) (quiz.ScoreRecord, bool, error) {
	var (
		record        quiz.ScoreRecord
		updatedAtUnix int64
	)
	err := s.queryRow(
		ctx,
		`SELECT user_id, course_id, score_percentage, updated_at_unix
		 FROM quiz_scores WHERE score_key = ?`,
		key,
	).Scan(&record.UserID, &record.CourseID, &record.ScorePercentage, &updatedAtUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.ScoreRecord{}, false, nil
	}
	if err != nil {
		return quiz.ScoreRecord{}, false, errors.Wrapf(err, "get score %s", key)
	}
	record.UpdatedAt = time.Unix(0, updatedAtUnix).UTC()
	return record, true, nil
}

// PutScore overwrites the document at key; the last write wins.
func (s *Store) PutScore(ctx context.Context, key string, record quiz.ScoreRecord) error {
	_, err := s.exec(
		ctx,
		`INSERT INTO quiz_scores (score_key, user_id, course_id, score_percentage, updated_at_unix)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(score_key) DO UPDATE SET
			user_id = excluded.user_id,
			course_id = excluded.course_id,
			score_percentage = excluded.score_percentage,
			updated_at_unix = excluded.updated_at_unix`,
		key,
		record.UserID,
		record.CourseID,
		record.ScorePercentage,
		record.UpdatedAt.UnixNano(),
	)
	return errors.Wrapf(err, "put score %s", key)
}

const selectScores = `SELECT user_id, course_id, score_percentage, updated_at_unix FROM quiz_scores`

func (s *Store) ListScores(ctx context.Context) ([]quiz.ScoreRecord, error) {
	return s.listScores(ctx, selectScores+` ORDER BY score_key`)
}

func (s *Store) ListScoresByCourse(ctx context.Context, courseID string) ([]quiz.ScoreRecord, error) {
	return s.listScores(ctx, selectScores+` WHERE course_id = ? ORDER BY score_key`, courseID)
}

func (s *Store) ListScoresByStudent(ctx context.Context, studentID string) ([]quiz.ScoreRecord, error) {
	return s.listScores(ctx, selectScores+` WHERE user_id = ? ORDER BY score_key`, studentID)
}

func (s *Store) listScores(ctx context.Context, query string, args ...any) ([]quiz.ScoreRecord, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list scores")
	}
	defer rows.Close()

	records := make([]quiz.ScoreRecord, 0)
	for rows.Next() {
		var (
			record        quiz.ScoreRecord
			updatedAtUnix int64
		)
		if err := rows.Scan(&record.UserID, &record.CourseID, &record.ScorePercentage, &updatedAtUnix); err != nil {
			return nil, err
		}
		record.UpdatedAt = time.Unix(0, updatedAtUnix).UTC()
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) PutFeedback(ctx context.Context, key string, feedback quiz.Feedback) error {
	_, err := s.exec(
		ctx,
		`INSERT INTO feedbacks (feedback_key, student_id, course_id, lecturer_id, message, updated_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(feedback_key) DO UPDATE SET
			lecturer_id = excluded.lecturer_id,
			message = excluded.message,
			updated_at_unix = excluded.updated_at_unix`,
		key,
		feedback.StudentID,
		feedback.CourseID,
		feedback.LecturerID,
		feedback.Message,
		feedback.UpdatedAt.UnixNano(),
	)
	return errors.Wrapf(err, "put feedback %s", key)
}

func (s *Store) ListFeedbackForStudent(ctx context.Context, studentID string) ([]quiz.Feedback, error) {
	rows, err := s.query(
		ctx,
		`SELECT student_id, course_id, lecturer_id, message, updated_at_unix
		 FROM feedbacks WHERE student_id = ? ORDER BY course_id`,
		studentID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list feedback")
	}
	defer rows.Close()

	items := make([]quiz.Feedback, 0)
	for rows.Next() {
		var (
			item          quiz.Feedback
			updatedAtUnix int64
		)
		if err := rows.Scan(&item.StudentID, &item.CourseID, &item.LecturerID, &item.Message, &updatedAtUnix); err != nil {
			return nil, err
		}
		item.UpdatedAt = time.Unix(0, updatedAtUnix).UTC()
		items = append(items, item)
	}
	return items, rows.Err()
}
