package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnquiz/internal/quiz"
)

var ErrSaveScore = errors.New("failed to save score")

// ScoreStore is the narrow view of the score collection a session needs.
type ScoreStore interface {
	GetScore(ctx context.Context, key string) (quiz.ScoreRecord, bool, error)
	PutScore(ctx context.Context, key string, record quiz.ScoreRecord) error
}

// RegisterScore performs the single read-then-write that stores a finished
// attempt. It reports whether an earlier record was overwritten.
// Concurrent registrations for the same key are last-write-wins.
func RegisterScore(ctx context.Context, store ScoreStore, studentID, courseID string, percentage float64, now time.Time) (bool, error) {
	key := quiz.ScoreKey(studentID, courseID)

	_, exists, err := store.GetScore(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", ErrSaveScore, key, err)
	}

	record := quiz.ScoreRecord{
		UserID:          studentID,
		CourseID:        courseID,
		ScorePercentage: percentage,
		UpdatedAt:       now.UTC(),
	}
	if err := store.PutScore(ctx, key, record); err != nil {
		return false, fmt.Errorf("%w: write %s: %v", ErrSaveScore, key, err)
	}
	return exists, nil
}
