// Package store selects the persistence backend named in configuration.
package store

import (
	"context"
	"strings"

	"learnquiz/internal/auth"
	"learnquiz/internal/quiz"
	"learnquiz/internal/store/memstore"
	"learnquiz/internal/store/sqlstore"
)

const DriverMemory = "memory"

// Backend holds every collection the service reads and writes.
type Backend interface {
	quiz.CourseRepository
	quiz.QuizRepository
	quiz.ScoreRepository
	quiz.FeedbackRepository
	auth.UserRepository
	Close() error
}

// Open returns an in-memory backend for "memory" and a SQL backend for
// "sqlite" or "postgres".
func Open(ctx context.Context, driver, dsn string) (Backend, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == DriverMemory {
		return memstore.New(), nil
	}
	db, err := sqlstore.Open(ctx, sqlstore.Driver(driver), dsn)
	if err != nil {
		return nil, err
	}
	return db, nil
}
