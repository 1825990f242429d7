// Package sqlstore persists courses, quizzes, scores, feedback and users in
// SQLite or PostgreSQL through database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "github.com/mattn/go-sqlite3"    // driver: sqlite3
	"github.com/pkg/errors"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

type Store struct {
	db     *sql.DB
	driver Driver
}

// Open opens the database and ensures the schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	var drvName string
	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		drvName = "sqlite3"
		if strings.TrimSpace(dsn) == "" {
			dsn = "quiz.db"
		}
	case DriverPostgres:
		drvName = "pgx"
		if strings.TrimSpace(dsn) == "" {
			dsn = "postgres://localhost:5432/learnquiz?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "set busy timeout")
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	store := &Store{db: db, driver: driver}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init schema")
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}
