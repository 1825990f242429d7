package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"learnquiz/internal/auth"
)

func (s *Store) CreateUser(ctx context.Context, user auth.User) error {
	result, err := s.exec(
		ctx,
		`INSERT INTO users (user_id, name, email, role, password_hash, created_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		user.ID,
		user.Name,
		user.Email,
		string(user.Role),
		string(user.PasswordHash),
		user.CreatedAt.UnixNano(),
	)
	if err != nil {
		return errors.Wrap(err, "insert user")
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "insert user")
	}
	if inserted == 0 {
		return auth.ErrEmailTaken
	}
	return nil
}

const selectUsers = `SELECT user_id, name, email, role, password_hash, created_at_unix FROM users`

func (s *Store) GetUser(ctx context.Context, id string) (auth.User, error) {
	return s.getUser(ctx, selectUsers+` WHERE user_id = ?`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (auth.User, error) {
	return s.getUser(ctx, selectUsers+` WHERE email = ?`, email)
}

func (s *Store) getUser(ctx context.Context, query string, arg string) (auth.User, error) {
	user, err := scanUser(s.queryRow(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, errors.Wrap(err, "get user")
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]auth.User, error) {
	rows, err := s.query(ctx, selectUsers+` ORDER BY email`)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer rows.Close()

	users := make([]auth.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result, err := s.exec(ctx, `DELETE FROM users WHERE user_id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "delete user %s", id)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "delete user %s", id)
	}
	if deleted == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (auth.User, error) {
	var (
		user          auth.User
		role          string
		hash          string
		createdAtUnix int64
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &role, &hash, &createdAtUnix); err != nil {
		return auth.User{}, err
	}
	user.Role = auth.Role(role)
	user.PasswordHash = []byte(hash)
	user.CreatedAt = time.Unix(0, createdAtUnix).UTC()
	return user, nil
}
