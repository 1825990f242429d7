// Package redisstore keeps the quizScores collection in Redis, one JSON
// document per "{studentId}_{courseId}" key.
package redisstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"learnquiz/internal/quiz"
)

const (
	keyPrefix = "quizScores:"
	scanCount = 200
)

type ScoreStore struct {
	rdb *redis.Client
}

func NewScoreStore(rdb *redis.Client) *ScoreStore {
	return &ScoreStore{rdb: rdb}
}

// Connect builds a client for addr and checks it answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "ping redis %s", addr)
	}
	return rdb, nil
}

func redisKey(key string) string {
	return keyPrefix + key
}

func (s *ScoreStore) GetScore(ctx context.Context, key string) (quiz.ScoreRecord, bool, error) {
	data, err := s.rdb.Get(ctx, redisKey(key)).Bytes()
	if err == redis.Nil {
		return quiz.ScoreRecord{}, false, nil
	}
	if err != nil {
		return quiz.ScoreRecord{}, false, errors.Wrapf(err, "get score %s", key)
	}

	record, err := decodeRecord(data)
	if err != nil {
		return quiz.ScoreRecord{}, false, errors.Wrapf(err, "decode score %s", key)
	}
	return record, true, nil
}

// PutScore overwrites the document at key without expiry.
func (s *ScoreStore) PutScore(ctx context.Context, key string, record quiz.ScoreRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return errors.Wrapf(s.rdb.Set(ctx, redisKey(key), data, 0).Err(), "put score %s", key)
}

func (s *ScoreStore) ListScores(ctx context.Context) ([]quiz.ScoreRecord, error) {
	return s.scan(ctx, keyPrefix+"*", nil)
}

// ListScoresByCourse scans every document; course ids are the key suffix but
// may themselves contain underscores, so the record is checked instead.
func (s *ScoreStore) ListScoresByCourse(ctx context.Context, courseID string) ([]quiz.ScoreRecord, error) {
	return s.scan(ctx, keyPrefix+"*", func(r quiz.ScoreRecord) bool { return r.CourseID == courseID })
}

func (s *ScoreStore) ListScoresByStudent(ctx context.Context, studentID string) ([]quiz.ScoreRecord, error) {
	pattern := keyPrefix + escapeGlob(studentID) + "_*"
	return s.scan(ctx, pattern, func(r quiz.ScoreRecord) bool { return r.UserID == studentID })
}

func (s *ScoreStore) scan(ctx context.Context, pattern string, keep func(quiz.ScoreRecord) bool) ([]quiz.ScoreRecord, error) {
	records := make([]quiz.ScoreRecord, 0)

	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return nil, errors.Wrap(err, "scan scores")
		}

		if len(keys) > 0 {
			values, err := s.rdb.MGet(ctx, keys...).Result()
			if err != nil {
				return nil, errors.Wrap(err, "load scores")
			}
			for idx, value := range values {
				raw, ok := value.(string)
				if !ok {
					// Deleted between SCAN and MGET.
					continue
				}
				record, err := decodeRecord([]byte(raw))
				if err != nil {
					return nil, errors.Wrapf(err, "decode score %s", keys[idx])
				}
				if keep == nil || keep(record) {
					records = append(records, record)
				}
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return quiz.ScoreKey(records[i].UserID, records[i].CourseID) < quiz.ScoreKey(records[j].UserID, records[j].CourseID)
	})
	return records, nil
}

func decodeRecord(data []byte) (quiz.ScoreRecord, error) {
	var record quiz.ScoreRecord
	err := json.Unmarshal(data, &record)
	return record, err
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(value string) string {
	return globEscaper.Replace(value)
}
