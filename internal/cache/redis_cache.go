package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SAP-F-2025/quiz-service/internal/scoring"
)

// ErrCacheMiss is returned by Get when the key does not exist
var ErrCacheMiss = errors.New("cache miss")

type CacheService interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// DraftStore keeps in-progress answers outside the process so an attempt
// survives a restart.
type DraftStore interface {
	SaveDraftAnswer(ctx context.Context, attemptID, questionID uint, answer scoring.Answer, ttl time.Duration) error
	LoadDraft(ctx context.Context, attemptID uint) (map[uint]scoring.Answer, error)
	ClearDraft(ctx context.Context, attemptID uint) error
}

func QuizKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d", quizID)
}

func QuizResultsPattern(quizID uint) string {
	return fmt.Sprintf("quiz:%d:*", quizID)
}

func DraftKey(attemptID uint) string {
	return fmt.Sprintf("attempt:%d:answers", attemptID)
}

type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger,
	}
}

func (r *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		r.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string, dest any) error {
	payload, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		r.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		r.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = r.client.Del(ctx, key).Err()
		return ErrCacheMiss
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// DeletePattern walks the keyspace with SCAN so large keyspaces do not block redis
func (r *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	deleted := 0
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			deleted += len(batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return err
		}
		deleted += len(batch)
	}
	r.logger.Debug("cache pattern deleted", zap.String("pattern", pattern), zap.Int("keys", deleted))
	return nil
}

// SaveDraftAnswer stores one answer as a hash field so concurrent saves for
// different questions never overwrite each other.
func (r *RedisCache) SaveDraftAnswer(ctx context.Context, attemptID, questionID uint, answer scoring.Answer, ttl time.Duration) error {
	payload, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	key := DraftKey(attemptID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, strconv.FormatUint(uint64(questionID), 10), payload)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("draft save failed", zap.Uint("attempt_id", attemptID), zap.Uint("question_id", questionID), zap.Error(err))
		return err
	}
	return nil
}

func (r *RedisCache) LoadDraft(ctx context.Context, attemptID uint) (map[uint]scoring.Answer, error) {
	fields, err := r.client.HGetAll(ctx, DraftKey(attemptID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[uint]scoring.Answer, len(fields))
	for field, raw := range fields {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		var ans scoring.Answer
		if err := json.Unmarshal([]byte(raw), &ans); err != nil {
			r.logger.Warn("skipping undecodable draft answer", zap.Uint("attempt_id", attemptID), zap.String("field", field))
			continue
		}
		out[uint(id)] = ans
	}
	return out, nil
}

func (r *RedisCache) ClearDraft(ctx context.Context, attemptID uint) error {
	return r.client.Del(ctx, DraftKey(attemptID)).Err()
}
