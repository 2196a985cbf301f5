package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tattty:session:"

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, opts Options) *RedisStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, ttl: ttl, now: now}
}

func (s *RedisStore) Get(ctx context.Context, chatID, userID int64) (Session, error) {
	raw, err := s.client.Get(ctx, redisKey(chatID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("redis get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// Save writes the session and refreshes its expiry.
func (s *RedisStore) Save(ctx context.Context, sess Session) error {
	sess.UpdatedAt = s.now()
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(sess.ChatID, sess.UserID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, chatID, userID int64) error {
	if err := s.client.Del(ctx, redisKey(chatID, userID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func redisKey(chatID, userID int64) string {
	return fmt.Sprintf("%s%d:%d", keyPrefix, chatID, userID)
}
