package gate

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (s *redisSessionStore) key(userID int64) string {
	return s.prefix + ":" + strconv.FormatInt(userID, 10)
}

func (s *redisSessionStore) Get(ctx context.Context, userID int64) (*Session, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *redisSessionStore) Set(ctx context.Context, userID int64, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(userID), raw, s.ttl).Err()
}

func (s *redisSessionStore) Update(ctx context.Context, userID int64, patch func(*Session)) error {
	session, err := s.Get(ctx, userID)
	if err != nil || session == nil {
		return err
	}
	patch(session)
	return s.Set(ctx, userID, *session)
}

func (s *redisSessionStore) Delete(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

// NewSessionStore builds a Redis-backed store and falls back to the
// in-memory one when Redis is unconfigured or unreachable. The returned
// error reports the fallback reason; the store is usable either way.
func NewSessionStore(addr, pass string, db int, ttl time.Duration) (SessionStore, error) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if addr == "" {
		return NewMemorySessionStore(ttl, nil), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return NewMemorySessionStore(ttl, nil), err
	}

	return &redisSessionStore{
		client: client,
		prefix: "gate:session",
		ttl:    ttl,
	}, nil
}
