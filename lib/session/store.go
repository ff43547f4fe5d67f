package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found or expired")

// Data is what a live session keeps in redis
type Data struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Save(ctx context.Context, data Data, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*Data, error)
	Delete(ctx context.Context, sessionID string) error
	// DeleteUser drops every session of the user, returns how many were removed
	DeleteUser(ctx context.Context, userID string) (int, error)
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{
		client:     client,
		prefix:     "session:",
		userPrefix: "session-user:",
	}
}

type redisStore struct {
	client     *redis.Client
	prefix     string
	userPrefix string
}

func (s *redisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *redisStore) userKey(userID string) string {
	return s.userPrefix + userID
}

func (s *redisStore) Save(ctx context.Context, data Data, ttl time.Duration) error {
	body, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "marshal session")
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(data.ID), body, ttl)
		pipe.SAdd(ctx, s.userKey(data.User.ID), data.ID)
		pipe.Expire(ctx, s.userKey(data.User.ID), ttl)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "save session")
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, sessionID string) (*Data, error) {
	body, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "lookup session")
	}
	data := Data{}
	if err = json.Unmarshal([]byte(body), &data); err != nil {
		return nil, errors.Wrap(err, "unmarshal session")
	}
	return &data, nil
}

func (s *redisStore) Delete(ctx context.Context, sessionID string) error {
	data, err := s.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(sessionID))
		pipe.SRem(ctx, s.userKey(data.User.ID), sessionID)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}

func (s *redisStore) DeleteUser(ctx context.Context, userID string) (int, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "list user sessions")
	}
	keys := []string{s.userKey(userID)}
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}
	if err = s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, errors.Wrap(err, "delete user sessions")
	}
	return len(ids), nil
}
