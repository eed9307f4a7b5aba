package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the token and user under two keys that are always
// written and deleted in the same transaction.
type RedisStore struct {
	client   *redis.Client
	tokenKey string
	userKey  string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "carely"
	}
	return &RedisStore{
		client:   client,
		tokenKey: prefix + ":accessToken",
		userKey:  prefix + ":user",
	}
}

func (r *RedisStore) Load(ctx context.Context) (Session, error) {
	vals, err := r.client.MGet(ctx, r.tokenKey, r.userKey).Result()
	if err != nil {
		return Session{}, fmt.Errorf("session: redis mget: %w", err)
	}
	token, _ := vals[0].(string)
	rawUser, _ := vals[1].(string)
	if token == "" || rawUser == "" {
		return Session{}, ErrNoSession
	}
	var user User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return Session{}, fmt.Errorf("session: decode user: %w", err)
	}
	return Session{Token: token, User: user}, nil
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	rawUser, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.tokenKey, s.Token, 0)
		pipe.Set(ctx, r.userKey, rawUser, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: redis save: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.tokenKey, r.userKey).Err(); err != nil {
		return fmt.Errorf("session: redis clear: %w", err)
	}
	return nil
}
