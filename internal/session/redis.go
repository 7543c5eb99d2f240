package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/models"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisStore returns a store keyed friendzone:session:{sid}:{key}.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) Store {
	return &redisStore{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "session_store").Logger(),
	}
}

func redisKey(sid, key string) string {
	return fmt.Sprintf("friendzone:session:%s:%s", sid, key)
}

func (s *redisStore) get(ctx context.Context, sid, key string) (string, error) {
	value, err := s.client.Get(ctx, redisKey(sid, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session %s: %w", key, err)
	}
	return value, nil
}

// set writes the value and slides the expiry of both keys.
func (s *redisStore) set(ctx context.Context, sid, key, value string) error {
	other := TokenKey
	if key == TokenKey {
		other = UserKey
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKey(sid, key), value, s.ttl)
		if s.ttl > 0 {
			pipe.Expire(ctx, redisKey(sid, other), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write session %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) GetToken(ctx context.Context, sid string) (string, error) {
	if err := checkID(sid); err != nil {
		return "", err
	}
	return s.get(ctx, sid, TokenKey)
}

func (s *redisStore) SetToken(ctx context.Context, sid, token string) error {
	if err := checkID(sid); err != nil {
		return err
	}
	return s.set(ctx, sid, TokenKey, token)
}

func (s *redisStore) GetUser(ctx context.Context, sid string) (*models.User, error) {
	if err := checkID(sid); err != nil {
		return nil, err
	}
	raw, err := s.get(ctx, sid, UserKey)
	if err != nil || raw == "" {
		return nil, err
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		// A corrupt record behaves like a logged-out session.
		s.logger.Warn().Err(err).Str("session_id", sid).Msg("discarding unreadable session user")
		return nil, nil
	}
	return &user, nil
}

func (s *redisStore) SetUser(ctx context.Context, sid string, user models.User) error {
	if err := checkID(sid); err != nil {
		return err
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.set(ctx, sid, UserKey, string(payload))
}

func (s *redisStore) Clear(ctx context.Context, sid string) error {
	if err := checkID(sid); err != nil {
		return err
	}
	if err := s.client.Del(ctx, redisKey(sid, TokenKey), redisKey(sid, UserKey)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
