package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/config"
	"github.com/noah-isme/friendzone-web/internal/models"
)

// Storage keys of the persisted session.
const (
	TokenKey = "friendzone_token"
	UserKey  = "friendzone_user"
)

// ErrInvalidSession is returned for blank session ids.
var ErrInvalidSession = errors.New("session id is required")

// Store persists the bearer token and user record of each browser session.
// Missing values are reported as empty results, never as errors.
type Store interface {
	GetToken(ctx context.Context, sid string) (string, error)
	SetToken(ctx context.Context, sid, token string) error
	GetUser(ctx context.Context, sid string) (*models.User, error)
	SetUser(ctx context.Context, sid string, user models.User) error
	Clear(ctx context.Context, sid string) error
}

// New builds the store named by cfg.SessionBackend.
func New(cfg *config.Config, client *redis.Client, logger zerolog.Logger) (Store, error) {
	switch cfg.SessionBackend {
	case config.SessionRedis:
		if client == nil {
			return nil, fmt.Errorf("redis session backend requires a redis client")
		}
		return NewRedisStore(client, cfg.SessionTTL, logger), nil
	case config.SessionMemory, "":
		return NewMemoryStore(cfg.SessionTTL, time.Now), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

func checkID(sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidSession
	}
	return nil
}
