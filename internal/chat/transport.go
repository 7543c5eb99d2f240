package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/config"
	"github.com/noah-isme/friendzone-web/internal/models"
)

const deliveryBufferSize = 32

// ErrClosed is returned when sending on a closed transport.
var ErrClosed = errors.New("chat transport closed")

// Transport carries chat messages for one community view.
// Deliveries is closed once Close returns.
type Transport interface {
	Send(ctx context.Context, msg models.ChatMessage) error
	Deliveries() <-chan models.ChatMessage
	Close() error
}

// Factory opens a transport for a loaded community and its roster.
type Factory func(ctx context.Context, community models.Community, roster []models.CommunityMember) (Transport, error)

// NewFactory returns the factory named by cfg.ChatTransport.
func NewFactory(cfg *config.Config, redisClient *redis.Client, natsConn *nats.Conn, logger zerolog.Logger) (Factory, error) {
	switch cfg.ChatTransport {
	case config.ChatSimulated, "":
		min, max := cfg.ChatReplyMinDelay, cfg.ChatReplyMaxDelay
		return func(_ context.Context, community models.Community, roster []models.CommunityMember) (Transport, error) {
			return NewSimulated(community.ID, roster, logger, WithDelayWindow(min, max)), nil
		}, nil
	case config.ChatRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis chat transport requires a redis client")
		}
		return func(ctx context.Context, community models.Community, _ []models.CommunityMember) (Transport, error) {
			return NewRedis(ctx, redisClient, community.ID, logger)
		}, nil
	case config.ChatNATS:
		if natsConn == nil {
			return nil, fmt.Errorf("nats chat transport requires a nats connection")
		}
		return func(_ context.Context, community models.Community, _ []models.CommunityMember) (Transport, error) {
			return NewNATS(natsConn, community.ID, logger)
		}, nil
	default:
		return nil, fmt.Errorf("unknown chat transport %q", cfg.ChatTransport)
	}
}

// event is the wire form shared by the redis and nats transports.
type event struct {
	Source  string             `json:"source"`
	Message models.ChatMessage `json:"message"`
	SentAt  time.Time          `json:"sent_at"`
}

// outbox is a delivery channel that tolerates sends racing with close.
type outbox struct {
	mu     sync.RWMutex
	closed bool
	ch     chan models.ChatMessage
	logger zerolog.Logger
}

func newOutbox(logger zerolog.Logger) *outbox {
	return &outbox{ch: make(chan models.ChatMessage, deliveryBufferSize), logger: logger}
}

func (o *outbox) deliver(msg models.ChatMessage) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return false
	}
	select {
	case o.ch <- msg:
		return true
	default:
		o.logger.Warn().Int64("community_id", msg.CommunityID).Msg("dropping chat delivery for slow consumer")
		return false
	}
}

func (o *outbox) isClosed() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.closed
}

func (o *outbox) close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.ch)
	}
}
