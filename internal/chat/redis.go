package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/models"
)

// RedisChannel is the pub/sub channel of a community.
func RedisChannel(communityID int64) string {
	return fmt.Sprintf("friendzone:chat:%d", communityID)
}

// Redis fans chat messages out to every view of the same community over redis pub/sub.
type Redis struct {
	client  *redis.Client
	channel string
	nodeID  string
	pubsub  *redis.PubSub
	cancel  context.CancelFunc
	box     *outbox
	logger  zerolog.Logger
	wg      sync.WaitGroup
	once    sync.Once
}

// NewRedis subscribes to the community channel before returning.
func NewRedis(ctx context.Context, client *redis.Client, communityID int64, logger zerolog.Logger) (*Redis, error) {
	channel := RedisChannel(communityID)
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	consumeCtx, cancel := context.WithCancel(context.Background())
	log := logger.With().Str("component", "chat_redis").Str("channel", channel).Logger()
	t := &Redis{
		client:  client,
		channel: channel,
		nodeID:  uuid.NewString(),
		pubsub:  pubsub,
		cancel:  cancel,
		box:     newOutbox(log),
		logger:  log,
	}

	t.wg.Add(1)
	go t.consume(consumeCtx)
	return t, nil
}

// Send publishes msg; the sender's own copy is not delivered back.
func (t *Redis) Send(ctx context.Context, msg models.ChatMessage) error {
	if t.box.isClosed() {
		return ErrClosed
	}
	payload, err := json.Marshal(event{Source: t.nodeID, Message: msg, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := t.client.Publish(ctx, t.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish chat message: %w", err)
	}
	return nil
}

// Deliveries streams messages published by other views.
func (t *Redis) Deliveries() <-chan models.ChatMessage {
	return t.box.ch
}

// Close unsubscribes and stops the consumer.
func (t *Redis) Close() error {
	var err error
	t.once.Do(func() {
		t.cancel()
		err = t.pubsub.Close()
		t.wg.Wait()
		t.box.close()
	})
	return err
}

func (t *Redis) consume(ctx context.Context) {
	defer t.wg.Done()

	for {
		msg, err := t.pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) || ctx.Err() != nil {
				return
			}
			t.logger.Error().Err(err).Msg("chat redis subscription closed")
			return
		}
		t.handle([]byte(msg.Payload))
	}
}

func (t *Redis) handle(data []byte) {
	message, ok := decodeEvent(data, t.nodeID, t.logger)
	if !ok {
		return
	}
	t.box.deliver(message)
}

func decodeEvent(data []byte, nodeID string, logger zerolog.Logger) (models.ChatMessage, bool) {
	var evt event
	if err := json.Unmarshal(data, &evt); err != nil {
		logger.Warn().Err(err).Msg("invalid chat event")
		return models.ChatMessage{}, false
	}
	if evt.Source == nodeID {
		return models.ChatMessage{}, false
	}
	if evt.Message.Type == "" {
		evt.Message.Type = models.ChatKindMessage
	}
	return evt.Message, true
}
