package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/models"
)

// NATSSubject is the subject of a community.
func NATSSubject(communityID int64) string {
	return fmt.Sprintf("friendzone.chat.%d", communityID)
}

// NATS fans chat messages out over a NATS subject.
type NATS struct {
	conn    *nats.Conn
	subject string
	nodeID  string
	sub     *nats.Subscription
	box     *outbox
	logger  zerolog.Logger
	once    sync.Once
}

// NewNATS subscribes to the community subject.
func NewNATS(conn *nats.Conn, communityID int64, logger zerolog.Logger) (*NATS, error) {
	subject := NATSSubject(communityID)
	log := logger.With().Str("component", "chat_nats").Str("subject", subject).Logger()
	t := &NATS{
		conn:    conn,
		subject: subject,
		nodeID:  uuid.NewString(),
		box:     newOutbox(log),
		logger:  log,
	}

	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		t.handle(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	t.sub = sub
	return t, nil
}

// Send publishes msg; the sender's own copy is not delivered back.
func (t *NATS) Send(_ context.Context, msg models.ChatMessage) error {
	if t.box.isClosed() {
		return ErrClosed
	}
	payload, err := json.Marshal(event{Source: t.nodeID, Message: msg, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := t.conn.Publish(t.subject, payload); err != nil {
		return fmt.Errorf("publish chat message: %w", err)
	}
	return nil
}

// Deliveries streams messages published by other views.
func (t *NATS) Deliveries() <-chan models.ChatMessage {
	return t.box.ch
}

// Close drops the subscription. Callbacks still in flight are discarded.
func (t *NATS) Close() error {
	var err error
	t.once.Do(func() {
		if t.sub != nil {
			err = t.sub.Unsubscribe()
		}
		t.box.close()
	})
	return err
}

func (t *NATS) handle(data []byte) {
	message, ok := decodeEvent(data, t.nodeID, t.logger)
	if !ok {
		return
	}
	t.box.deliver(message)
}
