package service

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/observability"
)

const (
	notificationBufferSize = 16
	maxPendingNotices      = 20
)

// Notifier surfaces user-visible notices for one session.
type Notifier interface {
	Notify(message string, kind models.NotificationKind)
}

// NotificationService routes notices to live SSE subscribers. Notices raised while a
// session has no subscriber are kept as pending alerts for the next page render.
type NotificationService interface {
	Notify(sessionID, message string, kind models.NotificationKind) models.Notice
	For(sessionID string) Notifier
	Subscribe(sessionID string) (<-chan models.Notice, func())
	Pending(sessionID string) []models.Notice
	Start(ctx context.Context)
}

type notificationService struct {
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	sanitizer   *bluemonday.Policy
	broker      *notificationBroker
	nodeID      string
	now         func() time.Time
}

type notificationEvent struct {
	Source    string        `json:"source"`
	SessionID string        `json:"session_id"`
	Notice    models.Notice `json:"notice"`
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan models.Notice]struct{}
	pending     map[string][]models.Notice
}

// NewNotificationService constructs a notification service. Redis and NATS are optional
// and fan notices out to streams held by other nodes.
func NewNotificationService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) NotificationService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "notification_service").Logger(),
		sanitizer:   bluemonday.StrictPolicy(),
		broker: &notificationBroker{
			subscribers: make(map[string]map[chan models.Notice]struct{}),
			pending:     make(map[string][]models.Notice),
		},
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *notificationService) Notify(sessionID, message string, kind models.NotificationKind) models.Notice {
	clean := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(message)))
	if kind == "" {
		kind = models.NotifyInfo
	}
	notice := models.Notice{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   clean,
		CreatedAt: s.now().UTC(),
	}
	if clean == "" || strings.TrimSpace(sessionID) == "" {
		return notice
	}

	delivery := "stream"
	if !s.broker.broadcast(sessionID, notice) {
		s.broker.queue(sessionID, notice)
		delivery = "pending"
	}
	if err := s.publish(context.Background(), sessionID, notice); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish notice to broker")
	}

	observability.NotificationsPublishedTotal().WithLabelValues(string(kind), delivery).Inc()
	return notice
}

func (s *notificationService) For(sessionID string) Notifier {
	return sessionNotifier{service: s, sessionID: sessionID}
}

func (s *notificationService) Subscribe(sessionID string) (<-chan models.Notice, func()) {
	channel := make(chan models.Notice, notificationBufferSize)

	s.broker.subscribe(sessionID, channel)
	observability.SSEClientsActive().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(sessionID, channel)
			observability.SSEClientsActive().Dec()
		})
	}

	return channel, cleanup
}

func (s *notificationService) Pending(sessionID string) []models.Notice {
	return s.broker.drain(sessionID)
}

func (s *notificationService) publish(ctx context.Context, sessionID string, notice models.Notice) error {
	if (s.redis == nil || s.redisStream == "") && (s.nats == nil || s.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(notificationEvent{Source: s.nodeID, SessionID: sessionID, Notice: notice})
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

// handleEvent delivers notices raised on other nodes to local streams only.
func (s *notificationService) handleEvent(payload []byte) {
	var event notificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification event payload")
		return
	}

	if event.Source == s.nodeID || event.SessionID == "" {
		return
	}

	if s.broker.broadcast(event.SessionID, event.Notice) {
		observability.NotificationsPublishedTotal().WithLabelValues(string(event.Notice.Kind), "remote").Inc()
	}
}

type sessionNotifier struct {
	service   NotificationService
	sessionID string
}

func (n sessionNotifier) Notify(message string, kind models.NotificationKind) {
	n.service.Notify(n.sessionID, message, kind)
}

func (b *notificationBroker) subscribe(sessionID string, ch chan models.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[sessionID]; !exists {
		b.subscribers[sessionID] = make(map[chan models.Notice]struct{})
	}
	b.subscribers[sessionID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(sessionID string, ch chan models.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[sessionID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, sessionID)
		}
	}
}

// broadcast reports whether at least one subscriber accepted the notice.
func (b *notificationBroker) broadcast(sessionID string, notice models.Notice) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := false
	for ch := range b.subscribers[sessionID] {
		select {
		case ch <- notice:
			delivered = true
		default:
		}
	}
	return delivered
}

func (b *notificationBroker) queue(sessionID string, notice models.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pending := append(b.pending[sessionID], notice)
	if len(pending) > maxPendingNotices {
		pending = pending[len(pending)-maxPendingNotices:]
	}
	b.pending[sessionID] = pending
}

func (b *notificationBroker) drain(sessionID string) []models.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	pending := b.pending[sessionID]
	delete(b.pending, sessionID)
	if pending == nil {
		return []models.Notice{}
	}
	return pending
}
