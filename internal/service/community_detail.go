package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/friendzone-web/internal/chat"
	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/friendzone"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/observability"
	"github.com/noah-isme/friendzone-web/internal/provider"
)

const (
	msgLeaveSuccess       = "Topluluktan ayrıldınız"
	msgLeaveFailed        = "Topluluktan ayrılırken bir hata oluştu: "
	msgChatCleared        = "Sohbet geçmişi temizlendi"
	msgAssistantNotReady  = "AI asistanı henüz hazır değil"
	msgCommunityMissing   = "Topluluk bilgisi bulunamadı"
	communitiesPath       = "/communities"
	defaultLeaveDelay     = 1500 * time.Millisecond
	responseTimeHours     = 2.5
	chatSubscriberBuffer  = 16
	activityWindow        = 7 * 24 * time.Hour
	defaultComposerAuthor = "Sen"
)

var suggestionPrompts = map[models.SuggestionType]string{
	models.SuggestionTopic:      "Bu topluluk için 3 ilgi çekici sohbet konusu öner",
	models.SuggestionIcebreaker: "Bu topluluk için 5 eğlenceli buz kırıcı soru üret",
	models.SuggestionActivity:   "Bu topluluk için 3 uygulanabilir etkinlik öner",
}

// ChatEventKind tags transcript changes pushed to subscribers.
type ChatEventKind string

const (
	ChatAppended ChatEventKind = "appended"
	ChatCleared  ChatEventKind = "cleared"
)

// ChatEvent is one transcript change.
type ChatEvent struct {
	Kind    ChatEventKind       `json:"kind"`
	Message *models.ChatMessage `json:"message,omitempty"`
}

// DetailConfig wires a CommunityDetailController.
type DetailConfig struct {
	Provider   provider.Provider
	Auth       provider.Auth
	Transports chat.Factory
	Assistant  AssistantService
	Notifier   Notifier
	LeaveDelay time.Duration
	Now        func() time.Time
	Logger     zerolog.Logger
}

// CommunityDetailController owns one community page of a session: the record, its
// roster, the chat transcript and the activity feed.
type CommunityDetailController struct {
	provider   provider.Provider
	auth       provider.Auth
	transports chat.Factory
	assistant  AssistantService
	notifier   Notifier
	leaveDelay time.Duration
	now        func() time.Time
	logger     zerolog.Logger
	nextID     atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.RWMutex
	closed      bool
	requestedID int64
	community   *models.Community
	degraded    bool
	members     []models.CommunityMember
	transcript  []models.ChatMessage
	activities  []models.Activity
	transport   chat.Transport
	pumpDone    chan struct{}
	subscribers map[chan ChatEvent]struct{}
}

// NewCommunityDetailController constructs an empty detail view.
func NewCommunityDetailController(cfg DetailConfig) *CommunityDetailController {
	ctx, cancel := context.WithCancel(context.Background())
	if cfg.LeaveDelay <= 0 {
		cfg.LeaveDelay = defaultLeaveDelay
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &CommunityDetailController{
		provider:    cfg.Provider,
		auth:        cfg.Auth,
		transports:  cfg.Transports,
		assistant:   cfg.Assistant,
		notifier:    cfg.Notifier,
		leaveDelay:  cfg.LeaveDelay,
		now:         cfg.Now,
		logger:      cfg.Logger.With().Str("component", "community_detail").Logger(),
		ctx:         ctx,
		cancel:      cancel,
		subscribers: make(map[chan ChatEvent]struct{}),
	}
	c.nextID.Store(cfg.Now().UnixMilli())
	return c
}

// RequestedID is the community id the view was opened for.
func (c *CommunityDetailController) RequestedID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.requestedID
}

// Load fetches the community, then its members, chat and activities, and opens the chat transport.
func (c *CommunityDetailController) Load(ctx context.Context, id int64) error {
	if err := c.LoadCommunity(ctx, id); err != nil {
		return err
	}

	var group errgroup.Group
	group.Go(func() error { _ = c.LoadMembers(ctx); return nil })
	group.Go(func() error { _ = c.LoadChat(ctx); return nil })
	group.Go(func() error { _ = c.LoadActivities(ctx); return nil })
	_ = group.Wait()

	return c.openTransport()
}

// LoadCommunity fetches the record. A failed fetch substitutes the fallback community
// and marks the view degraded rather than failing the page.
func (c *CommunityDetailController) LoadCommunity(ctx context.Context, id int64) error {
	c.mu.Lock()
	c.requestedID = id
	c.mu.Unlock()

	bound, done := c.bind(ctx)
	community, err := c.provider.FetchCommunity(bound, c.auth, id)
	done()

	degraded := false
	if err != nil || community == nil {
		if err == nil {
			err = provider.ErrNotFound
		}
		c.logger.Warn().Err(err).Int64("community_id", id).Msg("community load failed, showing fallback")
		fallback := provider.FallbackCommunity()
		community = &fallback
		degraded = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrViewClosed
	}
	c.community = community
	c.degraded = degraded
	return nil
}

func (c *CommunityDetailController) LoadMembers(ctx context.Context) error {
	community, ok := c.current()
	if !ok {
		return nil
	}
	bound, done := c.bind(ctx)
	members, err := c.provider.FetchMembers(bound, c.auth, community)
	done()
	return c.store(err, "members", func() { c.members = members })
}

func (c *CommunityDetailController) LoadChat(ctx context.Context) error {
	community, ok := c.current()
	if !ok {
		return nil
	}
	bound, done := c.bind(ctx)
	messages, err := c.provider.FetchChat(bound, c.auth, community)
	done()
	return c.store(err, "chat", func() { c.transcript = messages })
}

func (c *CommunityDetailController) LoadActivities(ctx context.Context) error {
	community, ok := c.current()
	if !ok {
		return nil
	}
	bound, done := c.bind(ctx)
	activities, err := c.provider.FetchActivities(bound, c.auth, community)
	done()
	return c.store(err, "activities", func() { c.activities = activities })
}

func (c *CommunityDetailController) store(err error, what string, apply func()) error {
	if err != nil {
		c.logger.Error().Err(err).Str("collection", what).Msg("failed to load community collection")
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrViewClosed
	}
	apply()
	return nil
}

func (c *CommunityDetailController) current() (models.Community, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.community == nil {
		return models.Community{}, false
	}
	return *c.community, true
}

func (c *CommunityDetailController) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (c *CommunityDetailController) openTransport() error {
	if c.transports == nil {
		return nil
	}

	c.mu.RLock()
	if c.closed || c.community == nil || c.transport != nil {
		c.mu.RUnlock()
		return nil
	}
	community := *c.community
	roster := append([]models.CommunityMember(nil), c.members...)
	c.mu.RUnlock()

	transport, err := c.transports(c.ctx, community, roster)
	if err != nil {
		c.logger.Error().Err(err).Int64("community_id", community.ID).Msg("failed to open chat transport")
		return err
	}

	c.mu.Lock()
	if c.closed || c.transport != nil {
		c.mu.Unlock()
		_ = transport.Close()
		return nil
	}
	c.transport = transport
	c.pumpDone = make(chan struct{})
	done := c.pumpDone
	c.mu.Unlock()

	go c.pump(transport, done)
	return nil
}

func (c *CommunityDetailController) pump(transport chat.Transport, done chan struct{}) {
	defer close(done)
	for msg := range transport.Deliveries() {
		if c.appendMessage(msg) {
			observability.ChatMessages().WithLabelValues("delivered").Inc()
		}
	}
}

func (c *CommunityDetailController) appendMessage(msg models.ChatMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.transcript = append(c.transcript, msg)
	c.broadcastLocked(ChatEvent{Kind: ChatAppended, Message: &msg})
	return true
}

func (c *CommunityDetailController) broadcastLocked(event ChatEvent) {
	for ch := range c.subscribers {
		select {
		case ch <- event:
		default:
			c.logger.Warn().Msg("chat subscriber is slow, dropping event")
		}
	}
}

// SendMessage appends the user's message as typed and hands it to the chat transport.
// Only surrounding whitespace is trimmed; blank input changes nothing.
func (c *CommunityDetailController) SendMessage(ctx context.Context, text string) (models.ChatMessage, error) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	msg := models.ChatMessage{
		ID:        c.nextID.Add(1),
		UserName:  defaultComposerAuthor,
		Content:   clean,
		Timestamp: c.now().UTC(),
		Type:      models.ChatKindMessage,
	}
	if c.auth.User != nil {
		msg.UserID = c.auth.User.ID
		msg.UserName = c.auth.User.Name
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.ChatMessage{}, ErrViewClosed
	}
	if c.community == nil {
		c.mu.Unlock()
		return models.ChatMessage{}, ErrCommunityNotLoaded
	}
	msg.CommunityID = c.community.ID
	c.transcript = append(c.transcript, msg)
	c.broadcastLocked(ChatEvent{Kind: ChatAppended, Message: &msg})
	transport := c.transport
	c.mu.Unlock()

	observability.ChatMessages().WithLabelValues("local").Inc()

	if transport != nil {
		if err := transport.Send(ctx, msg); err != nil && !errors.Is(err, chat.ErrClosed) {
			c.logger.Warn().Err(err).Int64("community_id", msg.CommunityID).Msg("chat transport send failed")
		}
	}

	return msg, nil
}

func (c *CommunityDetailController) subscriberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscribers)
}

// Subscribe streams transcript changes until the returned cancel func runs or the view closes.
func (c *CommunityDetailController) Subscribe() (<-chan ChatEvent, func()) {
	ch := make(chan ChatEvent, chatSubscriberBuffer)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()
	observability.ChatSubscribersActive().Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			if _, ok := c.subscribers[ch]; ok {
				delete(c.subscribers, ch)
				close(ch)
			}
			c.mu.Unlock()
			observability.ChatSubscribersActive().Dec()
		})
	}
}

// ClearChat empties the transcript once the user confirms.
func (c *CommunityDetailController) ClearChat(confirmer Confirmer) error {
	if confirmer == nil || !confirmer.Confirm(PromptClearChat) {
		return ErrNotConfirmed
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrViewClosed
	}
	c.transcript = []models.ChatMessage{}
	c.broadcastLocked(ChatEvent{Kind: ChatCleared})
	c.mu.Unlock()

	c.notify(msgChatCleared, models.NotifySuccess)
	return nil
}

// LeaveCommunity leaves the loaded community once the user confirms and returns
// where the browser should go next.
func (c *CommunityDetailController) LeaveCommunity(ctx context.Context, confirmer Confirmer) (dto.Navigation, error) {
	community, ok := c.current()
	if !ok {
		c.notify(msgCommunityMissing, models.NotifyError)
		return dto.Navigation{}, ErrCommunityNotLoaded
	}
	if confirmer == nil || !confirmer.Confirm(PromptLeaveCommunity) {
		return dto.Navigation{}, ErrNotConfirmed
	}

	bound, done := c.bind(ctx)
	err := c.provider.Leave(bound, c.auth, community.ID)
	done()
	if err != nil {
		c.logger.Error().Err(err).Int64("community_id", community.ID).Msg("failed to leave community")
		c.notify(msgLeaveFailed+friendzone.MessageOf(err, err.Error()), models.NotifyError)
		return dto.Navigation{}, err
	}

	c.mu.Lock()
	if !c.closed && c.community != nil {
		c.community.IsMember = false
	}
	c.mu.Unlock()

	c.notify(msgLeaveSuccess, models.NotifySuccess)
	return dto.Navigation{To: communitiesPath, AfterMs: c.leaveDelay.Milliseconds()}, nil
}

// SuggestionPrompt returns the default prompt sent for a suggestion type.
func SuggestionPrompt(kind models.SuggestionType) string {
	return suggestionPrompts[kind]
}

// RequestSuggestion hands a (type, prompt) pair to the assistant for the loaded community.
// An empty prompt uses the default prompt of the type.
func (c *CommunityDetailController) RequestSuggestion(ctx context.Context, kind models.SuggestionType, prompt string) (dto.SuggestionResponse, error) {
	if c.assistant == nil {
		c.notify(msgAssistantNotReady, models.NotifyError)
		return dto.SuggestionResponse{}, ErrAssistantUnavailable
	}
	if !kind.Valid() {
		return dto.SuggestionResponse{}, ErrInvalidSuggestionType
	}

	c.mu.RLock()
	if c.community == nil {
		c.mu.RUnlock()
		c.notify(msgCommunityMissing, models.NotifyError)
		return dto.SuggestionResponse{}, ErrCommunityNotLoaded
	}
	params := SuggestionParams{
		Community: *c.community,
		Members:   append([]models.CommunityMember(nil), c.members...),
		Type:      kind,
		Prompt:    strings.TrimSpace(prompt),
	}
	c.mu.RUnlock()

	if params.Prompt == "" {
		params.Prompt = SuggestionPrompt(kind)
	}

	bound, done := c.bind(ctx)
	defer done()
	return c.assistant.GetSuggestion(bound, c.auth, params)
}

// AssistantChat sends a free-text question to the assistant in the context of the loaded community.
func (c *CommunityDetailController) AssistantChat(ctx context.Context, message string) (dto.AssistantChatResponse, error) {
	if c.assistant == nil {
		c.notify(msgAssistantNotReady, models.NotifyError)
		return dto.AssistantChatResponse{}, ErrAssistantUnavailable
	}

	var community *models.Community
	if current, ok := c.current(); ok {
		community = &current
	}

	bound, done := c.bind(ctx)
	defer done()
	return c.assistant.Chat(bound, c.auth, message, community)
}

// Stats derives the sidebar figures from the loaded state.
func (c *CommunityDetailController) Stats() dto.CommunityStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statsLocked()
}

func (c *CommunityDetailController) statsLocked() dto.CommunityStats {
	stats := dto.CommunityStats{ResponseTimeHours: responseTimeHours}
	if c.community != nil {
		stats.AvgCompatibility = c.community.CompatibilityPercent()
	}
	for _, member := range c.members {
		if member.IsOnline {
			stats.ActiveMembers++
		}
	}
	cutoff := c.now().Add(-activityWindow)
	for _, activity := range c.activities {
		if activity.Timestamp.After(cutoff) {
			stats.ActivitiesThisWeek++
		}
	}
	return stats
}

// Transcript returns a copy of the chat transcript.
func (c *CommunityDetailController) Transcript() []models.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.ChatMessage{}, c.transcript...)
}

// Snapshot returns an immutable copy of the view state.
func (c *CommunityDetailController) Snapshot() dto.DetailSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := dto.DetailSnapshot{
		Degraded:   c.degraded,
		Members:    append([]models.CommunityMember{}, c.members...),
		Chat:       append([]models.ChatMessage{}, c.transcript...),
		Activities: append([]models.Activity{}, c.activities...),
		Stats:      c.statsLocked(),
	}
	if c.community != nil {
		community := *c.community
		community.Tags = append([]string(nil), community.Tags...)
		community.Members = append([]models.CommunityMember(nil), community.Members...)
		snapshot.Community = &community
	}
	if c.auth.User != nil {
		user := *c.auth.User
		snapshot.User = &user
	}
	return snapshot
}

// Close discards the view: in-flight loads are cancelled, the transport is closed and
// subscribers are released.
func (c *CommunityDetailController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for ch := range c.subscribers {
		close(ch)
		delete(c.subscribers, ch)
	}
	transport := c.transport
	done := c.pumpDone
	c.mu.Unlock()

	c.cancel()
	if transport != nil {
		if err := transport.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close chat transport")
		}
		<-done
	}
}

func (c *CommunityDetailController) notify(message string, kind models.NotificationKind) {
	if c.notifier != nil {
		c.notifier.Notify(message, kind)
	}
}
