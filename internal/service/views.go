package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/chat"
	"github.com/noah-isme/friendzone-web/internal/observability"
	"github.com/noah-isme/friendzone-web/internal/provider"
)

const (
	viewList   = "list"
	viewDetail = "detail"

	minSweepInterval = time.Second
	maxSweepInterval = 5 * time.Minute
)

// ViewFactory holds the shared collaborators every view controller is built from.
type ViewFactory struct {
	Provider      provider.Provider
	Validator     *validator.Validate
	Transports    chat.Factory
	Assistant     AssistantService
	Notifications NotificationService
	LeaveDelay    time.Duration
	Now           func() time.Time
	Logger        zerolog.Logger
}

func (f ViewFactory) notifier(sessionID string) Notifier {
	if f.Notifications == nil {
		return nil
	}
	return f.Notifications.For(sessionID)
}

// NewList builds a list controller for one session.
func (f ViewFactory) NewList(sessionID string, auth provider.Auth) *CommunityListController {
	return NewCommunityListController(f.Provider, auth, f.Validator, f.notifier(sessionID), f.Logger.With().Str("session_id", sessionID).Logger())
}

// NewDetail builds a detail controller for one session.
func (f ViewFactory) NewDetail(sessionID string, auth provider.Auth) *CommunityDetailController {
	return NewCommunityDetailController(DetailConfig{
		Provider:   f.Provider,
		Auth:       auth,
		Transports: f.Transports,
		Assistant:  f.Assistant,
		Notifier:   f.notifier(sessionID),
		LeaveDelay: f.LeaveDelay,
		Now:        f.Now,
		Logger:     f.Logger.With().Str("session_id", sessionID).Logger(),
	})
}

type sessionViews struct {
	list     *CommunityListController
	detail   *CommunityDetailController
	lastSeen time.Time
}

// streaming reports whether a transcript stream is still attached to the detail view.
func (v *sessionViews) streaming() bool {
	return v.detail != nil && v.detail.subscriberCount() > 0
}

// ViewRegistry keeps the live views of each session. Opening a view discards the
// session's previous view of the same kind. Sessions that stay idle are swept.
type ViewRegistry struct {
	factory ViewFactory
	logger  zerolog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionViews
}

// NewViewRegistry constructs an empty registry.
func NewViewRegistry(factory ViewFactory, logger zerolog.Logger) *ViewRegistry {
	now := factory.Now
	if now == nil {
		now = time.Now
	}
	return &ViewRegistry{
		factory:  factory,
		logger:   logger.With().Str("component", "view_registry").Logger(),
		now:      now,
		sessions: make(map[string]*sessionViews),
	}
}

// Factory exposes the collaborators views are built from.
func (r *ViewRegistry) Factory() ViewFactory {
	return r.factory
}

func (r *ViewRegistry) entry(sessionID string) *sessionViews {
	views, ok := r.sessions[sessionID]
	if !ok {
		views = &sessionViews{}
		r.sessions[sessionID] = views
	}
	views.lastSeen = r.now()
	return views
}

// OpenList replaces the session's list view with a fresh one.
func (r *ViewRegistry) OpenList(sessionID string, auth provider.Auth) *CommunityListController {
	view := r.factory.NewList(sessionID, auth)

	r.mu.Lock()
	views := r.entry(sessionID)
	previous := views.list
	views.list = view
	r.mu.Unlock()

	observability.ActiveViews().WithLabelValues(viewList).Inc()
	if previous != nil {
		previous.Close()
		observability.ActiveViews().WithLabelValues(viewList).Dec()
	}
	return view
}

// List returns the session's current list view.
func (r *ViewRegistry) List(sessionID string) (*CommunityListController, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	views, ok := r.sessions[sessionID]
	if !ok || views.list == nil {
		return nil, false
	}
	views.lastSeen = r.now()
	return views.list, true
}

// OpenDetail replaces the session's detail view with a fresh one.
func (r *ViewRegistry) OpenDetail(sessionID string, auth provider.Auth) *CommunityDetailController {
	view := r.factory.NewDetail(sessionID, auth)

	r.mu.Lock()
	views := r.entry(sessionID)
	previous := views.detail
	views.detail = view
	r.mu.Unlock()

	observability.ActiveViews().WithLabelValues(viewDetail).Inc()
	if previous != nil {
		previous.Close()
		observability.ActiveViews().WithLabelValues(viewDetail).Dec()
	}
	return view
}

// Detail returns the session's detail view when it was opened for communityID.
func (r *ViewRegistry) Detail(sessionID string, communityID int64) (*CommunityDetailController, bool) {
	r.mu.Lock()
	views, ok := r.sessions[sessionID]
	var view *CommunityDetailController
	if ok {
		view = views.detail
		views.lastSeen = r.now()
	}
	r.mu.Unlock()

	if view == nil || view.RequestedID() != communityID {
		return nil, false
	}
	return view, true
}

// CloseSession discards every view of a session, for example on logout.
func (r *ViewRegistry) CloseSession(sessionID string) {
	r.mu.Lock()
	views, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	if ok {
		r.closeViews(views)
	}
}

// Sweep closes the views of every session not seen for longer than idle and
// returns how many sessions it dropped. A detail view with an attached transcript
// stream keeps its session alive.
func (r *ViewRegistry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*sessionViews
	for sessionID, views := range r.sessions {
		if views.lastSeen.After(cutoff) || views.streaming() {
			continue
		}
		stale = append(stale, views)
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()

	for _, views := range stale {
		r.closeViews(views)
	}
	if len(stale) > 0 {
		r.logger.Info().Int("sessions", len(stale)).Dur("idle", idle).Msg("idle views swept")
	}
	return len(stale)
}

// StartSweeper sweeps sessions idle for longer than idle until ctx is done.
func (r *ViewRegistry) StartSweeper(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	interval := idle / 4
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	if interval > maxSweepInterval {
		interval = maxSweepInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep(idle)
			}
		}
	}()
}

// Close discards every view of every session.
func (r *ViewRegistry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*sessionViews)
	r.mu.Unlock()

	for _, views := range sessions {
		r.closeViews(views)
	}
	r.logger.Info().Int("sessions", len(sessions)).Msg("views closed")
}

func (r *ViewRegistry) closeViews(views *sessionViews) {
	if views.list != nil {
		views.list.Close()
		observability.ActiveViews().WithLabelValues(viewList).Dec()
	}
	if views.detail != nil {
		views.detail.Close()
		observability.ActiveViews().WithLabelValues(viewDetail).Dec()
	}
}
