package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/provider"
)

var errBoom = errors.New("boom")

func testAuth() provider.Auth {
	return provider.Auth{Token: "token-123", User: &models.User{ID: 7, Name: "Deniz Arslan"}}
}

func newFixture() provider.Provider {
	return provider.NewFixtureProvider(nil, zerolog.Nop())
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []models.Notice
}

func (n *recordingNotifier) Notify(message string, kind models.NotificationKind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, models.Notice{Message: message, Kind: kind})
}

func (n *recordingNotifier) all() []models.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Notice(nil), n.notices...)
}

func (n *recordingNotifier) last() models.Notice {
	all := n.all()
	if len(all) == 0 {
		return models.Notice{}
	}
	return all[len(all)-1]
}

// stubProvider wraps the fixture provider and lets tests override single calls.
type stubProvider struct {
	provider.Provider

	joinCalls  atomic.Int32
	leaveCalls atomic.Int32

	fetchJoined      func(ctx context.Context) ([]models.Community, error)
	fetchRecommended func(ctx context.Context) ([]models.Community, error)
	fetchAll         func(ctx context.Context) ([]models.Community, error)
	fetchSimilar     func(ctx context.Context) ([]models.SimilarUser, error)
	fetchCommunity   func(ctx context.Context, id int64) (*models.Community, error)
	join             func(ctx context.Context, id int64) error
	leave            func(ctx context.Context, id int64) error
	create           func(ctx context.Context, req dto.CreateCommunityRequest) (*models.Community, error)
}

func newStub() *stubProvider {
	return &stubProvider{Provider: newFixture()}
}

func (s *stubProvider) FetchJoined(ctx context.Context, auth provider.Auth) ([]models.Community, error) {
	if s.fetchJoined != nil {
		return s.fetchJoined(ctx)
	}
	return s.Provider.FetchJoined(ctx, auth)
}

func (s *stubProvider) FetchRecommended(ctx context.Context, auth provider.Auth) ([]models.Community, error) {
	if s.fetchRecommended != nil {
		return s.fetchRecommended(ctx)
	}
	return s.Provider.FetchRecommended(ctx, auth)
}

func (s *stubProvider) FetchAll(ctx context.Context, auth provider.Auth) ([]models.Community, error) {
	if s.fetchAll != nil {
		return s.fetchAll(ctx)
	}
	return s.Provider.FetchAll(ctx, auth)
}

func (s *stubProvider) FetchSimilar(ctx context.Context, auth provider.Auth) ([]models.SimilarUser, error) {
	if s.fetchSimilar != nil {
		return s.fetchSimilar(ctx)
	}
	return s.Provider.FetchSimilar(ctx, auth)
}

func (s *stubProvider) FetchCommunity(ctx context.Context, auth provider.Auth, id int64) (*models.Community, error) {
	if s.fetchCommunity != nil {
		return s.fetchCommunity(ctx, id)
	}
	return s.Provider.FetchCommunity(ctx, auth, id)
}

func (s *stubProvider) Join(ctx context.Context, auth provider.Auth, id int64) error {
	s.joinCalls.Add(1)
	if s.join != nil {
		return s.join(ctx, id)
	}
	return s.Provider.Join(ctx, auth, id)
}

func (s *stubProvider) Leave(ctx context.Context, auth provider.Auth, id int64) error {
	s.leaveCalls.Add(1)
	if s.leave != nil {
		return s.leave(ctx, id)
	}
	return s.Provider.Leave(ctx, auth, id)
}

func (s *stubProvider) CreateCommunity(ctx context.Context, auth provider.Auth, req dto.CreateCommunityRequest) (*models.Community, error) {
	if s.create != nil {
		return s.create(ctx, req)
	}
	return s.Provider.CreateCommunity(ctx, auth, req)
}

func ids(communities []models.Community) []int64 {
	result := make([]int64, 0, len(communities))
	for _, community := range communities {
		result = append(result, community.ID)
	}
	return result
}
