package provider_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/friendzone-web/internal/config"
	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/provider"
)

var testAuth = provider.Auth{Token: "tok", User: &models.User{ID: 42, Name: "Elif"}}

func fixedNow() time.Time {
	return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
}

func TestFixtureProvider_JoinThenReloadShowsJoined(t *testing.T) {
	p := provider.NewFixtureProvider(fixedNow, zerolog.New(io.Discard))
	ctx := context.Background()

	joined, err := p.FetchJoined(ctx, testAuth)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	require.Equal(t, int64(2), joined[0].ID)

	require.NoError(t, p.Join(ctx, testAuth, 1))

	joined, err = p.FetchJoined(ctx, testAuth)
	require.NoError(t, err)
	require.Len(t, joined, 2)

	all, err := p.FetchAll(ctx, testAuth)
	require.NoError(t, err)
	for _, community := range all {
		if community.ID == 1 {
			require.True(t, community.IsMember)
			require.Equal(t, 25, community.MemberCount)
		}
	}
}

func TestFixtureProvider_RecommendedExcludesJoinedAndSortsByScore(t *testing.T) {
	p := provider.NewFixtureProvider(fixedNow, zerolog.New(io.Discard))

	recommended, err := p.FetchRecommended(context.Background(), testAuth)
	require.NoError(t, err)
	ids := make([]int64, 0, len(recommended))
	for _, community := range recommended {
		ids = append(ids, community.ID)
	}
	require.Equal(t, []int64{1, 4, 3}, ids)
}

func TestFixtureProvider_LeaveAndErrors(t *testing.T) {
	p := provider.NewFixtureProvider(fixedNow, zerolog.New(io.Discard))
	ctx := context.Background()

	require.NoError(t, p.Leave(ctx, testAuth, 2))
	require.ErrorIs(t, p.Leave(ctx, testAuth, 2), provider.ErrNotMember)
	require.ErrorIs(t, p.Join(ctx, testAuth, 99), provider.ErrNotFound)

	_, err := p.FetchJoined(ctx, provider.Auth{Token: "tok"})
	require.ErrorIs(t, err, provider.ErrMissingUser)
}

func TestFixtureProvider_CreateAddsMembership(t *testing.T) {
	p := provider.NewFixtureProvider(fixedNow, zerolog.New(io.Discard))
	ctx := context.Background()

	created, err := p.CreateCommunity(ctx, testAuth, dto.CreateCommunityRequest{
		Name: "Satranç Kulübü", Description: "Haftalık turnuvalar", Category: "social", MaxMembers: 10,
	})
	require.NoError(t, err)
	require.Equal(t, int64(5), created.ID)
	require.Equal(t, int64(42), created.CreatedBy)

	joined, err := p.FetchJoined(ctx, testAuth)
	require.NoError(t, err)
	require.Len(t, joined, 2)

	detail, err := p.FetchCommunity(ctx, testAuth, 5)
	require.NoError(t, err)
	require.Equal(t, "Satranç Kulübü", detail.Name)
}

func TestFixtureProvider_DetailSamples(t *testing.T) {
	p := provider.NewFixtureProvider(fixedNow, zerolog.New(io.Discard))
	ctx := context.Background()

	community, err := p.FetchCommunity(ctx, testAuth, 1)
	require.NoError(t, err)

	members, err := p.FetchMembers(ctx, testAuth, *community)
	require.NoError(t, err)
	require.Len(t, members, 4)
	require.Equal(t, models.RoleAdmin, members[0].Role)

	messages, err := p.FetchChat(ctx, testAuth, *community)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	require.True(t, messages[0].Timestamp.Before(messages[3].Timestamp))

	activities, err := p.FetchActivities(ctx, testAuth, *community)
	require.NoError(t, err)
	require.Len(t, activities, 4)
	require.Equal(t, "fa-calendar-plus", activities[0].Icon)

	_, err = p.FetchCommunity(ctx, testAuth, 404)
	require.ErrorIs(t, err, provider.ErrNotFound)
}

type stubAPI struct {
	joined    []models.Community
	all       []models.Community
	joinedErr error
	joinReq   dto.MembershipRequest
	createReq dto.CreateCommunityRequest
}

func (s *stubAPI) UserCommunities(context.Context, string, int64) ([]models.Community, error) {
	return s.joined, s.joinedErr
}

func (s *stubAPI) Recommendations(context.Context, string, int64) ([]models.Community, error) {
	return nil, nil
}

func (s *stubAPI) AllCommunities(context.Context, string) ([]models.Community, error) {
	result := make([]models.Community, len(s.all))
	copy(result, s.all)
	return result, nil
}

func (s *stubAPI) SimilarUsers(context.Context, string, int64) ([]models.SimilarUser, error) {
	return nil, nil
}

func (s *stubAPI) Community(_ context.Context, _ string, id int64) (*models.Community, error) {
	return &models.Community{ID: id, Members: []models.CommunityMember{{ID: 1, Name: "Ahmet"}}}, nil
}

func (s *stubAPI) CreateCommunity(_ context.Context, _ string, req dto.CreateCommunityRequest) (*models.Community, error) {
	s.createReq = req
	return nil, nil
}

func (s *stubAPI) Join(_ context.Context, _ string, req dto.MembershipRequest) error {
	s.joinReq = req
	return nil
}

func (s *stubAPI) Leave(context.Context, string, dto.MembershipRequest) error {
	return nil
}

func TestLiveProvider_FlagsCatalogMembership(t *testing.T) {
	api := &stubAPI{
		joined: []models.Community{{ID: 2}},
		all:    []models.Community{{ID: 1}, {ID: 2}},
	}
	p := provider.NewLiveProvider(api, zerolog.New(io.Discard))

	all, err := p.FetchAll(context.Background(), testAuth)
	require.NoError(t, err)
	require.False(t, all[0].IsMember)
	require.True(t, all[1].IsMember)

	api.joinedErr = errors.New("down")
	all, err = p.FetchAll(context.Background(), testAuth)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestLiveProvider_ForwardsUserAndDetail(t *testing.T) {
	api := &stubAPI{}
	p := provider.NewLiveProvider(api, zerolog.New(io.Discard))
	ctx := context.Background()

	require.NoError(t, p.Join(ctx, testAuth, 7))
	require.Equal(t, dto.MembershipRequest{UserID: 42, CommunityID: 7}, api.joinReq)

	_, err := p.CreateCommunity(ctx, testAuth, dto.CreateCommunityRequest{Name: "abc"})
	require.NoError(t, err)
	require.Equal(t, int64(42), api.createReq.CreatedBy)

	community, err := p.FetchCommunity(ctx, testAuth, 3)
	require.NoError(t, err)
	members, err := p.FetchMembers(ctx, testAuth, *community)
	require.NoError(t, err)
	require.Len(t, members, 1)

	chat, err := p.FetchChat(ctx, testAuth, *community)
	require.NoError(t, err)
	require.Empty(t, chat)

	require.ErrorIs(t, p.Join(ctx, provider.Auth{Token: "tok"}, 1), provider.ErrMissingUser)
}

func TestNew_SelectsByMode(t *testing.T) {
	logger := zerolog.New(io.Discard)

	p, err := provider.New(&config.Config{ProviderMode: config.ProviderFixture}, nil, logger)
	require.NoError(t, err)
	require.NotNil(t, p)

	_, err = provider.New(&config.Config{ProviderMode: config.ProviderLive}, nil, logger)
	require.Error(t, err)

	_, err = provider.New(&config.Config{ProviderMode: "mystery"}, &stubAPI{}, logger)
	require.Error(t, err)
}
