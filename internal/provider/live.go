package provider

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/models"
)

// API is the subset of the FriendZone client the live provider relies on.
type API interface {
	UserCommunities(ctx context.Context, token string, userID int64) ([]models.Community, error)
	Recommendations(ctx context.Context, token string, userID int64) ([]models.Community, error)
	AllCommunities(ctx context.Context, token string) ([]models.Community, error)
	SimilarUsers(ctx context.Context, token string, userID int64) ([]models.SimilarUser, error)
	Community(ctx context.Context, token string, id int64) (*models.Community, error)
	CreateCommunity(ctx context.Context, token string, req dto.CreateCommunityRequest) (*models.Community, error)
	Join(ctx context.Context, token string, req dto.MembershipRequest) error
	Leave(ctx context.Context, token string, req dto.MembershipRequest) error
}

type liveProvider struct {
	api    API
	logger zerolog.Logger
}

// NewLiveProvider constructs a provider backed by the FriendZone API.
func NewLiveProvider(api API, logger zerolog.Logger) Provider {
	return &liveProvider{
		api:    api,
		logger: logger.With().Str("component", "live_provider").Logger(),
	}
}

func (p *liveProvider) FetchJoined(ctx context.Context, auth Auth) ([]models.Community, error) {
	userID, err := auth.UserID()
	if err != nil {
		return nil, err
	}
	return p.api.UserCommunities(ctx, auth.Token, userID)
}

func (p *liveProvider) FetchRecommended(ctx context.Context, auth Auth) ([]models.Community, error) {
	userID, err := auth.UserID()
	if err != nil {
		return nil, err
	}
	return p.api.Recommendations(ctx, auth.Token, userID)
}

func (p *liveProvider) FetchAll(ctx context.Context, auth Auth) ([]models.Community, error) {
	communities, err := p.api.AllCommunities(ctx, auth.Token)
	if err != nil {
		return nil, err
	}

	// The catalog endpoint does not know the viewer, so membership comes from the joined list.
	userID, err := auth.UserID()
	if err != nil {
		return communities, nil
	}
	joined, err := p.api.UserCommunities(ctx, auth.Token, userID)
	if err != nil {
		p.logger.Warn().Err(err).Msg("membership lookup failed, catalog flags left as returned")
		return communities, nil
	}
	member := make(map[int64]struct{}, len(joined))
	for _, community := range joined {
		member[community.ID] = struct{}{}
	}
	for i := range communities {
		if _, ok := member[communities[i].ID]; ok {
			communities[i].IsMember = true
		}
	}
	return communities, nil
}

func (p *liveProvider) FetchSimilar(ctx context.Context, auth Auth) ([]models.SimilarUser, error) {
	userID, err := auth.UserID()
	if err != nil {
		return nil, err
	}
	return p.api.SimilarUsers(ctx, auth.Token, userID)
}

func (p *liveProvider) FetchCommunity(ctx context.Context, auth Auth, id int64) (*models.Community, error) {
	return p.api.Community(ctx, auth.Token, id)
}

// FetchMembers returns the roster embedded in the community payload.
func (p *liveProvider) FetchMembers(_ context.Context, _ Auth, community models.Community) ([]models.CommunityMember, error) {
	members := make([]models.CommunityMember, len(community.Members))
	copy(members, community.Members)
	return members, nil
}

// FetchChat returns an empty transcript; the API has no chat history endpoint.
func (p *liveProvider) FetchChat(context.Context, Auth, models.Community) ([]models.ChatMessage, error) {
	return []models.ChatMessage{}, nil
}

// FetchActivities returns an empty feed; the API has no activity endpoint.
func (p *liveProvider) FetchActivities(context.Context, Auth, models.Community) ([]models.Activity, error) {
	return []models.Activity{}, nil
}

func (p *liveProvider) CreateCommunity(ctx context.Context, auth Auth, req dto.CreateCommunityRequest) (*models.Community, error) {
	userID, err := auth.UserID()
	if err != nil {
		return nil, err
	}
	req.CreatedBy = userID
	return p.api.CreateCommunity(ctx, auth.Token, req)
}

func (p *liveProvider) Join(ctx context.Context, auth Auth, communityID int64) error {
	userID, err := auth.UserID()
	if err != nil {
		return err
	}
	return p.api.Join(ctx, auth.Token, dto.MembershipRequest{UserID: userID, CommunityID: communityID})
}

func (p *liveProvider) Leave(ctx context.Context, auth Auth, communityID int64) error {
	userID, err := auth.UserID()
	if err != nil {
		return err
	}
	return p.api.Leave(ctx, auth.Token, dto.MembershipRequest{UserID: userID, CommunityID: communityID})
}
