package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/config"
	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/models"
)

var (
	// ErrMissingUser is returned when the session carries no user record.
	ErrMissingUser = errors.New("session user missing")
	// ErrNotFound is returned when a community does not exist.
	ErrNotFound = errors.New("community not found")
	// ErrCommunityFull is returned when a community has no free seats.
	ErrCommunityFull = errors.New("community is full")
	// ErrNotMember is returned when leaving a community the user never joined.
	ErrNotMember = errors.New("user is not a member")
)

// Auth carries the session credentials forwarded with every call.
type Auth struct {
	Token string
	User  *models.User
}

// UserID returns the session user's id or ErrMissingUser.
func (a Auth) UserID() (int64, error) {
	if a.User == nil || a.User.ID == 0 {
		return 0, ErrMissingUser
	}
	return a.User.ID, nil
}

// Provider is the data source behind the community controllers.
type Provider interface {
	FetchJoined(ctx context.Context, auth Auth) ([]models.Community, error)
	FetchRecommended(ctx context.Context, auth Auth) ([]models.Community, error)
	FetchAll(ctx context.Context, auth Auth) ([]models.Community, error)
	FetchSimilar(ctx context.Context, auth Auth) ([]models.SimilarUser, error)
	FetchCommunity(ctx context.Context, auth Auth, id int64) (*models.Community, error)
	FetchMembers(ctx context.Context, auth Auth, community models.Community) ([]models.CommunityMember, error)
	FetchChat(ctx context.Context, auth Auth, community models.Community) ([]models.ChatMessage, error)
	FetchActivities(ctx context.Context, auth Auth, community models.Community) ([]models.Activity, error)
	CreateCommunity(ctx context.Context, auth Auth, req dto.CreateCommunityRequest) (*models.Community, error)
	Join(ctx context.Context, auth Auth, communityID int64) error
	Leave(ctx context.Context, auth Auth, communityID int64) error
}

// New selects the provider implementation named by cfg.ProviderMode.
func New(cfg *config.Config, api API, logger zerolog.Logger) (Provider, error) {
	switch cfg.ProviderMode {
	case config.ProviderFixture:
		return NewFixtureProvider(time.Now, logger), nil
	case config.ProviderLive, "":
		if api == nil {
			return nil, fmt.Errorf("live provider requires an api client")
		}
		return NewLiveProvider(api, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider mode %q", cfg.ProviderMode)
	}
}
