package friendzone

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/models"
)

// UserCommunities returns the communities the user has joined.
func (c *Client) UserCommunities(ctx context.Context, token string, userID int64) ([]models.Community, error) {
	var envelope dto.CommunitiesEnvelope
	if err := c.do(ctx, call{
		endpoint: "user_communities",
		method:   fiber.MethodGet,
		path:     fmt.Sprintf("/api/community/user/%d", userID),
		token:    token,
		schema:   schemaCommunities,
		out:      &envelope,
	}); err != nil {
		return nil, err
	}
	communities := dto.CommunityModels(envelope.Communities)
	for i := range communities {
		communities[i].IsMember = true
	}
	return communities, nil
}

// Recommendations returns communities ranked for the user.
func (c *Client) Recommendations(ctx context.Context, token string, userID int64) ([]models.Community, error) {
	var envelope dto.RecommendationsEnvelope
	if err := c.do(ctx, call{
		endpoint: "recommendations",
		method:   fiber.MethodGet,
		path:     fmt.Sprintf("/api/community/recommendations/%d", userID),
		token:    token,
		schema:   schemaRecommendations,
		out:      &envelope,
	}); err != nil {
		return nil, err
	}
	return dto.CommunityModels(envelope.Recommendations), nil
}

// AllCommunities returns the active community catalog.
func (c *Client) AllCommunities(ctx context.Context, token string) ([]models.Community, error) {
	var envelope dto.CommunitiesEnvelope
	if err := c.do(ctx, call{
		endpoint: "all_communities",
		method:   fiber.MethodGet,
		path:     "/api/community/all",
		token:    token,
		schema:   schemaCommunities,
		out:      &envelope,
	}); err != nil {
		return nil, err
	}
	return dto.CommunityModels(envelope.Communities), nil
}

// SimilarUsers returns peers ranked by similarity to the user.
func (c *Client) SimilarUsers(ctx context.Context, token string, userID int64) ([]models.SimilarUser, error) {
	var envelope dto.SimilarUsersEnvelope
	if err := c.do(ctx, call{
		endpoint: "similar_users",
		method:   fiber.MethodGet,
		path:     fmt.Sprintf("/api/community/similar-users/%d", userID),
		token:    token,
		schema:   schemaSimilarUsers,
		out:      &envelope,
	}); err != nil {
		return nil, err
	}
	return dto.SimilarUserModels(envelope.SimilarUsers), nil
}

// Community returns one community with its member roster.
func (c *Client) Community(ctx context.Context, token string, id int64) (*models.Community, error) {
	var envelope dto.CommunityEnvelope
	if err := c.do(ctx, call{
		endpoint: "community",
		method:   fiber.MethodGet,
		path:     fmt.Sprintf("/api/community/%d", id),
		token:    token,
		schema:   schemaCommunity,
		out:      &envelope,
	}); err != nil {
		return nil, err
	}
	if envelope.Community == nil {
		return nil, fmt.Errorf("%w: community %d missing from response", ErrMalformed, id)
	}
	community := envelope.Community.ToModel()
	return &community, nil
}

// CreateCommunity creates a community. The backend may omit the created record, in which case nil is returned.
func (c *Client) CreateCommunity(ctx context.Context, token string, req dto.CreateCommunityRequest) (*models.Community, error) {
	var envelope dto.CommunityEnvelope
	if err := c.do(ctx, call{
		endpoint: "create_community",
		method:   fiber.MethodPost,
		path:     "/api/community/create",
		token:    token,
		body:     req,
		schema:   schemaStatus,
		out:      &envelope,
	}); err != nil {
		return nil, err
	}
	if envelope.Community == nil {
		return nil, nil
	}
	community := envelope.Community.ToModel()
	return &community, nil
}

// Join adds the user to a community.
func (c *Client) Join(ctx context.Context, token string, req dto.MembershipRequest) error {
	var envelope dto.Status
	return c.do(ctx, call{
		endpoint: "join",
		method:   fiber.MethodPost,
		path:     "/api/community/join",
		token:    token,
		body:     req,
		schema:   schemaStatus,
		out:      &envelope,
	})
}

// Leave removes the user from a community.
func (c *Client) Leave(ctx context.Context, token string, req dto.MembershipRequest) error {
	var envelope dto.Status
	return c.do(ctx, call{
		endpoint: "leave",
		method:   fiber.MethodPost,
		path:     "/api/community/leave",
		token:    token,
		body:     req,
		schema:   schemaStatus,
		out:      &envelope,
	})
}

// Suggestion asks the backend assistant for a community suggestion.
func (c *Client) Suggestion(ctx context.Context, token string, req dto.SuggestionRequest) (dto.SuggestionEnvelope, error) {
	var envelope dto.SuggestionEnvelope
	err := c.do(ctx, call{
		endpoint: "assistant_suggestion",
		method:   fiber.MethodPost,
		path:     "/api/assistant/suggestions",
		token:    token,
		body:     req,
		schema:   schemaSuggestion,
		out:      &envelope,
	})
	return envelope, err
}

// AssistantChat sends a free-text message to the backend assistant.
func (c *Client) AssistantChat(ctx context.Context, token string, req dto.AssistantChatRequest) (dto.AssistantChatEnvelope, error) {
	var envelope dto.AssistantChatEnvelope
	err := c.do(ctx, call{
		endpoint: "assistant_chat",
		method:   fiber.MethodPost,
		path:     "/api/assistant/chat",
		token:    token,
		body:     req,
		schema:   schemaSuggestion,
		out:      &envelope,
	})
	return envelope, err
}
