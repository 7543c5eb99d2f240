package dto

import (
	"strings"

	"github.com/noah-isme/friendzone-web/internal/models"
)

// Status is the tagged-result header every FriendZone API response carries.
type Status struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// Failed reports whether the server explicitly flagged the call as unsuccessful.
func (s Status) Failed() bool {
	return s.Success != nil && !*s.Success
}

// Header returns the status itself so every envelope embedding it exposes its result tag.
func (s Status) Header() Status {
	return s
}

// Succeeded reports whether the server explicitly flagged the call as successful.
func (s Status) Succeeded() bool {
	return s.Success != nil && *s.Success
}

// CommunityPayload mirrors the community record returned by the API.
type CommunityPayload struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Description        *string         `json:"description"`
	Category           string          `json:"category"`
	MemberCount        *int            `json:"member_count"`
	CurrentMemberCount *int            `json:"current_member_count"`
	MaxMembers         int             `json:"max_members"`
	CompatibilityScore *float64        `json:"compatibility_score"`
	Tags               []string        `json:"tags"`
	IsMember           bool            `json:"is_member"`
	IsActive           *bool           `json:"is_active"`
	CreatedBy          *int64          `json:"created_by"`
	Members            []MemberPayload `json:"members"`
}

// MemberPayload mirrors a membership record with its nested user.
type MemberPayload struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"user_id"`
	Role       string       `json:"role"`
	JoinedAt   *string      `json:"joined_at"`
	IsOnline   bool         `json:"is_online"`
	Name       string       `json:"name"`
	University string       `json:"university"`
	Department string       `json:"department"`
	User       *models.User `json:"user"`
}

// SimilarUserPayload mirrors one similar-user entry.
type SimilarUserPayload struct {
	User            models.User `json:"user"`
	SimilarityScore float64     `json:"similarity_score"`
}

// CommunitiesEnvelope is returned by the joined and catalog endpoints.
type CommunitiesEnvelope struct {
	Status
	Communities []CommunityPayload `json:"communities"`
}

// RecommendationsEnvelope is returned by the recommendation endpoint.
type RecommendationsEnvelope struct {
	Status
	Recommendations []CommunityPayload `json:"recommendations"`
}

// SimilarUsersEnvelope is returned by the similar-users endpoint.
type SimilarUsersEnvelope struct {
	Status
	SimilarUsers []SimilarUserPayload `json:"similar_users"`
}

// CommunityEnvelope is returned by the detail endpoint and optionally by mutations.
type CommunityEnvelope struct {
	Status
	Community *CommunityPayload `json:"community"`
}

// ToModel converts the wire payload into the domain model.
func (p CommunityPayload) ToModel() models.Community {
	community := models.Community{
		ID:         p.ID,
		Name:       p.Name,
		Category:   models.Category(p.Category),
		MaxMembers: p.MaxMembers,
		Tags:       append([]string(nil), p.Tags...),
		IsMember:   p.IsMember,
		IsActive:   true,
	}
	if p.Description != nil {
		community.Description = *p.Description
	}
	switch {
	case p.MemberCount != nil:
		community.MemberCount = *p.MemberCount
	case p.CurrentMemberCount != nil:
		community.MemberCount = *p.CurrentMemberCount
	default:
		community.MemberCount = len(p.Members)
	}
	if p.CompatibilityScore != nil {
		community.CompatibilityScore = *p.CompatibilityScore
	}
	if p.IsActive != nil {
		community.IsActive = *p.IsActive
	}
	if p.CreatedBy != nil {
		community.CreatedBy = *p.CreatedBy
	}
	if len(p.Members) > 0 {
		community.Members = make([]models.CommunityMember, 0, len(p.Members))
		for _, member := range p.Members {
			community.Members = append(community.Members, member.ToModel())
		}
	}
	return community
}

// ToModel converts a membership payload into a roster entry.
func (p MemberPayload) ToModel() models.CommunityMember {
	member := models.CommunityMember{
		ID:         p.ID,
		Name:       p.Name,
		Role:       models.MemberRole(p.Role),
		University: p.University,
		Department: p.Department,
		IsOnline:   p.IsOnline,
	}
	if p.UserID != 0 {
		member.ID = p.UserID
	}
	if member.Role == "" {
		member.Role = models.RoleMember
	}
	if p.User != nil {
		member.Name = p.User.Name
		member.University = p.User.University
		member.Department = p.User.Department
	}
	if p.JoinedAt != nil {
		joined := *p.JoinedAt
		if idx := strings.IndexByte(joined, 'T'); idx > 0 {
			joined = joined[:idx]
		}
		member.JoinedAt = joined
	}
	return member
}

// CommunityModels converts a payload slice.
func CommunityModels(payloads []CommunityPayload) []models.Community {
	result := make([]models.Community, 0, len(payloads))
	for _, payload := range payloads {
		result = append(result, payload.ToModel())
	}
	return result
}

// SimilarUserModels converts a payload slice.
func SimilarUserModels(payloads []SimilarUserPayload) []models.SimilarUser {
	result := make([]models.SimilarUser, 0, len(payloads))
	for _, payload := range payloads {
		user := payload.User
		if user.Hobbies == nil {
			user.Hobbies = []string{}
		}
		result = append(result, models.SimilarUser{User: user, SimilarityScore: payload.SimilarityScore})
	}
	return result
}

// CreateCommunityRequest is the payload POSTed to the create endpoint.
type CreateCommunityRequest struct {
	Name        string   `json:"name" validate:"required,min=3,max=80"`
	Description string   `json:"description" validate:"required,max=500"`
	Category    string   `json:"category" validate:"required,oneof=technology sports arts outdoor education social"`
	MaxMembers  int      `json:"max_members" validate:"required,min=2,max=500"`
	Tags        []string `json:"tags" validate:"max=10,dive,required,max=32"`
	CreatedBy   int64    `json:"created_by"`
}

// CreateCommunityForm is the HTML form representation; tags arrive comma-separated.
type CreateCommunityForm struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	Category    string `json:"category" form:"category"`
	MaxMembers  int    `json:"max_members" form:"max_members"`
	Tags        string `json:"tags" form:"tags"`
}

// ToRequest normalises the form into a create request.
func (f CreateCommunityForm) ToRequest() CreateCommunityRequest {
	tags := []string{}
	for _, tag := range strings.Split(f.Tags, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return CreateCommunityRequest{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Category:    strings.TrimSpace(f.Category),
		MaxMembers:  f.MaxMembers,
		Tags:        tags,
	}
}

// MembershipRequest is the payload of join and leave calls.
type MembershipRequest struct {
	UserID      int64 `json:"user_id" validate:"required"`
	CommunityID int64 `json:"community_id" validate:"required"`
}

// CreateCommunityResult reports the outcome of a create action.
type CreateCommunityResult struct {
	Community  *models.Community `json:"community,omitempty"`
	DialogOpen bool              `json:"dialog_open"`
	FormReset  bool              `json:"form_reset"`
}

// JoinResult reports the outcome of a join action.
type JoinResult struct {
	CommunityID int64  `json:"community_id"`
	Joined      bool   `json:"joined"`
	Redirect    string `json:"redirect,omitempty"`
}

// Navigation instructs the browser to move to another page after a delay.
type Navigation struct {
	To      string `json:"to"`
	AfterMs int64  `json:"after_ms"`
}

// CardVisibility lists the community cards left visible after filter and search.
type CardVisibility struct {
	Query    string  `json:"query"`
	Category string  `json:"category"`
	Visible  []int64 `json:"visible"`
	Hidden   []int64 `json:"hidden"`
}
