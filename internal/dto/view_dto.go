package dto

import "github.com/noah-isme/friendzone-web/internal/models"

// Region names the independently loaded sections of the community list page.
type Region string

const (
	RegionJoined      Region = "joined"
	RegionRecommended Region = "recommended"
	RegionAll         Region = "all"
	RegionSimilar     Region = "similar"
)

// Regions lists every list-page region in render order.
func Regions() []Region {
	return []Region{RegionJoined, RegionRecommended, RegionAll, RegionSimilar}
}

// Valid reports whether r names a known region.
func (r Region) Valid() bool {
	switch r {
	case RegionJoined, RegionRecommended, RegionAll, RegionSimilar:
		return true
	}
	return false
}

// LoadState is the lifecycle of one region.
type LoadState string

const (
	StateLoading LoadState = "loading"
	StateReady   LoadState = "ready"
	StateEmpty   LoadState = "empty"
	StateError   LoadState = "error"
)

// CommunityRegion is the rendered state of a community collection.
type CommunityRegion struct {
	Name        Region             `json:"name"`
	State       LoadState          `json:"state"`
	Communities []models.Community `json:"communities"`
	Error       string             `json:"error,omitempty"`
}

// SimilarRegion is the rendered state of the similar-users collection.
type SimilarRegion struct {
	State LoadState            `json:"state"`
	Users []models.SimilarUser `json:"users"`
	Error string               `json:"error,omitempty"`
}

// ListSnapshot is an immutable copy of the community list view.
type ListSnapshot struct {
	User             *models.User    `json:"user,omitempty"`
	Joined           CommunityRegion `json:"joined"`
	Recommended      CommunityRegion `json:"recommended"`
	All              CommunityRegion `json:"all"`
	Similar          SimilarRegion   `json:"similar"`
	Query            string          `json:"query"`
	Category         string          `json:"category"`
	Hidden           []int64         `json:"hidden"`
	CreateDialogOpen bool            `json:"create_dialog_open"`
	Notices          []models.Notice `json:"notices,omitempty"`
}

// IsHidden reports whether filter and search currently hide the card with id.
func (s ListSnapshot) IsHidden(id int64) bool {
	for _, hidden := range s.Hidden {
		if hidden == id {
			return true
		}
	}
	return false
}

// CommunityStats are the derived sidebar figures of the detail page.
type CommunityStats struct {
	ActiveMembers      int     `json:"active_members"`
	AvgCompatibility   int     `json:"avg_compatibility"`
	ActivitiesThisWeek int     `json:"activities_this_week"`
	ResponseTimeHours  float64 `json:"response_time_hours"`
}

// DetailSnapshot is an immutable copy of the community detail view.
type DetailSnapshot struct {
	User       *models.User             `json:"user,omitempty"`
	Community  *models.Community        `json:"community,omitempty"`
	Degraded   bool                     `json:"degraded"`
	Members    []models.CommunityMember `json:"members"`
	Chat       []models.ChatMessage     `json:"chat"`
	Activities []models.Activity        `json:"activities"`
	Stats      CommunityStats           `json:"stats"`
	Notices    []models.Notice          `json:"notices,omitempty"`
}
