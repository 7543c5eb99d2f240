package models

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category groups communities by theme.
type Category string

const (
	CategoryTechnology Category = "technology"
	CategorySports     Category = "sports"
	CategoryArts       Category = "arts"
	CategoryOutdoor    Category = "outdoor"
	CategoryEducation  Category = "education"
	CategorySocial     Category = "social"
)

var categoryLabels = map[Category]string{
	CategoryTechnology: "Teknoloji",
	CategorySports:     "Spor",
	CategoryArts:       "Sanat",
	CategoryOutdoor:    "Açık Hava",
	CategoryEducation:  "Eğitim",
	CategorySocial:     "Sosyal",
}

var categoryIcons = map[Category]string{
	CategoryTechnology: "fa-laptop-code",
	CategorySports:     "fa-running",
	CategoryArts:       "fa-palette",
	CategoryOutdoor:    "fa-mountain",
	CategoryEducation:  "fa-graduation-cap",
	CategorySocial:     "fa-users",
}

// Categories lists the known categories in display order.
func Categories() []Category {
	return []Category{CategoryTechnology, CategorySports, CategoryArts, CategoryOutdoor, CategoryEducation, CategorySocial}
}

// Label returns the display label, or the raw value for unknown categories.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Icon returns the font-awesome icon class for the category.
func (c Category) Icon() string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return "fa-users"
}

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Community is the client-side copy of a community record.
type Community struct {
	ID                 int64             `json:"id"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	Category           Category          `json:"category"`
	MemberCount        int               `json:"member_count"`
	MaxMembers         int               `json:"max_members"`
	CompatibilityScore float64           `json:"compatibility_score"`
	Tags               []string          `json:"tags"`
	IsMember           bool              `json:"is_member"`
	IsActive           bool              `json:"is_active"`
	CreatedBy          int64             `json:"created_by,omitempty"`
	Members            []CommunityMember `json:"members,omitempty"`
}

// CompatibilityPercent renders the compatibility score as a whole percentage.
func (c Community) CompatibilityPercent() int {
	return Percent(c.CompatibilityScore)
}

// Matches reports whether the query is a case-insensitive substring of the name or description.
func (c Community) Matches(query string) bool {
	needle := strings.ToLower(query)
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), needle) ||
		strings.Contains(strings.ToLower(c.Description), needle)
}

// MemberRole distinguishes community administrators from regular members.
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// CommunityMember is one entry of a community roster.
type CommunityMember struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Role       MemberRole `json:"role"`
	University string     `json:"university"`
	Department string     `json:"department"`
	JoinedAt   string     `json:"joined_at"`
	IsOnline   bool       `json:"is_online"`
}

// Initial returns the member's avatar letter.
func (m CommunityMember) Initial() string {
	return Initial(m.Name)
}

// Percent converts a [0,1] score into a rounded percentage.
func Percent(score float64) int {
	return int(math.Round(score * 100))
}

// Initial returns the upper-cased first rune of name.
func Initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}
