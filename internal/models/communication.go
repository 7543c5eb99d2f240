package models

import "time"

// ChatMessageKind tags transcript entries.
type ChatMessageKind string

const ChatKindMessage ChatMessageKind = "message"

// ChatMessage is one entry of a community chat transcript.
type ChatMessage struct {
	ID          int64           `json:"id"`
	CommunityID int64           `json:"community_id,omitempty"`
	UserID      int64           `json:"user_id"`
	UserName    string          `json:"user_name"`
	Content     string          `json:"content"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        ChatMessageKind `json:"type"`
}

// Initial returns the author's avatar letter.
func (m ChatMessage) Initial() string {
	return Initial(m.UserName)
}

// ActivityKind enumerates community feed events.
type ActivityKind string

const (
	ActivityEventCreated      ActivityKind = "event_created"
	ActivityMemberJoined      ActivityKind = "member_joined"
	ActivityDiscussionStarted ActivityKind = "discussion_started"
	ActivityResourceShared    ActivityKind = "resource_shared"
)

var activityIcons = map[ActivityKind]string{
	ActivityEventCreated:      "fa-calendar-plus",
	ActivityMemberJoined:      "fa-user-plus",
	ActivityDiscussionStarted: "fa-comments",
	ActivityResourceShared:    "fa-share-alt",
}

// Icon returns the default icon for the activity kind.
func (k ActivityKind) Icon() string {
	if icon, ok := activityIcons[k]; ok {
		return icon
	}
	return "fa-bolt"
}

// Activity is a read-only feed entry.
type Activity struct {
	ID        int64        `json:"id"`
	Type      ActivityKind `json:"type"`
	UserName  string       `json:"user_name"`
	Content   string       `json:"content"`
	Timestamp time.Time    `json:"timestamp"`
	Icon      string       `json:"icon"`
}

// NotificationKind classifies user-visible notices.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyWarning NotificationKind = "warning"
	NotifyInfo    NotificationKind = "info"
)

// Notice is a single user-visible notification.
type Notice struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}

// SuggestionType selects which kind of assistant output is requested.
type SuggestionType string

const (
	SuggestionTopic      SuggestionType = "topic"
	SuggestionIcebreaker SuggestionType = "icebreaker"
	SuggestionActivity   SuggestionType = "activity"
	SuggestionCustom     SuggestionType = "custom"
)

// Valid reports whether t is a known suggestion type.
func (t SuggestionType) Valid() bool {
	switch t {
	case SuggestionTopic, SuggestionIcebreaker, SuggestionActivity, SuggestionCustom:
		return true
	}
	return false
}
