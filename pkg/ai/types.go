package ai

import "context"

// MemberProfile is the part of a member's profile shared with the model.
type MemberProfile struct {
	Name        string
	Department  string
	Personality string
	Hobbies     []string
}

// SuggestionInput describes the community a suggestion is generated for.
type SuggestionInput struct {
	CommunityName string
	Category      string
	Description   string
	Members       []MemberProfile
	Type          string
	Prompt        string
}

// ChatInput is one free-text turn addressed to the assistant.
type ChatInput struct {
	Message       string
	CommunityName string
	Category      string
}

// Assistant generates community suggestions and chat replies.
type Assistant interface {
	Suggest(ctx context.Context, input SuggestionInput) (string, error)
	Chat(ctx context.Context, input ChatInput) (string, error)
}
