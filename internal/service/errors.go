package service

import "errors"

var (
	// ErrEmptyMessage indicates a chat message that is blank after trimming and sanitising.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNotConfirmed indicates the user declined a destructive action.
	ErrNotConfirmed = errors.New("action not confirmed")
	// ErrCommunityNotLoaded indicates a detail action before a community was loaded.
	ErrCommunityNotLoaded = errors.New("community not loaded")
	// ErrAssistantUnavailable indicates no assistant backend is configured.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
	// ErrViewClosed indicates the view was discarded by a newer navigation.
	ErrViewClosed = errors.New("view closed")
	// ErrJoinInFlight indicates a join for the same community is already running.
	ErrJoinInFlight = errors.New("join already in progress")
	// ErrInvalidCommunity indicates a create request failed validation.
	ErrInvalidCommunity = errors.New("invalid community")
	// ErrInvalidSuggestionType indicates an unknown assistant suggestion type.
	ErrInvalidSuggestionType = errors.New("invalid suggestion type")
)
