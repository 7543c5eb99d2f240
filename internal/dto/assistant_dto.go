package dto

// SuggestionRequest asks the assistant for community suggestions.
type SuggestionRequest struct {
	CommunityID int64  `json:"community_id" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=topic icebreaker activity custom"`
	Prompt      string `json:"prompt,omitempty" validate:"max=1000"`
}

// SuggestionEnvelope is the API response for suggestion requests.
type SuggestionEnvelope struct {
	Status
	Suggestion    string `json:"suggestion"`
	Type          string `json:"type"`
	CommunityName string `json:"community_name"`
}

// AssistantChatRequest sends a free-text message to the assistant.
type AssistantChatRequest struct {
	Message     string `json:"message" validate:"required,max=2000"`
	CommunityID int64  `json:"community_id,omitempty"`
}

// AssistantChatEnvelope is the API response for assistant chat.
type AssistantChatEnvelope struct {
	Status
	Response string `json:"response"`
}

// SuggestionResponse is what the BFF returns for a suggestion.
type SuggestionResponse struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	HTML     string `json:"html"`
	Fallback bool   `json:"fallback"`
}

// AssistantChatResponse is what the BFF returns for an assistant chat turn.
type AssistantChatResponse struct {
	Reply    string `json:"reply"`
	HTML     string `json:"html"`
	Fallback bool   `json:"fallback"`
}

// SuggestionForm is the detail page's suggestion request; an empty prompt uses the type's default.
type SuggestionForm struct {
	Type   string `json:"type" form:"type" validate:"required,oneof=topic icebreaker activity custom"`
	Prompt string `json:"prompt" form:"prompt" validate:"max=1000"`
}

// SuggestionPanelResponse pairs a suggestion with its rendered panel.
type SuggestionPanelResponse struct {
	Suggestion SuggestionResponse `json:"suggestion"`
	Panel      string             `json:"panel"`
}

// AssistantChatForm is a free-text question, optionally scoped to an open community view.
type AssistantChatForm struct {
	Message     string `json:"message" form:"message" validate:"max=2000"`
	CommunityID int64  `json:"community_id" form:"community_id"`
}
