package dto

import "github.com/noah-isme/friendzone-web/internal/models"

// SendMessageRequest is the chat composer payload.
type SendMessageRequest struct {
	Text string `json:"text" form:"text"`
}

// ChatMessageResponse returns a posted message with its rendered transcript entry.
type ChatMessageResponse struct {
	Message models.ChatMessage `json:"message"`
	HTML    string             `json:"html"`
}

// ChatFrame is one websocket frame of the transcript stream.
type ChatFrame struct {
	Kind    string              `json:"kind"`
	Message *models.ChatMessage `json:"message,omitempty"`
	HTML    string              `json:"html,omitempty"`
}

// NoticeMeta accompanies a pending notification batch.
type NoticeMeta struct {
	Count int `json:"count"`
}
