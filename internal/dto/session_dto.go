package dto

import "github.com/noah-isme/friendzone-web/internal/models"

// SessionLoginRequest stores the token and user returned by the auth flow.
type SessionLoginRequest struct {
	Token string      `json:"token" validate:"required"`
	User  models.User `json:"user"`
}

// SessionUserUpdate replaces the stored user record after a profile edit.
type SessionUserUpdate struct {
	User models.User `json:"user"`
}

// SessionResponse describes the current session.
type SessionResponse struct {
	SessionID     string       `json:"session_id"`
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
}

// ConfirmRequest carries an interactive confirmation for destructive actions.
type ConfirmRequest struct {
	Confirm bool `json:"confirm" form:"confirm" query:"confirm"`
}
