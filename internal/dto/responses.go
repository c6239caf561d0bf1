package dto

import (
	"time"

	"github.com/ignatzorin/gig-marketplace/internal/models"
)

// AuthResponse represents the user together with a fresh access token
type AuthResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// ConversationResponse represents a conversation and whether it was just created
type ConversationResponse struct {
	Conversation *models.Conversation `json:"conversation"`
	Created      bool                 `json:"created"`
}

// SavedCheckResponse represents the saved-gig check
type SavedCheckResponse struct {
	IsSaved bool `json:"is_saved"`
}

// CountResponse represents the number of affected records
type CountResponse struct {
	Count int64 `json:"count"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}
