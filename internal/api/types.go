package api

import (
	"time"

	"github.com/satriahrh/voxrelay/domain/entities"
)

// OverrideRequest sets an operator priority override for a session.
type OverrideRequest struct {
	SessionID string `json:"session_id"`
	Priority  int    `json:"priority"`
}

// OverrideResponse acknowledges an accepted override.
type OverrideResponse struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"session_id"`
	Priority  int    `json:"priority"`
}

// StatusResponse lists all active overrides.
type StatusResponse struct {
	Overrides []entities.PriorityOverride `json:"overrides"`
}

// TokenRequest exchanges the shared admin secret for a bearer token.
type TokenRequest struct {
	Secret string `json:"secret"`
}

// TokenResponse carries an issued admin token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrorResponse is the common error shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
