package models

import (
	"time"
)

// Session is the server-side state bound to one browser cookie. It carries
// the backend bearer token and the in-progress registration wizard.
type Session struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *User       `json:"user,omitempty"`
	Token     string      `json:"token,omitempty"`
	Wizard    WizardState `json:"wizard"`
	IPAddress string      `json:"ip_address,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsAuthenticated reports whether a backend token is attached
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Token != "" && s.User != nil
}
