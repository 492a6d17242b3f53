package models

import "strings"

// RoleAdmin is the elevated role that can select, delete and close visits
const RoleAdmin = "ADMIN"

// User is the operator returned by the backend on login
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
}

// IsAdmin checks the role case-insensitively
func (u *User) IsAdmin() bool {
	return u != nil && strings.EqualFold(u.Role, RoleAdmin)
}

// DisplayName falls back to the username when no name was sent
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
