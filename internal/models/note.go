// Package models defines the domain types for Quire.
package models

import (
	"slices"
	"time"
)

// Note is a short text document owned by its author and optionally shared
// with other users for read and write access.
type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Author     string    `json:"author"`
	SharedWith []string  `json:"shared_with"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsSharedWith reports whether userID is a member of the sharing set.
func (n *Note) IsSharedWith(userID string) bool {
	return slices.Contains(n.SharedWith, userID)
}

// Audience returns the author followed by every shared user.
func (n *Note) Audience() []string {
	out := make([]string, 0, len(n.SharedWith)+1)
	out = append(out, n.Author)
	return append(out, n.SharedWith...)
}

// User is an account known to the identity provider.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
