package api

import "github.com/starford/quire/internal/models"

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title   string `json:"title" example:"Groceries" validate:"required"`
	Content string `json:"content" example:"milk, eggs"`
}

// UpdateNoteRequest documents the update body. Only these two keys are accepted.
type UpdateNoteRequest struct {
	Title   *string `json:"title,omitempty" example:"Groceries"`
	Content *string `json:"content,omitempty" example:"milk, eggs, bread"`
}

// ShareRequest names the user to share a note with.
type ShareRequest struct {
	UserID string `json:"userId" example:"3f2b8a8e-4c1d-4b8a-9a57-1d2c3e4f5a6b" validate:"required"`
}

// CredentialsRequest is the signup and login body.
type CredentialsRequest struct {
	Username string `json:"username" example:"alice" validate:"required"`
	Password string `json:"password" example:"correct horse battery" validate:"required"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token" validate:"required"`
}

// MessageResponse carries a human-readable outcome.
type MessageResponse struct {
	Message string `json:"message" validate:"required"`
}

// Note is the note response type (aliased from the domain layer).
type Note = models.Note

// User is the account response type (aliased from the domain layer).
type User = models.User
