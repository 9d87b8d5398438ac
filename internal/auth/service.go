package auth

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/store"
)

const (
	MsgAlreadyRegistered  = "User already registered."
	MsgInvalidCredentials = "Invalid username or password."
)

// Credentials is the signup and login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks username and password length. bcrypt ignores bytes past 72.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Username, validation.Required, validation.Length(3, 64)),
		validation.Field(&c.Password, validation.Required, validation.Length(8, 72)),
	)
}

// Service registers accounts and exchanges credentials for tokens.
type Service struct {
	users  store.Users
	hasher *PasswordHasher
	tokens *Tokens
}

// NewService wires the identity provider.
func NewService(users store.Users, hasher *PasswordHasher, tokens *Tokens) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

// Signup creates an account.
func (s *Service) Signup(ctx context.Context, c Credentials) (*models.User, error) {
	if err := c.Validate(); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	hash, err := s.hasher.Hash(c.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.users.CreateUser(ctx, c.Username, hash)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		return nil, apperr.Validation(MsgAlreadyRegistered)
	}
	if err != nil {
		return nil, fmt.Errorf("auth: signup: %w", err)
	}
	return u, nil
}

// Login verifies credentials and returns a signed token. Unknown users and
// wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, c Credentials) (string, error) {
	u, err := s.users.FindUserByUsername(ctx, c.Username)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", apperr.Validation(MsgInvalidCredentials)
	}
	if err != nil {
		return "", fmt.Errorf("auth: login: %w", err)
	}
	ok, err := s.hasher.Verify(u.PasswordHash, c.Password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperr.Validation(MsgInvalidCredentials)
	}
	return s.tokens.Issue(u.ID)
}

// Lookup resolves a username to its account.
func (s *Service) Lookup(ctx context.Context, username string) (*models.User, error) {
	u, err := s.users.FindUserByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup: %w", err)
	}
	return u, nil
}
