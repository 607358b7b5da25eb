package token

import (
	"context"

	"github.com/google/uuid"
)

// Storage defines the access token storage API
type Storage interface {
	// GetByRawToken retrieves a token by its raw (prior hashing) secret
	GetByRawToken(ctx context.Context, rawToken string) (*Token, error)

	// GetByID retrieves a token by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Token, error)

	// Create creates a new token and returns it together with its raw secret.
	// An expiry of 0 creates a token that never expires.
	Create(ctx context.Context, capabilities Capabilities, expires int64) (*Token, string, error)

	// CreateStatic creates a new token whose raw secret is provided by the caller.
	// This is used to seed the admin token configured for the service.
	CreateStatic(ctx context.Context, rawToken string, capabilities Capabilities, expires int64) (*Token, error)

	// DeleteByID deletes a token by its ID
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// DeleteExpired deletes all tokens that are expired and returns their amount
	DeleteExpired(ctx context.Context) (int, error)
}
