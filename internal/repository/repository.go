package repository

import (
	"context"
	"time"

	"github.com/nkiryanov/delivery/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// Decides what happens with the stored refresh token
// found is false if there is no token with the id; stored is zero value then
// keep=true stores next under the id, keep=false removes the token
// The error is passed back to the caller as is
type ComputeFunc func(stored models.RefreshToken, found bool) (next models.RefreshToken, keep bool, err error)

// RefreshToken repository interface
// Tokens live while the process is alive, they are never persisted
type RefreshTokenRepo interface {
	// Store token under its id
	// If a token with the same id exists it is replaced and returned as previous
	Put(token models.RefreshToken) (previous models.RefreshToken, replaced bool)

	// Return copy of the stored token
	Get(id string) (models.RefreshToken, bool)

	// Remove token and return the removed one
	Remove(id string) (models.RefreshToken, bool)

	// Read, decide and write token atomically
	// Operations on the same id are serialized, fn must not call the repo back
	Compute(id string, fn ComputeFunc) error

	// Remove tokens expired at now, returns how many were removed
	DeleteExpired(now time.Time) int
}
