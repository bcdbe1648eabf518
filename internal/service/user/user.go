package user

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nkiryanov/delivery/internal/apperrors"
	"github.com/nkiryanov/delivery/internal/models"
	"github.com/nkiryanov/delivery/internal/repository"
	"github.com/nkiryanov/delivery/internal/service/auth"
)

type UserService struct {
	hasher   auth.PasswordHasher
	userRepo repository.UserRepo

	// Hash to compare with when user is not found
	// So unknown usernames take as long as wrong passwords
	dummyOnce sync.Once
	dummyHash string
}

func NewService(hasher auth.PasswordHasher, userRepo repository.UserRepo) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:   hasher,
		userRepo: userRepo,
	}
}

func (s *UserService) CreateUser(ctx context.Context, username string, password string) (models.User, error) {
	var user models.User
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user, err = s.userRepo.CreateUser(ctx, username, hash)
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

// Verify user credentials
// Returns apperrors.ErrWrongCredentials if user not found or password does not match
func (s *UserService) Verify(ctx context.Context, username string, password string) (models.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.dummy(), password)
		return models.User{}, apperrors.ErrWrongCredentials
	case err != nil:
		return models.User{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", apperrors.ErrWrongCredentials, err)
	}

	return user, nil
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("dummy-password")
	})
	return s.dummyHash
}
