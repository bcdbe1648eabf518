package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nkiryanov/delivery/internal/apperrors"
	"github.com/nkiryanov/delivery/internal/logger"
	"github.com/nkiryanov/delivery/internal/models"
	"github.com/nkiryanov/delivery/internal/repository"
	"github.com/nkiryanov/delivery/internal/service/auth/keys"
	"github.com/nkiryanov/delivery/internal/service/auth/tokenmanager"
)

// Which subject goes to access tokens issued on refresh
type RefreshSubject string

const (
	// Refresh token id becomes the subject
	RefreshSubjectID RefreshSubject = "refresh-id"

	// Username that logged in becomes the subject, same as on login
	RefreshSubjectUsername RefreshSubject = "username"
)

func ParseRefreshSubject(s string) (RefreshSubject, error) {
	switch RefreshSubject(s) {
	case RefreshSubjectID, RefreshSubjectUsername:
		return RefreshSubject(s), nil
	case "":
		return RefreshSubjectID, nil
	default:
		return "", fmt.Errorf("unknown refresh subject %q, expected %q or %q", s, RefreshSubjectID, RefreshSubjectUsername)
	}
}

// Verifies username and password pair
// Has to return apperrors.ErrWrongCredentials if user not found or password does not match
type CredentialsVerifier interface {
	Verify(ctx context.Context, username string, password string) (models.User, error)
}

type Config struct {
	// Key pair to sign and verify access tokens
	Keys *keys.Pair

	// Access and refresh token lifetimes, defaults are used if not set
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Subject of access tokens issued on refresh, RefreshSubjectID if not set
	RefreshSubject RefreshSubject

	// Clock, time.Now if not set
	Now func() time.Time

	Logger logger.Logger
}

// Auth service
type AuthService struct {
	// Manager to issue and verify tokens
	tokens *tokenmanager.TokenManager

	// Users to verify credentials against
	users CredentialsVerifier

	// Refresh tokens of the live sessions
	sessions repository.RefreshTokenRepo

	subject RefreshSubject
	now     func() time.Time
	logger  logger.Logger
}

func NewService(cfg Config, users CredentialsVerifier, sessions repository.RefreshTokenRepo) (*AuthService, error) {
	if users == nil || sessions == nil {
		return nil, errors.New("users and sessions must not be nil")
	}

	subject, err := ParseRefreshSubject(string(cfg.RefreshSubject))
	if err != nil {
		return nil, err
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}

	tokens, err := tokenmanager.New(tokenmanager.Config{
		Keys:       cfg.Keys,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		Now:        cfg.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("can't create token manager. Err: %w", err)
	}

	return &AuthService{
		tokens:   tokens,
		users:    users,
		sessions: sessions,
		subject:  subject,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}, nil
}

// Login user and start new session
// Any credentials problem is reported as apperrors.ErrWrongCredentials
func (s *AuthService) Login(ctx context.Context, username string, password string) (models.TokenPair, error) {
	user, err := s.users.Verify(ctx, username, password)
	if err != nil {
		if !errors.Is(err, apperrors.ErrWrongCredentials) {
			s.logger.Error("Credentials verification failed", "username", username, "error", err)
		}
		return models.TokenPair{}, apperrors.ErrWrongCredentials
	}

	access, err := s.tokens.Issue(user.Username)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := s.tokens.NewRefresh(user.Username)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrTokenCreation, err)
	}

	if _, replaced := s.sessions.Put(refresh); replaced {
		s.logger.Warn("replacing old refresh token", "id", refresh.ID)
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Issue new access token for the presented refresh token
// The refresh token stays valid, it is not rotated
func (s *AuthService) Refresh(ctx context.Context, presented models.RefreshToken) (models.AccessToken, error) {
	var subject string

	err := s.sessions.Compute(presented.ID, func(stored models.RefreshToken, found bool) (models.RefreshToken, bool, error) {
		switch {
		case !found:
			return stored, false, apperrors.ErrWrongCredentials
		case !stored.Equal(presented):
			return stored, true, fmt.Errorf("%w: refresh token does not match", apperrors.ErrInvalidToken)
		case stored.Expired(s.now()):
			return stored, false, fmt.Errorf("%w: refresh token expired", apperrors.ErrInvalidToken)
		}

		subject = stored.ID
		if s.subject == RefreshSubjectUsername {
			subject = stored.Username
		}
		return stored, true, nil
	})
	if err != nil {
		return models.AccessToken{}, err
	}

	return s.tokens.Issue(subject)
}

// End the session of the presented refresh token
// After logout the token can't be used anymore
func (s *AuthService) Logout(ctx context.Context, presented models.RefreshToken) error {
	return s.sessions.Compute(presented.ID, func(stored models.RefreshToken, found bool) (models.RefreshToken, bool, error) {
		switch {
		case !found:
			return stored, false, apperrors.ErrWrongCredentials
		case !stored.Equal(presented):
			return stored, true, fmt.Errorf("%w: refresh token does not match", apperrors.ErrInvalidToken)
		}
		return stored, false, nil
	})
}

// Authenticate request by its bearer access token
func (s *AuthService) Authenticate(r *http.Request) (models.Claims, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, models.TokenTypeBearer) || token == "" {
		return models.Claims{}, fmt.Errorf("%w: bearer token expected in Authorization header", apperrors.ErrInvalidToken)
	}

	return s.tokens.Verify(strings.TrimSpace(token))
}

// Remove expired sessions every interval until ctx is done
// The returned channel is closed when cleanup stopped
func (s *AuthService) RunCleanup(ctx context.Context, interval time.Duration) <-chan struct{} {
	stopped := make(chan struct{})
	s.logger.Debug("Starting session cleanup", "interval", interval)

	go func() {
		defer close(stopped)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Session cleanup stopped by context")
				return

			case <-ticker.C:
				if n := s.sessions.DeleteExpired(s.now()); n > 0 {
					s.logger.Info("Expired sessions removed", "count", n)
				}
			}
		}
	}()

	return stopped
}
