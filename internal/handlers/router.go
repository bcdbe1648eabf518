package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/delivery/internal/handlers/middleware"
	"github.com/nkiryanov/delivery/internal/logger"
	"github.com/nkiryanov/delivery/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(authService authService, logger logger.Logger) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService, func(w http.ResponseWriter, r *http.Request, err error) {
		renderAuthError(w, r, err, logger)
	})

	apiauth := http.NewServeMux()

	apiauth.Handle("POST /login", handleLogin(authService, logger))
	apiauth.Handle("POST /refresh", handleRefresh(authService, logger))
	apiauth.Handle("POST /logout", handleLogout(authService, logger))
	apiauth.Handle("GET /session", authMiddleware(handleSession()))

	root := http.NewServeMux()
	root.Handle("/auth/", http.StripPrefix("/auth", apiauth))

	handler := chain(root,
		middleware.RequestID,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Login user with username and password
	// Has to return apperrors.ErrWrongCredentials if user not found or password does not match
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Issue access token for the stored refresh token
	// If token not found: has to return apperrors.ErrWrongCredentials
	// If token does not match or expired: has to return apperrors.ErrInvalidToken
	Refresh(ctx context.Context, refresh models.RefreshToken) (models.AccessToken, error)

	// Remove the session of refresh token, errors are the same as for Refresh
	Logout(ctx context.Context, refresh models.RefreshToken) error

	// Get request and return access token claims if it authenticated or error
	Authenticate(r *http.Request) (models.Claims, error)
}
