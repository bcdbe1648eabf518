package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/nkiryanov/delivery/internal/apperrors"
	"github.com/nkiryanov/delivery/internal/handlers/middleware"
	"github.com/nkiryanov/delivery/internal/handlers/render"
	"github.com/nkiryanov/delivery/internal/logger"
	"github.com/nkiryanov/delivery/internal/models"
)

// Refresh token as it travels over the wire
type refreshTokenPayload struct {
	ID     string `json:"id" validate:"required"`
	Secret string `json:"token" validate:"required"`
	Exp    int64  `json:"exp" validate:"required"`
}

func newRefreshTokenPayload(t models.RefreshToken) refreshTokenPayload {
	return refreshTokenPayload{ID: t.ID, Secret: t.Secret, Exp: t.ExpiresAt.Unix()}
}

func (p refreshTokenPayload) model() models.RefreshToken {
	return models.RefreshToken{ID: p.ID, Secret: p.Secret, ExpiresAt: time.Unix(p.Exp, 0).UTC()}
}

// Status and client message of authentication error
// ok is false if err is not an authentication error
func authErrorStatus(err error) (code int, message string, ok bool) {
	switch {
	case errors.Is(err, apperrors.ErrWrongCredentials):
		return http.StatusUnauthorized, "Wrong credentials", true
	case errors.Is(err, apperrors.ErrMissingCredentials):
		return http.StatusBadRequest, "Missing credentials", true
	case errors.Is(err, apperrors.ErrTokenCreation):
		return http.StatusInternalServerError, "Token creation error", true
	case errors.Is(err, apperrors.ErrInvalidToken):
		return http.StatusBadRequest, "Invalid token", true
	default:
		return http.StatusInternalServerError, "Internal server error", false
	}
}

// Log the cause and render the client safe error
func renderAuthError(w http.ResponseWriter, r *http.Request, err error, l logger.Logger) {
	code, message, ok := authErrorStatus(err)
	requestID := middleware.RequestIDFromContext(r.Context())

	switch {
	case !ok:
		l.Error("Auth request failed", "request_id", requestID, "error", err)
		render.ServiceError(w, message, code)
		return
	case code == http.StatusInternalServerError:
		l.Error("Auth request failed", "request_id", requestID, "error", err)
	default:
		l.Info("Auth request rejected", "request_id", requestID, "error", err)
	}

	render.AuthError(w, message, code)
}

func handleLogin(authService authService, logger logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required,min=3"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		AccessToken  string              `json:"access_token"`
		TokenType    string              `json:"token_type"`
		RefreshToken refreshTokenPayload `json:"refresh_token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			logger.Debug("Error while decoding login request", "error", err)
			return
		}

		pair, err := authService.Login(r.Context(), data.Username, data.Password)
		if err != nil {
			renderAuthError(w, r, err, logger)
			return
		}

		render.JSON(w, response{
			AccessToken:  pair.Access.Value,
			TokenType:    pair.Access.Type,
			RefreshToken: newRefreshTokenPayload(pair.Refresh),
		})
	})
}

func handleRefresh(authService authService, logger logger.Logger) http.Handler {
	type response struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[refreshTokenPayload](w, r)
		if err != nil {
			logger.Debug("Error while decoding refresh request", "error", err)
			return
		}

		access, err := authService.Refresh(r.Context(), data.model())
		if err != nil {
			renderAuthError(w, r, err, logger)
			return
		}

		render.JSON(w, response{AccessToken: access.Value, TokenType: access.Type})
	})
}

func handleLogout(authService authService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[refreshTokenPayload](w, r)
		if err != nil {
			logger.Debug("Error while decoding logout request", "error", err)
			return
		}

		err = authService.Logout(r.Context(), data.model())
		if err != nil {
			renderAuthError(w, r, err, logger)
			return
		}

		render.NoContent(w)
	})
}
