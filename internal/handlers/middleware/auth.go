package middleware

import (
	"net/http"

	"github.com/nkiryanov/delivery/internal/handlers/claimsctx"
	"github.com/nkiryanov/delivery/internal/models"
)

type authService interface {
	Authenticate(r *http.Request) (models.Claims, error)
}

// Called to render the authentication failure
type ErrorRenderer func(w http.ResponseWriter, r *http.Request, err error)

// Let request through only when it has valid access token
// Claims of the token are put to the request context
func AuthMiddleware(as authService, onError ErrorRenderer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := as.Authenticate(r)
			if err != nil {
				onError(w, r, err)
				return
			}
			ctx := claimsctx.New(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
