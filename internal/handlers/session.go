package handlers

import (
	"net/http"

	"github.com/nkiryanov/delivery/internal/handlers/claimsctx"
	"github.com/nkiryanov/delivery/internal/handlers/render"
)

// Describe the session of the access token
// Has to be wrapped with auth middleware
func handleSession() http.Handler {
	type response struct {
		Subject   string `json:"subject"`
		ExpiresAt int64  `json:"exp"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsctx.FromContext(r.Context())
		render.JSON(w, response{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Unix()})
	})
}
