package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/nkiryanov/delivery/internal/db"
	"github.com/nkiryanov/delivery/internal/handlers"
	"github.com/nkiryanov/delivery/internal/logger"
	"github.com/nkiryanov/delivery/internal/repository/memory"
	"github.com/nkiryanov/delivery/internal/repository/mongodb"
	"github.com/nkiryanov/delivery/internal/service/auth"
	"github.com/nkiryanov/delivery/internal/service/auth/keys"
	"github.com/nkiryanov/delivery/internal/service/user"
)

type Services struct {
	AuthService *auth.AuthService
	UserService *user.UserService
	Sessions    *memory.RefreshTokenRepo
}

// Cheap hasher parameters, e2e tests do not need strong hashes
var testHasher = auth.Argon2Hasher{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

// Run server with production services on top of the mongo database
// The user collection is emptied before fn is called, so each call starts clean
func Serve(database *mongo.Database, t *testing.T, cfg auth.Config, fn func(srvURL string, services Services)) {
	_, err := database.Collection(db.UserCollection).DeleteMany(t.Context(), bson.D{})
	require.NoError(t, err, "user collection has to be cleaned")

	if cfg.Keys == nil {
		privatePEM, publicPEM, err := keys.Generate()
		require.NoError(t, err)
		cfg.Keys, err = keys.Parse(privatePEM, publicPEM)
		require.NoError(t, err)
	}

	// Initialize repositories
	userRepo := mongodb.NewUserRepo(database)
	sessions := memory.NewRefreshTokenRepo()

	// Initialize services
	us := user.NewService(testHasher, userRepo)
	as, err := auth.NewService(cfg, us, sessions)
	require.NoError(t, err, "auth service starting error")

	// Run http server with the router
	srv := httptest.NewServer(handlers.NewRouter(as, logger.NewNoOpLogger()))
	defer srv.Close()

	fn(srv.URL, Services{
		AuthService: as,
		UserService: us,
		Sessions:    sessions,
	})
}
