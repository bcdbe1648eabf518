package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

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

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger          logger.Logger
	mongo           *mongo.Client
	authService     *auth.AuthService
	cleanupInterval time.Duration
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Keys are loaded before anything else: without them the service is useless
	pair, err := keys.Load(c.PrivateKeyPath, c.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("error while loading key pair. Err: %w", err)
	}

	// Connect to the database and create indexes
	client, database, err := db.ConnectAndEnsureIndexes(ctx, c.MongoURI, c.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize services
	userService := user.NewService(auth.DefaultHasher, mongodb.NewUserRepo(database))
	authService, err := auth.NewService(auth.Config{
		Keys:           pair,
		RefreshSubject: auth.RefreshSubject(c.RefreshSubject),
		Logger:         logger,
	}, userService, memory.NewRefreshTokenRepo())
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	return &ServerApp{
		ListenAddr:      c.ListenAddr,
		Handler:         handlers.NewRouter(authService, logger),
		logger:          logger,
		mongo:           client,
		authService:     authService,
		cleanupInterval: c.CleanupInterval,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	cleanupStopped := s.authService.RunCleanup(srvCtx, s.cleanupInterval)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-cleanupStopped

	if dErr := s.mongo.Disconnect(context.Background()); dErr != nil {
		s.logger.Warn("Error while disconnecting from db", "error", dErr)
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
