package testutil

import (
	"context"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/nkiryanov/delivery/internal/db"
	"github.com/nkiryanov/delivery/internal/service/auth/keys"
)

// Return random free port on 127.0.0.1 address
func RandomPort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		return 0, err
	}
	defer ln.Close() // nolint:errcheck

	addr := ln.Addr().(*net.TCPAddr)
	return addr.Port, nil
}

type KeyPairFiles struct {
	PrivatePath string
	PublicPath  string
}

// Generate P-256 key pair and save it as PEM files in test temp dir
func WriteKeyPair(t *testing.T) KeyPairFiles {
	t.Helper()

	privatePEM, publicPEM, err := keys.Generate()
	require.NoError(t, err, "Error happened when generating key pair")

	dir := t.TempDir()
	files := KeyPairFiles{
		PrivatePath: filepath.Join(dir, "private.pem"),
		PublicPath:  filepath.Join(dir, "public.pem"),
	}
	require.NoError(t, os.WriteFile(files.PrivatePath, privatePEM, 0o600))
	require.NoError(t, os.WriteFile(files.PublicPath, publicPEM, 0o644))

	return files
}

type MongoContainer struct {
	URI       string
	Client    *mongo.Client
	Database  *mongo.Database
	Terminate func()
}

// Start container with mongo
// Skip the test if docker is not available
// Stop if error happened, so you may be sure container started ok
// Should be stopped when tests stopped
func StartMongoContainer(t *testing.T) MongoContainer {
	t.Helper()

	cmd := exec.Command("docker", "info", "--format", "{{.ServerVersion}}")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Skipf("docker not available or not running, skip test with mongo. Out: %s", out)
	}

	container, err := mongodb.Run(t.Context(), "mongo:8")
	require.NoError(t, err, "Error happened when starting container with mongo, deal with it please")

	uri, err := container.ConnectionString(t.Context())
	require.NoError(t, err, "Error happened when getting connection string from container with mongo")
	t.Logf("Container with mongo started, URI=%v", uri)

	client, database, err := db.ConnectAndEnsureIndexes(t.Context(), uri, "delivery-test")
	require.NoError(t, err, "Error happened when connecting to mongo and creating indexes")

	return MongoContainer{
		URI:      uri,
		Client:   client,
		Database: database,
		Terminate: func() {
			_ = client.Disconnect(context.Background())
			testcontainers.CleanupContainer(t, container)
		},
	}
}
