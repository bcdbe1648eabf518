package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/delivery/internal/db"
	"github.com/nkiryanov/delivery/internal/repository/mongodb"
	"github.com/nkiryanov/delivery/internal/service/auth"
	"github.com/nkiryanov/delivery/internal/service/user"
)

// Create user in mongo
// Connection options are taken from .env and environment, same as for the server
func run(ctx context.Context, getenv func(string) string, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error while loading .env. Err: %w", err)
	}

	database := getenv("MONGODB_DATABASE")
	if database == "" {
		database = db.DefaultDatabase
	}

	fs := pflag.NewFlagSet("useradd", pflag.ContinueOnError)
	uri := fs.StringP("database", "d", getenv("MONGODB_URI"), "Mongo connection string")
	name := fs.StringP("database-name", "n", database, "Mongo database name")
	username := fs.StringP("username", "u", "", "Username")
	password := fs.StringP("password", "p", "", "Password")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uri == "" || *username == "" || *password == "" {
		return errors.New("database, username and password are required")
	}

	client, mdb, err := db.ConnectAndEnsureIndexes(ctx, *uri, *name)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background()) // nolint:errcheck

	created, err := user.NewService(auth.DefaultHasher, mongodb.NewUserRepo(mdb)).CreateUser(ctx, *username, *password)
	if err != nil {
		return err
	}

	fmt.Printf("user %s created with id %s\n", created.Username, created.ID)
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Getenv, os.Args[1:]); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
