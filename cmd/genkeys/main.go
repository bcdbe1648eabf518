package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/nkiryanov/delivery/internal/service/auth/keys"
)

// Write new P-256 key pair to PEM files
func run(args []string) error {
	fs := pflag.NewFlagSet("genkeys", pflag.ContinueOnError)
	privatePath := fs.String("private", "private.pem", "File to write private key to")
	publicPath := fs.String("public", "public.pem", "File to write public key to")
	force := fs.Bool("force", false, "Overwrite existing files")

	if err := fs.Parse(args); err != nil {
		return err
	}

	privatePEM, publicPEM, err := keys.Generate()
	if err != nil {
		return fmt.Errorf("error while generating key pair: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if *force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	write := func(path string, data []byte, perm os.FileMode) error {
		f, err := os.OpenFile(path, flags, perm)
		if err != nil {
			return err
		}
		_, err = f.Write(data)
		return errors.Join(err, f.Close())
	}

	if err := write(*privatePath, privatePEM, 0o600); err != nil {
		return fmt.Errorf("error while writing private key: %w", err)
	}
	if err := write(*publicPath, publicPEM, 0o644); err != nil {
		return fmt.Errorf("error while writing public key: %w", err)
	}

	fmt.Printf("keys written to %s and %s\n", *privatePath, *publicPath)
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
