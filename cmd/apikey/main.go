// Command apikey mints an API key and stores its hash. The raw key is
// printed once and cannot be recovered afterwards.
//
//	apikey -name intake-service -scopes intake
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/kiranshivaraju/recruitflow/internal/apikey"
	"github.com/kiranshivaraju/recruitflow/internal/config"
	"github.com/kiranshivaraju/recruitflow/internal/store"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

type keyCreator interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("apikey failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("apikey", flag.ContinueOnError)
	name := fs.String("name", "", "human-readable key name")
	scopes := fs.String("scopes", "", "comma-separated scopes: intake, pipeline, read, admin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_ = godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := store.Connect(ctx, config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return mint(ctx, store.NewPostgresStore(pool), *name, *scopes, out)
}

func mint(ctx context.Context, kc keyCreator, name, rawScopes string, out io.Writer) error {
	scopes, err := apikey.ParseScopes(rawScopes)
	if err != nil {
		return err
	}

	raw, key, err := apikey.Mint(name, scopes)
	if err != nil {
		return err
	}
	if err := kc.CreateAPIKey(ctx, key); err != nil {
		return fmt.Errorf("store key: %w", err)
	}

	slog.Info("api key created", "id", key.ID, "name", key.Name, "prefix", key.KeyPrefix, "scopes", key.Scopes)
	_, err = fmt.Fprintln(out, raw)
	return err
}
