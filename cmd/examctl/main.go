// Command examctl authors exams from the terminal: it keeps local drafts and publishes them to the API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/noah-isme/assessment-api/internal/builder"
	"github.com/noah-isme/assessment-api/internal/client"
)

type config struct {
	APIURL    string        `env:"EXAMCTL_API_URL" envDefault:"http://localhost:5001/api"`
	StorePath string        `env:"EXAMCTL_STORE_PATH"`
	Timeout   time.Duration `env:"EXAMCTL_TIMEOUT" envDefault:"15s"`
	Debug     bool          `env:"EXAMCTL_DEBUG" envDefault:"false"`
}

func loadConfig() (*config, error) {
	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.StorePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.StorePath = filepath.Join(home, ".examctl", "store.db")
	}
	return &cfg, nil
}

func main() {
	log.SetFlags(0)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	store, err := builder.OpenSQLiteStore(cfg.StorePath, cfg.Debug)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}
	defer store.Close() //nolint:errcheck

	app := newApp(client.New(cfg.APIURL, cfg.Timeout), store, os.Stdout)
	if err := app.run(context.Background(), os.Args[1:]); err != nil {
		store.Close() //nolint:errcheck
		log.Fatalf("examctl: %v", err)
	}
}
