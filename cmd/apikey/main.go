package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mnhs-dev/registrar-backend/internal/apikeys"
	"github.com/mnhs-dev/registrar-backend/pkg/config"
	"github.com/mnhs-dev/registrar-backend/pkg/db"
	"github.com/mnhs-dev/registrar-backend/pkg/logger"
)

// Creates and lists API keys. The raw key is printed exactly once at
// creation; only its name and lifecycle fields are recoverable afterwards.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "apikey"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "create", "command: create|list")
	name := flag.String("name", "", "key name (for create)")
	expires := flag.String("expires", "", "expiry timestamp RFC3339, empty for non-expiring (for create)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "apikey",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	svc, err := apikeys.NewService(apikeys.NewRepository(dbClient.DB()), logg, nil)
	if err != nil {
		logg.Error(ctx, "failed to create api key service", err)
		os.Exit(1)
	}

	switch *cmd {
	case "create":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			os.Exit(1)
		}

		var expiresAt *time.Time
		if *expires != "" {
			parsed, err := time.Parse(time.RFC3339, *expires)
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid -expires value %q: %v\n", *expires, err)
				os.Exit(1)
			}
			expiresAt = &parsed
		}

		key, err := svc.Create(ctx, *name, expiresAt)
		if err != nil {
			logg.Error(ctx, "failed to create api key", err)
			os.Exit(1)
		}

		fmt.Println("name: ", key.Name)
		fmt.Println("key:  ", key.Key)
		if key.ExpiresAt != nil {
			fmt.Println("expires:", key.ExpiresAt.Format(time.RFC3339))
		} else {
			fmt.Println("expires: never")
		}
		fmt.Println("store this key now; it cannot be shown again")

	case "list":
		keys, err := svc.List(ctx)
		if err != nil {
			logg.Error(ctx, "failed to list api keys", err)
			os.Exit(1)
		}
		for _, key := range keys {
			state := "active"
			if !key.ValidAt(time.Now()) {
				state = "inactive"
			}
			expiry := "never"
			if key.ExpiresAt != nil {
				expiry = key.ExpiresAt.Format(time.RFC3339)
			}
			fmt.Printf("%s\t%s\t%s\texpires=%s\n", key.ID, key.Name, state, expiry)
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
}
