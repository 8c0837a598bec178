// Command createuser creates or updates an editor account from the
// environment. Run once after deploy:
//
//	EDITOR_EMAIL=admin@example.com EDITOR_PASSWORD=... go run ./cmd/createuser
package main

import (
	"context"
	"log"
	"os"

	"gridbase/internal/auth"
	"gridbase/internal/config"
	"gridbase/internal/store"
)

func main() {
	email := os.Getenv("EDITOR_EMAIL")
	password := os.Getenv("EDITOR_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("EDITOR_EMAIL and EDITOR_PASSWORD must be set")
	}
	if password == "changeme" {
		log.Fatal("Refusing to create a user with a placeholder password")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := store.New(ctx, cfg.Database, cfg.SecretKey)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap system tables: %v", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	created, err := db.UpsertUser(ctx, email, hash, true)
	if err != nil {
		log.Fatalf("Failed to save user: %v", err)
	}
	if created {
		log.Printf("Created user %s", email)
	} else {
		log.Printf("Updated user %s", email)
	}
}
