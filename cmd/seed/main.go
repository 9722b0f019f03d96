// seed registers a demo account in the local dev database and prints a
// token for it.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/ErlanBelekov/jwt-auth/config"
	"github.com/ErlanBelekov/jwt-auth/internal/domain"
	"github.com/ErlanBelekov/jwt-auth/internal/email"
	"github.com/ErlanBelekov/jwt-auth/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/jwt-auth/internal/password"
	"github.com/ErlanBelekov/jwt-auth/internal/token"
	"github.com/ErlanBelekov/jwt-auth/internal/usecase"
)

const (
	seedEmail    = "seed@test.local"
	seedUsername = "seed"
	seedPassword = "SeedPass123"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set, run: direnv allow")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		log.Fatalf("migrate: %v", err)
	}

	hasher, err := password.New(password.Options{Algorithm: cfg.PasswordAlgorithm, BcryptCost: cfg.BcryptCost})
	if err != nil {
		pool.Close()
		log.Fatalf("password hasher: %v", err)
	}
	issuer, err := token.NewIssuer(token.Config{Secret: []byte(cfg.SecretKey), TTL: cfg.AccessTokenTTL})
	if err != nil {
		pool.Close()
		log.Fatalf("token issuer: %v", err)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := usecase.NewAuthUsecase(
		postgres.NewUserRepository(pool),
		password.NewPool(hasher, 1),
		issuer,
		email.NewSender("local", "", "", quiet),
		quiet,
	)

	status := "created"
	res, err := auth.Register(ctx, usecase.RegisterInput{
		Email:    seedEmail,
		Username: seedUsername,
		Password: seedPassword,
	})
	if errors.Is(err, domain.ErrDuplicateIdentity) {
		status = "already existed"
		res, err = auth.Login(ctx, usecase.LoginInput{Email: seedEmail, Password: seedPassword})
	}
	if err != nil {
		pool.Close()
		log.Fatalf("seed user: %v", err)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  User:       %s (%s)\n", seedEmail, status)
	fmt.Printf("  User ID:    %d\n", res.User.ID)
	fmt.Printf("  Password:   %s\n", seedPassword)
	fmt.Printf("  Expires at: %s\n", res.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Printf("    export JWT=%s\n", res.AccessToken)
	fmt.Printf("    curl -s http://localhost:%s/api/me -H \"Authorization: Bearer $JWT\"\n", cfg.Port)
	fmt.Println()
	fmt.Println("  Or log in again:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST http://localhost:%s/api/login \\\n", cfg.Port)
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"email\":\"%s\",\"password\":\"%s\"}'\n", seedEmail, seedPassword)

	if cfg.Env != "local" {
		fmt.Fprintln(os.Stderr, "warning: seeded a demo account outside ENV=local")
	}
}
