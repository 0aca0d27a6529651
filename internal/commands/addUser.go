package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"

	"boltalka/internal/auth"
	"boltalka/internal/config"
	"boltalka/internal/content"
	"boltalka/internal/models"
	"boltalka/internal/storage"
)

// AddUser provisions a new identity directly in the store and prints the
// generated credentials. Meant for operator use on the host running the
// server, while the server itself is stopped.
func AddUser(ctx context.Context, name, email string, cfg *config.Config) error {
	if err := content.ValidateName(name); err != nil {
		return err
	}

	store, err := storage.NewBboltStorage(cfg.DBFile)
	if err != nil {
		return fmt.Errorf("failed to open store: %w. Is the server running?", err)
	}
	defer func() { _ = store.Close() }()

	password, err := randomPassword()
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := models.User{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
	}
	if err := store.UpsertUser(user, hash); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("\nUser Created Successfully!\n")
	fmt.Printf("ID:       %s\n", user.ID)
	fmt.Printf("Name:     %s\n", user.Name)
	if email != "" {
		fmt.Printf("Email:    %s\n", email)
	}
	fmt.Printf("Password: %s\n", password)

	// With a signing secret at hand we can also mint a ready-to-use
	// connection token.
	if cfg.JWTSecret != "" {
		authenticator, err := auth.NewAuthenticator(ctx, auth.Config{
			Secret:      cfg.JWTSecret,
			TokenExpiry: cfg.TokenExpiry,
		}, store)
		if err != nil {
			return err
		}
		token, err := authenticator.GenerateToken(user.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Token:    %s\n", token)
	}

	return nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
