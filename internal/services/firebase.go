package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var ErrFirebaseNotConfigured = errors.New("firebase credentials not configured")

// InitFirebase builds the auth client that verifies admin ID tokens and session cookies.
// A missing credentials file yields ErrFirebaseNotConfigured so callers can run with
// admin auth unavailable.
func InitFirebase(ctx context.Context, credPath string) (*auth.Client, error) {
	if credPath == "" {
		return nil, ErrFirebaseNotConfigured
	}
	if _, err := os.Stat(credPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFirebaseNotConfigured, err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credPath))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return client, nil
}
