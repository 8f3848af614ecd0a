package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/storage"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// Options select the Firebase project resources to connect to
type Options struct {
	CredentialsPath string
	ProjectID       string
	// APIKey is the web API key used for password sign-in
	APIKey        string
	StorageBucket string
	// DatabaseID names a non-default Firestore database
	DatabaseID string
}

// App holds the initialized Firebase app and its service clients
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	Identity    *identitytoolkit.Service
}

// InitFirebase initializes the Firebase application, auth client and identity toolkit client
func InitFirebase(ctx context.Context, opts Options) (*App, error) {
	if opts.CredentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}
	if _, err := os.Stat(opts.CredentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", opts.CredentialsPath)
	}

	firebaseApp, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     opts.ProjectID,
		StorageBucket: opts.StorageBucket,
	}, option.WithCredentialsFile(opts.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	identity, err := identitytoolkit.NewService(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("error creating identity toolkit client: %w", err)
	}

	return &App{FirebaseApp: firebaseApp, AuthClient: authClient, Identity: identity}, nil
}

// Firestore opens a client for the configured database
func (a *App) Firestore(ctx context.Context, opts Options) (*firestore.Client, error) {
	if opts.DatabaseID == "" || opts.DatabaseID == firestore.DefaultDatabaseID {
		client, err := a.FirebaseApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting firestore client: %w", err)
		}
		return client, nil
	}

	client, err := firestore.NewClientWithDatabase(ctx, opts.ProjectID, opts.DatabaseID,
		option.WithCredentialsFile(opts.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client for %s: %w", opts.DatabaseID, err)
	}
	return client, nil
}

// Storage opens the Cloud Storage client
func (a *App) Storage(ctx context.Context) (*storage.Client, error) {
	client, err := a.FirebaseApp.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting storage client: %w", err)
	}
	return client, nil
}
