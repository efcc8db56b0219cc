package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and auth client
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// InitFirebase initializes the Firebase application and authentication client
func InitFirebase(ctx context.Context, credentialsPath string, logger logrus.FieldLogger) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	// Check if the credentials file exists
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	logger.Info("Firebase app and auth client initialized successfully!")
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient}, nil
}

// InitAuthClient picks the token verifier for the API. With a credentials
// path it returns the Firebase auth client. Without one it returns nil, and
// requests are authenticated with JWTs signed by jwtSecret instead; having
// neither is an error.
func InitAuthClient(ctx context.Context, credentialsPath, jwtSecret string, logger logrus.FieldLogger) (*auth.Client, error) {
	if credentialsPath == "" {
		if jwtSecret == "" {
			return nil, fmt.Errorf("either a firebase credentials path or a JWT secret must be set")
		}
		logger.Info("Firebase credentials not configured, using JWT authentication")
		return nil, nil
	}
	app, err := InitFirebase(ctx, credentialsPath, logger)
	if err != nil {
		return nil, err
	}
	return app.AuthClient, nil
}
