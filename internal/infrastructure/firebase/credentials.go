package firebaseauth

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/studygroup-api/internal/domain"
	"google.golang.org/api/option"
)

// authClient is the part of *auth.Client the store calls.
type authClient interface {
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	CustomToken(ctx context.Context, uid string) (string, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// CredentialStore adapts Firebase Authentication to the auth service.
type CredentialStore struct {
	client      authClient
	isNotFound  func(error) bool
	isEmailUsed func(error) bool
}

// New initialises a Firebase app from service-account JSON and returns a
// store bound to its Auth client.
func New(ctx context.Context, credentialsJSON []byte) (*CredentialStore, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("firebase: service account credentials are required")
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: init auth client: %w", err)
	}
	return newStore(client), nil
}

func newStore(client authClient) *CredentialStore {
	return &CredentialStore{
		client:      client,
		isNotFound:  auth.IsUserNotFound,
		isEmailUsed: auth.IsEmailAlreadyExists,
	}
}

func (s *CredentialStore) GetUserByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	u, err := s.client.GetUserByEmail(ctx, email)
	if err != nil {
		if s.isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", email, domain.ErrUserNotFound)
		}
		return nil, err
	}
	return toIdentity(u), nil
}

func (s *CredentialStore) CreateUser(ctx context.Context, email, password string) (*domain.Identity, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	u, err := s.client.CreateUser(ctx, params)
	if err != nil {
		if s.isEmailUsed(err) {
			return nil, fmt.Errorf("%s: %w", email, domain.ErrUserExists)
		}
		return nil, err
	}
	return toIdentity(u), nil
}

func (s *CredentialStore) CustomToken(ctx context.Context, uid string) (string, error) {
	return s.client.CustomToken(ctx, uid)
}

func (s *CredentialStore) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	tok, err := s.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", err
	}
	return tok.UID, nil
}

func toIdentity(u *auth.UserRecord) *domain.Identity {
	if u == nil || u.UserInfo == nil {
		return &domain.Identity{}
	}
	return &domain.Identity{UID: u.UID, Email: u.Email}
}
