// Package localauth is a self-hosted stand-in for Firebase Authentication,
// used in development against LocalStack. Users live in DynamoDB and custom
// tokens are RS256 JWTs.
package localauth

import (
	"context"
	"fmt"
	"time"

	"github.com/studygroup-api/internal/domain"
	jwtinfra "github.com/studygroup-api/internal/infrastructure/jwt"
	"github.com/studygroup-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

type userRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.LocalUser, error)
	Put(ctx context.Context, u *domain.LocalUser) error
}

type tokenSigner interface {
	Sign(uid string) (string, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// CredentialStore implements the credential-store contract on local storage.
type CredentialStore struct {
	users  userRepository
	tokens tokenSigner
}

func New(users userRepository, tokens tokenSigner) *CredentialStore {
	return &CredentialStore{users: users, tokens: tokens}
}

func (s *CredentialStore) GetUserByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{UID: u.UserID, Email: u.Email}, nil
}

func (s *CredentialStore) CreateUser(ctx context.Context, email, password string) (*domain.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.LocalUser{
		UserID:       id.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &domain.Identity{UID: u.UserID, Email: u.Email}, nil
}

func (s *CredentialStore) CustomToken(_ context.Context, uid string) (string, error) {
	return s.tokens.Sign(uid)
}

func (s *CredentialStore) VerifyIDToken(_ context.Context, idToken string) (string, error) {
	claims, err := s.tokens.Verify(idToken)
	if err != nil {
		return "", err
	}
	return claims.UID, nil
}
