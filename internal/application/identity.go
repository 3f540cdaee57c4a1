package application

import (
	"context"
	"errors"

	"github.com/campusconnect/campus-connect/internal/domain/entity"
	repo "github.com/campusconnect/campus-connect/internal/domain/repository"
	"github.com/campusconnect/campus-connect/pkg/helpers"
)

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUnknownSubject    = errors.New("credential subject not found")
)

// IdentityResolver turns credentials into users for both HTTP requests and
// live connections.
type IdentityResolver struct {
	Creds *helpers.CredentialManager
	Users repo.UserRepository
}

func NewIdentityResolver(creds *helpers.CredentialManager, users repo.UserRepository) *IdentityResolver {
	return &IdentityResolver{Creds: creds, Users: users}
}

// ResolveSession accepts only session credentials.
func (r *IdentityResolver) ResolveSession(ctx context.Context, token string) (*entity.User, error) {
	claims, err := r.Creds.ParseSession(token)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	u, err := r.Users.GetUser(claims.UserID)
	if err != nil {
		return nil, ErrUnknownSubject
	}
	return u, nil
}

// ResolveVerification accepts only email-verification credentials.
func (r *IdentityResolver) ResolveVerification(ctx context.Context, token string) (*entity.User, error) {
	claims, err := r.Creds.ParseVerification(token)
	if err != nil {
		return nil, ErrInvalidCredential
	}
	u, err := r.Users.GetUserByEmail(claims.Email)
	if err != nil {
		return nil, ErrUnknownSubject
	}
	return u, nil
}
