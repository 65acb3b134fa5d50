package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"terrastore/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Session pairs a freshly issued bearer token with its user. The raw token
// is returned exactly once; only its hash is stored.
type Session struct {
	Token string
	User  store.User
}

func (s *Service) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return Session{}, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, name, email, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Session{}, fmt.Errorf("%w: user already exists", ErrConflict)
		}
		return Session{}, err
	}

	return s.issueSession(ctx, user)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if store.IsNotFound(err) {
			return Session{}, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
		}
		return Session{}, err
	}
	if user.PasswordHash == "" {
		// Externally provisioned account with no local credential.
		return Session{}, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	return s.issueSession(ctx, user)
}

// ExternalLogin admits an identity verified by an external provider (LDAP).
// A local user row is ensured so file records have an owner to reference.
func (s *Service) ExternalLogin(ctx context.Context, displayName, email string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Session{}, fmt.Errorf("%w: external identity has no email", ErrInvalidInput)
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = email
	}

	user, err := s.store.EnsureUser(ctx, displayName, email)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) CurrentUser(ctx context.Context, userID uuid.UUID) (store.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return store.User{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return store.User{}, err
	}
	return user, nil
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	token, err := generateToken(32)
	if err != nil {
		return Session{}, fmt.Errorf("generate token: %w", err)
	}
	if err := s.store.CreateSessionToken(ctx, hashToken(token), user.ID); err != nil {
		return Session{}, fmt.Errorf("store session token: %w", err)
	}
	return Session{Token: token, User: user}, nil
}
