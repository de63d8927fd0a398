// Package auth verifies admin credentials, registers admins and issues session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/crucial707/blog/internal/models"
	"github.com/crucial707/blog/internal/repo"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors for the auth service; handlers map them to HTTP statuses.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUsername  = errors.New("username already in use")
)

// UserStore is the minimal credential store needed by the auth service.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type Service struct {
	Users  UserStore
	Tokens *TokenIssuer
	Cost   int

	// dummyHash is compared against when the username is unknown so both
	// rejection paths spend the same bcrypt work.
	dummyHash []byte
}

// NewService clamps cost into bcrypt's accepted range.
func NewService(users UserStore, tokens *TokenIssuer, cost int) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &Service{Users: users, Tokens: tokens, Cost: cost, dummyHash: dummy}
}

// Login returns a session token for a valid username/password pair. Unknown
// usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.Users.GetByUsername(ctx, username)
	if errors.Is(err, repo.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Register hashes password and stores a new admin. Duplicates are detected by
// the store's unique constraint, not by a lookup first.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.Users.Create(ctx, username, string(hash))
	if errors.Is(err, repo.ErrDuplicateUsername) {
		return nil, ErrDuplicateUsername
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}
