package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nopadol/stockledger/internal/core/domain"
	"github.com/nopadol/stockledger/internal/port"
)

const minPasswordLength = 8

// UserService implements the authentication collaborator's account side:
// registration with a bcrypt-hashed password and login that exchanges
// credentials for a bearer token.
type UserService struct {
	db     port.DatabaseRepository
	tokens port.TokenIssuer
	logger *zap.Logger
}

func NewUserService(db port.DatabaseRepository, tokens port.TokenIssuer, logger *zap.Logger) *UserService {
	return &UserService{db: db, tokens: tokens, logger: logger}
}

func (s *UserService) Register(ctx context.Context, email, fullName, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, &domain.ValidationError{Field: "email", Reason: "required"}
	}
	if len(password) < minPasswordLength {
		return nil, &domain.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}

	existing, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if existing != nil {
		return nil, &domain.ValidationError{Field: "email", Reason: "already registered"}
	}

	var pw domain.Password
	if err := pw.Set(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: pw.Hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return &user, nil
}

// Login verifies the credentials and returns a bearer token for the user.
// Wrong email and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	pw := domain.Password{Hash: user.PasswordHash}
	match, err := pw.Matches(password)
	if err != nil {
		return "", nil, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}
