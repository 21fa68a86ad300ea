package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nopadol/stockledger/internal/core/domain"
	"github.com/nopadol/stockledger/internal/port"
)

const (
	trialDuration   = 30 * 24 * time.Hour
	defaultCurrency = "USD"
	defaultTimezone = "UTC"
)

// BusinessService manages the business directory: creation against a trial
// code, membership, and membership-gated lookup.
type BusinessService struct {
	guard  *AccessGuard
	db     port.DatabaseRepository
	logger *zap.Logger
}

func NewBusinessService(guard *AccessGuard, db port.DatabaseRepository, logger *zap.Logger) *BusinessService {
	return &BusinessService{guard: guard, db: db, logger: logger}
}

type CreateBusinessInput struct {
	Name      string
	Currency  string
	Timezone  string
	TrialCode string
}

// CreateBusiness validates the trial code, creates the business with its owner
// membership, and marks the code used. The trial runs for 30 days.
func (s *BusinessService) CreateBusiness(ctx context.Context, ownerID string, in CreateBusinessInput) (*domain.Business, error) {
	if ownerID == "" {
		return nil, &domain.ValidationError{Field: "user_id", Reason: "required"}
	}
	if in.Name == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "required"}
	}
	if in.TrialCode == "" {
		return nil, &domain.ValidationError{Field: "trial_code", Reason: "required"}
	}

	now := time.Now().UTC()

	code, err := s.db.GetTrialCode(ctx, in.TrialCode)
	if err != nil {
		return nil, fmt.Errorf("load trial code: %w", err)
	}
	if code == nil || code.IsUsed {
		return nil, domain.ErrTrialCodeInvalid
	}
	if code.ExpiresAt != nil && code.ExpiresAt.Before(now) {
		return nil, domain.ErrTrialCodeInvalid
	}

	currency := in.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	timezone := in.Timezone
	if timezone == "" {
		timezone = defaultTimezone
	}

	business := domain.Business{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Name:           in.Name,
		Currency:       currency,
		Timezone:       timezone,
		TrialCodeUsed:  code.Code,
		TrialExpiresAt: now.Add(trialDuration),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	owner := domain.Membership{
		BusinessID: business.ID,
		UserID:     ownerID,
		Role:       domain.RoleOwner,
		CreatedAt:  now,
	}

	if err := s.db.CreateBusiness(ctx, business, owner); err != nil {
		return nil, fmt.Errorf("create business: %w", err)
	}

	if err := s.db.MarkTrialCodeUsed(ctx, code.Code, ownerID, now); err != nil {
		// The business already exists; an unmarked code is an accounting
		// problem, not a reason to fail the creation.
		s.logger.Warn("trial code not marked used",
			zap.String("code", code.Code),
			zap.Error(err))
	}

	s.logger.Info("business created",
		zap.String("business_id", business.ID),
		zap.String("owner_id", ownerID))

	return &business, nil
}

// GetBusiness returns the business if the user is its owner or a member.
func (s *BusinessService) GetBusiness(ctx context.Context, businessID, userID string) (*domain.Business, error) {
	if err := s.guard.Authorize(ctx, businessID, userID, domain.RoleMember); err != nil {
		return nil, err
	}
	business, err := s.db.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("load business: %w", err)
	}
	if business == nil {
		return nil, domain.ErrBusinessNotFound
	}
	return business, nil
}

// AddMember grants member-level access to a user. Owner-only.
func (s *BusinessService) AddMember(ctx context.Context, businessID, ownerID, newUserID string) (*domain.Membership, error) {
	if newUserID == "" {
		return nil, &domain.ValidationError{Field: "user_id", Reason: "required"}
	}
	if err := s.guard.Authorize(ctx, businessID, ownerID, domain.RoleOwner); err != nil {
		return nil, err
	}

	existing, err := s.db.GetMembership(ctx, businessID, newUserID)
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	if existing != nil {
		return nil, &domain.ValidationError{Field: "user_id", Reason: "already a member"}
	}

	membership := domain.Membership{
		BusinessID: businessID,
		UserID:     newUserID,
		Role:       domain.RoleMember,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.AddMembership(ctx, membership); err != nil {
		return nil, fmt.Errorf("add membership: %w", err)
	}

	s.logger.Info("member added",
		zap.String("business_id", businessID),
		zap.String("user_id", newUserID))

	return &membership, nil
}
