package service

import (
	"context"
	"fmt"

	"github.com/nopadol/stockledger/internal/core/domain"
	"github.com/nopadol/stockledger/internal/port"
)

// AccessGuard decides whether a user may act on a business's catalog and
// ledger. It owns no state; membership rows are the source of truth. Every
// catalog and ledger operation goes through Authorize before touching data.
type AccessGuard struct {
	db port.DatabaseRepository
}

func NewAccessGuard(db port.DatabaseRepository) *AccessGuard {
	return &AccessGuard{db: db}
}

// Authorize returns domain.ErrBusinessNotFound when the business does not
// exist, domain.ErrAccessDenied when the user has no membership row or the
// role does not meet required, and nil otherwise.
func (g *AccessGuard) Authorize(ctx context.Context, businessID, userID string, required domain.Role) error {
	business, err := g.db.GetBusiness(ctx, businessID)
	if err != nil {
		return fmt.Errorf("load business: %w", err)
	}
	if business == nil {
		return domain.ErrBusinessNotFound
	}

	membership, err := g.db.GetMembership(ctx, businessID, userID)
	if err != nil {
		return fmt.Errorf("load membership: %w", err)
	}
	if membership == nil || !membership.Role.Meets(required) {
		return domain.ErrAccessDenied
	}

	return nil
}
