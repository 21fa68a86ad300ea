package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nopadol/stockledger/internal/core/domain"
)

func TestAuthorize_UnknownBusiness(t *testing.T) {
	guard := NewAccessGuard(newMemRepo())

	err := guard.Authorize(context.Background(), "no-such-biz", "user-1", domain.RoleMember)
	if !errors.Is(err, domain.ErrBusinessNotFound) {
		t.Fatalf("expected ErrBusinessNotFound, got %v", err)
	}
}

func TestAuthorize_NoMembership(t *testing.T) {
	repo := newMemRepo()
	repo.seedBusiness("biz-1", "owner-1")
	guard := NewAccessGuard(repo)

	err := guard.Authorize(context.Background(), "biz-1", "stranger", domain.RoleMember)
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestAuthorize_MemberCannotActAsOwner(t *testing.T) {
	repo := newMemRepo()
	repo.seedBusiness("biz-1", "owner-1")
	repo.seedMember("biz-1", "member-1")
	guard := NewAccessGuard(repo)
	ctx := context.Background()

	if err := guard.Authorize(ctx, "biz-1", "member-1", domain.RoleMember); err != nil {
		t.Errorf("member-level access should pass, got %v", err)
	}
	if err := guard.Authorize(ctx, "biz-1", "member-1", domain.RoleOwner); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied for owner-level access, got %v", err)
	}
}

func TestAuthorize_OwnerMeetsEverything(t *testing.T) {
	repo := newMemRepo()
	repo.seedBusiness("biz-1", "owner-1")
	guard := NewAccessGuard(repo)
	ctx := context.Background()

	if err := guard.Authorize(ctx, "biz-1", "owner-1", domain.RoleOwner); err != nil {
		t.Errorf("owner-level access should pass, got %v", err)
	}
	if err := guard.Authorize(ctx, "biz-1", "owner-1", domain.RoleMember); err != nil {
		t.Errorf("member-level access should pass for owner, got %v", err)
	}
}
