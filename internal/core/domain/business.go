package domain

import "time"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Meets reports whether r grants at least the rights of required. Owners hold
// every right a member does.
func (r Role) Meets(required Role) bool {
	if required == RoleOwner {
		return r == RoleOwner
	}
	return r == RoleOwner || r == RoleMember
}

type Business struct {
	ID             string    `db:"id" json:"id"`
	OwnerID        string    `db:"owner_id" json:"owner_id"`
	Name           string    `db:"name" json:"name"`
	Currency       string    `db:"currency" json:"currency"`
	Timezone       string    `db:"timezone" json:"timezone"`
	TrialCodeUsed  string    `db:"trial_code_used" json:"trial_code_used"`
	TrialExpiresAt time.Time `db:"trial_expires_at" json:"trial_expires_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Membership ties a user to a business. Every catalog and ledger operation is
// scoped by business and requires a membership row for the acting user.
type Membership struct {
	BusinessID string    `db:"business_id" json:"business_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Role       Role      `db:"role" json:"role"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type TrialCode struct {
	Code      string     `db:"code" json:"code"`
	IsUsed    bool       `db:"is_used" json:"is_used"`
	UsedBy    *string    `db:"used_by" json:"used_by,omitempty"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
