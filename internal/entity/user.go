package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           string   `json:"id"`
	LeadID       *string  `json:"lead_id,omitempty"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	IsActive     bool     `json:"is_active"`
	Roles        []Role   `json:"roles"`
	Contact      *Contact `json:"contact,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCustomerUser creates the account a converted lead signs in with.
func NewCustomerUser(lead *Lead, passwordHash string, now time.Time) *User {
	leadID := lead.ID
	return &User{
		ID:           uuid.New().String(),
		LeadID:       &leadID,
		Name:         lead.FullName,
		Email:        lead.Email,
		PasswordHash: passwordHash,
		IsActive:     true,
		Roles:        []Role{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func NewStaffUser(name, email, passwordHash string, now time.Time) *User {
	return &User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		Roles:        []Role{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (u *User) RoleSlugs() []RoleSlug {
	slugs := make([]RoleSlug, 0, len(u.Roles))
	for _, r := range u.Roles {
		slugs = append(slugs, r.Slug)
	}
	return slugs
}

func (u *User) HasRole(slug RoleSlug) bool {
	for _, r := range u.Roles {
		if r.Slug == slug {
			return true
		}
	}
	return false
}

type UserRepositoryInterface interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)

	// CreateWithRoles inserts u and attaches the named roles that exist.
	CreateWithRoles(ctx context.Context, u *User, roles []RoleSlug) error
}

// Conversion is everything the onboarding repository needs to turn an
// approved lead into a customer in one transaction.
type Conversion struct {
	LeadID   string
	Selector string
	User     *User
	Contact  *Contact
	Role     RoleSlug
	At       time.Time

	// Lead holds the converted lead once Convert succeeds.
	Lead *Lead
}

type OnboardingRepositoryInterface interface {
	// Convert re-checks the lead under a row lock and, when it is still
	// redeemable with the same selector, creates the user, attaches the role,
	// creates the contact and marks the lead CONVERTED. Nothing is written
	// when any step fails.
	Convert(ctx context.Context, c *Conversion) error
}
