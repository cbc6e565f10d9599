package entity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "NEW"
	LeadStatusUnderReview LeadStatus = "UNDER_REVIEW"
	LeadStatusApproved    LeadStatus = "APPROVED"
	LeadStatusRejected    LeadStatus = "REJECTED"
	LeadStatusConverted   LeadStatus = "CONVERTED"
)

func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusUnderReview, LeadStatusApproved, LeadStatusRejected, LeadStatusConverted:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s LeadStatus) IsTerminal() bool {
	return s == LeadStatusRejected || s == LeadStatusConverted
}

// OnboardingCredential is the stored half of an onboarding token. The
// plaintext verifier never reaches this struct.
type OnboardingCredential struct {
	Selector  string
	Hash      string
	ExpiresAt time.Time
}

type Lead struct {
	ID       string     `json:"id"`
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
	Phone    string     `json:"phone,omitempty"`
	Company  string     `json:"company,omitempty"`
	Message  string     `json:"message,omitempty"`
	Source   string     `json:"source,omitempty"`
	Status   LeadStatus `json:"status"`

	OnboardingSelector  string     `json:"-"`
	OnboardingTokenHash string     `json:"-"`
	OnboardingExpiresAt *time.Time `json:"onboarding_expires_at,omitempty"`

	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	CreatedBy       *string    `json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLead builds a lead in the NEW state with a random, non-sequential id.
func NewLead(fullName, email, phone, company, message, source string, now time.Time) *Lead {
	return &Lead{
		ID:        uuid.New().String(),
		FullName:  strings.TrimSpace(fullName),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Phone:     strings.TrimSpace(phone),
		Company:   strings.TrimSpace(company),
		Message:   message,
		Source:    strings.TrimSpace(source),
		Status:    LeadStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (l *Lead) CanBeReviewed() bool {
	return l.Status == LeadStatusNew || l.Status == LeadStatusUnderReview
}

// HasPendingOnboarding reports whether an unredeemed credential is attached.
func (l *Lead) HasPendingOnboarding() bool {
	return l.OnboardingTokenHash != "" && l.OnboardingExpiresAt != nil
}

// StartReview moves a NEW lead into UNDER_REVIEW.
func (l *Lead) StartReview(now time.Time) error {
	if l.Status != LeadStatusNew {
		return ErrInvalidTransition
	}
	l.Status = LeadStatusUnderReview
	l.UpdatedAt = now
	return nil
}

func (l *Lead) Approve(cred OnboardingCredential, approverID string, now time.Time) error {
	if !l.CanBeReviewed() {
		return ErrInvalidTransition
	}

	expiresAt := cred.ExpiresAt
	approvedAt := now
	l.Status = LeadStatusApproved
	l.OnboardingSelector = cred.Selector
	l.OnboardingTokenHash = cred.Hash
	l.OnboardingExpiresAt = &expiresAt
	l.ApprovedAt = &approvedAt
	l.ApprovedBy = nil
	if approverID != "" {
		id := approverID
		l.ApprovedBy = &id
	}
	l.RejectionReason = nil
	l.RejectedAt = nil
	l.UpdatedAt = now
	return nil
}

func (l *Lead) Reject(reason string, now time.Time) error {
	if !l.CanBeReviewed() {
		return ErrInvalidTransition
	}

	rejectedAt := now
	l.Status = LeadStatusRejected
	l.RejectedAt = &rejectedAt
	l.RejectionReason = nil
	if r := strings.TrimSpace(reason); r != "" {
		l.RejectionReason = &r
	}
	l.UpdatedAt = now
	return nil
}

// CheckRedeemable applies the redemption guards in order: expiry first,
// then status.
func (l *Lead) CheckRedeemable(now time.Time) error {
	if l.OnboardingExpiresAt != nil && l.OnboardingExpiresAt.Before(now) {
		return ErrOnboardingExpired
	}
	if l.Status != LeadStatusApproved {
		return ErrInvalidTransition
	}
	return nil
}

// Convert marks the lead as redeemed and drops the credential.
func (l *Lead) Convert(now time.Time) error {
	if err := l.CheckRedeemable(now); err != nil {
		return err
	}
	l.Status = LeadStatusConverted
	l.ClearOnboarding()
	l.UpdatedAt = now
	return nil
}

func (l *Lead) ClearOnboarding() {
	l.OnboardingSelector = ""
	l.OnboardingTokenHash = ""
	l.OnboardingExpiresAt = nil
}

type LeadFilter struct {
	Status  LeadStatus
	Search  string
	Page    int
	PerPage int
}

type LeadPage struct {
	Data     []Lead `json:"data"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
	LastPage int    `json:"last_page"`
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	FindByOnboardingSelector(ctx context.Context, selector string) (*Lead, error)
	List(ctx context.Context, filter LeadFilter) (*LeadPage, error)

	// Update loads the lead under a row lock, applies mutate and persists the
	// result in the same transaction. mutate errors abort without writing.
	Update(ctx context.Context, id string, mutate func(*Lead) error) (*Lead, error)
}
