package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entidade: Contact
type Contact struct {
	ID                 string  `json:"id"`
	UserID             *string `json:"user_id,omitempty"`
	AssignedTo         *string `json:"assigned_to,omitempty"`
	LeadID             *string `json:"lead_id,omitempty"`
	Company            string  `json:"company,omitempty"`
	PrimaryContactName string  `json:"primary_contact_name"`
	Email              string  `json:"email"`
	Phone              string  `json:"phone,omitempty"`
	Address            string  `json:"address,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactDetails carries the optional fields a lead supplies when finishing
// onboarding. Non-empty values win over what the lead originally submitted.
type ContactDetails struct {
	Phone   string
	Company string
	Address string
}

// Factory
func NewContactFromLead(lead *Lead, userID string, details ContactDetails, now time.Time) (*Contact, error) {
	leadID := lead.ID
	uid := userID

	contact := &Contact{
		ID:                 uuid.New().String(),
		UserID:             &uid,
		LeadID:             &leadID,
		PrimaryContactName: lead.FullName,
		Email:              lead.Email,
		Phone:              firstNonEmpty(details.Phone, lead.Phone),
		Company:            firstNonEmpty(details.Company, lead.Company),
		Address:            strings.TrimSpace(details.Address),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := contact.Validate(); err != nil {
		return nil, err
	}
	return contact, nil
}

func (c *Contact) Validate() error {
	if c.PrimaryContactName == "" {
		return errors.New("primary contact name is required")
	}
	if c.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
