package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/visa-crm/internal/entity"
)

// OnboardingRepository runs the lead conversion as one transaction.
type OnboardingRepository struct {
	DB    *sql.DB
	Leads *LeadRepository
}

func NewOnboardingRepository(db *sql.DB) *OnboardingRepository {
	return &OnboardingRepository{DB: db, Leads: NewLeadRepository(db)}
}

func (r *OnboardingRepository) Convert(ctx context.Context, c *entity.Conversion) error {
	var lead *entity.Lead

	return NewTransaction(r.DB).
		AddOperation("lock lead", func(ctx context.Context, tx *sql.Tx) error {
			var err error
			lead, err = r.Leads.findOne(ctx, tx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, c.LeadID)
			if err != nil {
				return err
			}
			// A concurrent redeemer may have cleared or replaced the credential.
			if lead.OnboardingSelector == "" || lead.OnboardingSelector != c.Selector {
				return entity.ErrOnboardingTokenNotFound
			}
			return lead.Convert(c.At)
		}).
		AddOperation("create user", func(ctx context.Context, tx *sql.Tx) error {
			return insertUser(ctx, tx, c.User)
		}).
		AddOperation("attach role", func(ctx context.Context, tx *sql.Tx) error {
			role, err := attachRole(ctx, tx, c.User.ID, c.Role)
			if err != nil {
				return err
			}
			if role != nil {
				c.User.Roles = append(c.User.Roles, *role)
			}
			return nil
		}).
		AddOperation("create contact", func(ctx context.Context, tx *sql.Tx) error {
			return insertContact(ctx, tx, c.Contact)
		}).
		AddOperation("convert lead", func(ctx context.Context, tx *sql.Tx) error {
			if err := saveLead(ctx, tx, lead); err != nil {
				return err
			}
			c.Lead = lead
			return nil
		}).
		Execute(ctx)
}

func insertContact(ctx context.Context, tx *sql.Tx, contact *entity.Contact) error {
	query := `
		INSERT INTO contacts (id, user_id, assigned_to, lead_id, company, primary_contact_name, email, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := tx.ExecContext(ctx, query,
		contact.ID,
		contact.UserID,
		contact.AssignedTo,
		contact.LeadID,
		nullString(contact.Company),
		contact.PrimaryContactName,
		contact.Email,
		nullString(contact.Phone),
		nullString(contact.Address),
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "contacts_lead_id_key") {
			return entity.ErrOnboardingTokenNotFound
		}
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}
