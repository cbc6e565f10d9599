package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/visa-crm/internal/entity"
)

const leadColumns = `id, full_name, email, phone, company, message, source, status,
	onboarding_selector, onboarding_token_hash, onboarding_expires_at,
	approved_by, approved_at, rejection_reason, rejected_at, created_by,
	created_at, updated_at`

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		lead                            entity.Lead
		phone, company, message, source sql.NullString
		selector, tokenHash             sql.NullString
	)
	err := row.Scan(
		&lead.ID,
		&lead.FullName,
		&lead.Email,
		&phone,
		&company,
		&message,
		&source,
		&lead.Status,
		&selector,
		&tokenHash,
		&lead.OnboardingExpiresAt,
		&lead.ApprovedBy,
		&lead.ApprovedAt,
		&lead.RejectionReason,
		&lead.RejectedAt,
		&lead.CreatedBy,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.Phone = phone.String
	lead.Company = company.String
	lead.Message = message.String
	lead.Source = source.String
	lead.OnboardingSelector = selector.String
	lead.OnboardingTokenHash = tokenHash.String
	return &lead, nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (id, full_name, email, phone, company, message, source, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.FullName,
		lead.Email,
		nullString(lead.Phone),
		nullString(lead.Company),
		nullString(lead.Message),
		nullString(lead.Source),
		lead.Status,
		lead.CreatedBy,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	if !isUUID(id) {
		return nil, entity.ErrLeadNotFound
	}
	return r.findOne(ctx, r.DB, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
}

func (r *LeadRepository) FindByOnboardingSelector(ctx context.Context, selector string) (*entity.Lead, error) {
	if selector == "" {
		return nil, entity.ErrLeadNotFound
	}
	return r.findOne(ctx, r.DB, `SELECT `+leadColumns+` FROM leads WHERE onboarding_selector = $1`, selector)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *LeadRepository) findOne(ctx context.Context, q queryer, query string, args ...any) (*entity.Lead, error) {
	lead, err := scanLead(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select lead: %w", err)
	}
	return lead, nil
}

func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) (*entity.LeadPage, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)", n, n, n))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	page := &entity.LeadPage{Page: filter.Page, PerPage: filter.PerPage, Data: []entity.Lead{}}
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`+clause, args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}
	page.LastPage = (page.Total + filter.PerPage - 1) / filter.PerPage
	if page.LastPage < 1 {
		page.LastPage = 1
	}

	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)
	query := fmt.Sprintf(`SELECT %s FROM leads%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		leadColumns, clause, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		page.Data = append(page.Data, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return page, nil
}

// Update holds SELECT ... FOR UPDATE on the lead while mutate runs, so the
// status check and the write cannot interleave with another writer.
func (r *LeadRepository) Update(ctx context.Context, id string, mutate func(*entity.Lead) error) (*entity.Lead, error) {
	if !isUUID(id) {
		return nil, entity.ErrLeadNotFound
	}
	var lead *entity.Lead

	err := NewTransaction(r.DB).
		AddOperation("lock lead", func(ctx context.Context, tx *sql.Tx) error {
			var err error
			lead, err = r.findOne(ctx, tx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, id)
			return err
		}).
		AddOperation("apply change", func(ctx context.Context, tx *sql.Tx) error {
			return mutate(lead)
		}).
		AddOperation("save lead", func(ctx context.Context, tx *sql.Tx) error {
			return saveLead(ctx, tx, lead)
		}).
		Execute(ctx)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func saveLead(ctx context.Context, tx *sql.Tx, lead *entity.Lead) error {
	query := `
		UPDATE leads SET
			status = $2,
			onboarding_selector = $3,
			onboarding_token_hash = $4,
			onboarding_expires_at = $5,
			approved_by = $6,
			approved_at = $7,
			rejection_reason = $8,
			rejected_at = $9,
			updated_at = $10
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query,
		lead.ID,
		lead.Status,
		nullString(lead.OnboardingSelector),
		nullString(lead.OnboardingTokenHash),
		lead.OnboardingExpiresAt,
		lead.ApprovedBy,
		lead.ApprovedAt,
		lead.RejectionReason,
		lead.RejectedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return nil
}

// ClearStaleOnboarding drops the credential of APPROVED leads whose token
// expired before cutoff. The lead stays APPROVED.
func (r *LeadRepository) ClearStaleOnboarding(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE leads SET
			onboarding_selector = NULL,
			onboarding_token_hash = NULL,
			onboarding_expires_at = NULL,
			updated_at = NOW()
		WHERE status = 'APPROVED'
		  AND onboarding_expires_at IS NOT NULL
		  AND onboarding_expires_at < $1
	`
	res, err := r.DB.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("clear stale onboarding: %w", err)
	}
	return res.RowsAffected()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
