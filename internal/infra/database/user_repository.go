package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/visa-crm/internal/entity"
)

const userColumns = `id, lead_id, name, email, password_hash, is_active, created_at, updated_at`

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*entity.User, error) {
	var u entity.User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.LeadID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}

	roles, err := loadRoles(ctx, r.DB, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return &u, nil
}

func (r *UserRepository) CreateWithRoles(ctx context.Context, u *entity.User, roles []entity.RoleSlug) error {
	tx := NewTransaction(r.DB).
		AddOperation("insert user", func(ctx context.Context, tx *sql.Tx) error {
			return insertUser(ctx, tx, u)
		})
	for _, slug := range roles {
		tx.AddOperation("attach role "+string(slug), func(ctx context.Context, tx *sql.Tx) error {
			role, err := attachRole(ctx, tx, u.ID, slug)
			if err != nil {
				return err
			}
			if role != nil {
				u.Roles = append(u.Roles, *role)
			}
			return nil
		})
	}
	return tx.Execute(ctx)
}

type execQueryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertUser(ctx context.Context, tx execQueryer, u *entity.User) error {
	query := `
		INSERT INTO users (id, lead_id, name, email, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		u.ID,
		u.LeadID,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.IsActive,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return entity.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// attachRole links the role with the given slug. A missing role is not an
// error and returns nil.
func attachRole(ctx context.Context, tx execQueryer, userID string, slug entity.RoleSlug) (*entity.Role, error) {
	var role entity.Role
	err := tx.QueryRowContext(ctx, `SELECT id, slug, name FROM roles WHERE slug = $1`, slug).
		Scan(&role.ID, &role.Slug, &role.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select role: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, role.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("attach role: %w", err)
	}
	return &role, nil
}

func loadRoles(ctx context.Context, q execQueryer, userID string) ([]entity.Role, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT r.id, r.slug, r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select roles: %w", err)
	}
	defer rows.Close()

	roles := []entity.Role{}
	for rows.Next() {
		var role entity.Role
		if err := rows.Scan(&role.ID, &role.Slug, &role.Name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
