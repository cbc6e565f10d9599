package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xavierca1/visa-crm/internal/entity"
)

type BootstrapAdminInput struct {
	Name     string
	Email    string
	Password string
}

// BootstrapAdminUseCase creates the first admin account at startup when it
// does not exist yet.
type BootstrapAdminUseCase struct {
	Users     entity.UserRepositoryInterface
	Passwords SecretHasher
	Now       func() time.Time
}

func NewBootstrapAdminUseCase(users entity.UserRepositoryInterface, passwords SecretHasher) *BootstrapAdminUseCase {
	return &BootstrapAdminUseCase{Users: users, Passwords: passwords, Now: time.Now}
}

// Execute returns true when an account was created.
func (uc *BootstrapAdminUseCase) Execute(ctx context.Context, input BootstrapAdminInput) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return false, nil
	}
	if len(input.Password) < minPasswordLength {
		return false, fmt.Errorf("admin password must be at least %d characters", minPasswordLength)
	}
	if len(input.Password) > maxPasswordBytes {
		return false, fmt.Errorf("admin password must not exceed %d bytes", maxPasswordBytes)
	}

	_, err := uc.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		log.Info().Str("email", email).Msg("admin account already exists, skipping bootstrap")
		return false, nil
	case !errors.Is(err, entity.ErrUserNotFound):
		return false, fmt.Errorf("check admin account: %w", err)
	}

	hash, err := uc.Passwords.Hash(input.Password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "Administrator"
	}

	admin := entity.NewStaffUser(name, email, hash, uc.Now().UTC())
	if err := uc.Users.CreateWithRoles(ctx, admin, []entity.RoleSlug{entity.RoleAdmin}); err != nil {
		return false, fmt.Errorf("create admin account: %w", err)
	}

	log.Info().Str("user_id", admin.ID).Str("email", email).Msg("admin account created")
	return true, nil
}
